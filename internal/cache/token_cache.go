// Package cache keeps resolved bearer tokens in Redis so authenticated
// requests skip the token and user lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"todo/internal/model"

	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "todo:token:"

// TokenCache maps a token key to the user it belongs to.
type TokenCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewTokenCache(client *redis.Client, prefix string, ttl time.Duration) *TokenCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &TokenCache{client: client, prefix: prefix, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *TokenCache) Get(ctx context.Context, key string) (*model.User, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return &user, true, nil
}

func (c *TokenCache) Set(ctx context.Context, key string, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *TokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *TokenCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
