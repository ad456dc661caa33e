package middleware_test

import (
	"context"
	"time"

	"todo/internal/auth"
	"todo/internal/model"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// codecResolver accepts any token signed with its codec.
type codecResolver struct {
	codec *auth.TokenCodec
}

func (r *codecResolver) ResolveToken(_ context.Context, token string) (*model.User, error) {
	_, userID, err := r.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	return &model.User{ID: userID}, nil
}
