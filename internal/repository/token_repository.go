package repository

import (
	"context"
	"errors"

	"todo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// FindByUserID returns the live token of a user, or nil if there is none
func (r *TokenRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// FindByKey returns the token stored under key, or nil if it was revoked or never issued
func (r *TokenRepository) FindByKey(ctx context.Context, key string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.WithContext(ctx).Where("token_key = ?", key).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// CreateIfAbsent inserts the token unless the user already holds one.
// It reports whether this call created the row.
func (r *TokenRepository) CreateIfAbsent(ctx context.Context, token *model.AuthToken) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(token)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteByKey removes a token and reports whether it existed
func (r *TokenRepository) DeleteByKey(ctx context.Context, key string) (bool, error) {
	result := r.db.WithContext(ctx).Where("token_key = ?", key).Delete(&model.AuthToken{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
