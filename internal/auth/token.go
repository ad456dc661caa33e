package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenCodec signs the stored token key into the string handed to clients.
// The signature lets malformed or forged tokens be rejected without a lookup;
// liveness is still decided by the stored key, so tokens carry no expiry.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Encode is deterministic: the same stored token always yields the same string.
func (c *TokenCodec) Encode(key string, userID uuid.UUID, issuedAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       key,
		Subject:  userID.String(),
		IssuedAt: jwt.NewNumericDate(issuedAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *TokenCodec) Decode(tokenStr string) (string, uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || !token.Valid {
		return "", uuid.Nil, ErrInvalidToken
	}

	if claims.ID == "" {
		return "", uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", uuid.Nil, ErrInvalidToken
	}
	return claims.ID, userID, nil
}
