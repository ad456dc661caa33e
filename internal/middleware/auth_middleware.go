package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"todo/internal/auth"
	"todo/internal/model"

	"github.com/gin-gonic/gin"
)

const (
	UserKey   = "user"
	UserIDKey = "userID"
	TokenKey  = "token"
)

type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.User, error)
}

// AuthMiddleware resolves "Authorization: Bearer <token>" (or the "Token"
// scheme) to a user and stores it in the gin context. Missing, malformed,
// unknown and revoked tokens are all answered with 401.
func AuthMiddleware(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !(strings.EqualFold(parts[0], "Bearer") || strings.EqualFold(parts[0], "Token")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}
		token := parts[1]

		user, err := resolver.ResolveToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			slog.ErrorContext(c.Request.Context(), "token resolution failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

// CurrentToken returns the raw bearer token of the request.
func CurrentToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
