package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"todo/internal/auth"
	"todo/internal/middleware"
	"todo/internal/model"
	"todo/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CredentialStore interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, string, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	IssueOrReuseToken(ctx context.Context, user *model.User) (string, error)
	RevokeToken(ctx context.Context, token string) error
}

type AuthHandler struct {
	store    CredentialStore
	validate *validator.Validate
}

func NewAuthHandler(store CredentialStore) *AuthHandler {
	return &AuthHandler{store: store, validate: validation.New()}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Token    string    `json:"token"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type CurrentUserResponse struct {
	User UserResponse `json:"user"`
}

// Register godoc
// @Summary      Register a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user  body      auth.RegisterInput  true  "Account"
// @Success      201   {object}  AuthResponse
// @Failure      400   {object}  map[string][]string
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.store.Register(c.Request.Context(), req)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// Login godoc
// @Summary      Log in
// @Description  Returns the caller's token; logging in again returns the same token until logout.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      LoginRequest  true  "Credentials"
// @Success      200          {object}  AuthResponse
// @Failure      400          {object}  map[string][]string
// @Failure      401          {object}  ErrorResponse
// @Failure      429          {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validation.Struct(h.validate, req); err != nil {
		renderError(c, err)
		return
	}

	user, err := h.store.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		renderError(c, err)
		return
	}

	token, err := h.store.IssueOrReuseToken(c.Request.Context(), user)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the token used for this request.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.store.RevokeToken(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		slog.ErrorContext(c.Request.Context(), "logout failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Successfully logged out"})
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  CurrentUserResponse
// @Failure      401  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /auth/user [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, CurrentUserResponse{User: UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}})
}
