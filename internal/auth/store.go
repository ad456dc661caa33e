package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"todo/internal/model"
	"todo/internal/repository"
	"todo/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when a username/password pair does not match a user.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// bcrypt only looks at the first 72 bytes; longer passwords are rejected
// instead of silently truncated.
const maxPasswordBytes = 72

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type TokenStore interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.AuthToken, error)
	FindByKey(ctx context.Context, key string) (*model.AuthToken, error)
	CreateIfAbsent(ctx context.Context, token *model.AuthToken) (bool, error)
	DeleteByKey(ctx context.Context, key string) (bool, error)
}

// UserCache short-circuits token resolution. Implementations must be safe to
// miss: the store falls back to the database on any cache error.
type UserCache interface {
	Get(ctx context.Context, key string) (*model.User, bool, error)
	Set(ctx context.Context, key string, user *model.User) error
	Delete(ctx context.Context, key string) error
}

type RegisterInput struct {
	Username             string `json:"username" validate:"required,max=150,username"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8,notnumeric"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// CredentialStore owns users and their bearer tokens.
type CredentialStore struct {
	users    UserStore
	tokens   TokenStore
	cache    UserCache
	hasher   *PasswordHasher
	codec    *TokenCodec
	validate *validator.Validate

	// compared against when the username is unknown so both failures cost a bcrypt round
	dummyHash string
}

// NewCredentialStore wires the store; cache may be nil.
func NewCredentialStore(users UserStore, tokens TokenStore, cache UserCache, hasher *PasswordHasher, codec *TokenCodec) *CredentialStore {
	dummy, _ := hasher.Hash(uuid.NewString())
	return &CredentialStore{
		users:     users,
		tokens:    tokens,
		cache:     cache,
		hasher:    hasher,
		codec:     codec,
		validate:  validation.New(),
		dummyHash: dummy,
	}
}

// Register creates a user and issues its token.
func (s *CredentialStore) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	verr := model.NewValidationError()
	if err := validation.Struct(s.validate, in); err != nil {
		if !errors.As(err, &verr) {
			return nil, "", err
		}
	}
	if len(in.Password) > maxPasswordBytes {
		verr.Add("password", fmt.Sprintf("Ensure this field has no more than %d characters.", maxPasswordBytes))
	}

	if _, bad := verr.Fields["username"]; !bad && in.Username != "" {
		existing, err := s.users.FindByUsername(ctx, in.Username)
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up username: %w", err)
		}
		if existing != nil {
			verr.Add("username", "A user with that username already exists.")
		}
	}
	if _, bad := verr.Fields["email"]; !bad && in.Email != "" {
		existing, err := s.users.FindByEmail(ctx, in.Email)
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up email: %w", err)
		}
		if existing != nil {
			verr.Add("email", "A user with that email already exists.")
		}
	}
	if !verr.Empty() {
		return nil, "", verr
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.New(),
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent registration
			verr.Add("username", "A user with that username already exists.")
			return nil, "", verr
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.IssueOrReuseToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate checks a username/password pair.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.hasher.Verify(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueOrReuseToken returns the user's live token, creating it if needed.
func (s *CredentialStore) IssueOrReuseToken(ctx context.Context, user *model.User) (string, error) {
	stored, err := s.tokens.FindByUserID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}

	if stored == nil {
		candidate := &model.AuthToken{
			Key:    strings.ReplaceAll(uuid.NewString(), "-", ""),
			UserID: user.ID,
		}
		created, err := s.tokens.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to create token: %w", err)
		}
		if created {
			stored = candidate
		} else {
			stored, err = s.tokens.FindByUserID(ctx, user.ID)
			if err != nil {
				return "", fmt.Errorf("failed to look up token: %w", err)
			}
			if stored == nil {
				return "", errors.New("token vanished during issue")
			}
		}
	}

	return s.codec.Encode(stored.Key, user.ID, stored.CreatedAt)
}

// RevokeToken deletes the token behind tokenStr. Revoking an already
// revoked token is not an error.
func (s *CredentialStore) RevokeToken(ctx context.Context, tokenStr string) error {
	key, _, err := s.codec.Decode(tokenStr)
	if err != nil {
		return err
	}
	if _, err := s.tokens.DeleteByKey(ctx, key); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, key); err != nil {
			// the key is gone from the database, so a stale entry can only live until its TTL
			slog.WarnContext(ctx, "token cache eviction failed", "error", err)
		}
	}
	return nil
}

// ResolveToken maps a bearer token to its user. Malformed, forged, unknown and
// revoked tokens all yield ErrInvalidToken; storage failures come back wrapped.
func (s *CredentialStore) ResolveToken(ctx context.Context, tokenStr string) (*model.User, error) {
	key, userID, err := s.codec.Decode(tokenStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if s.cache != nil {
		user, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "token cache lookup failed", "error", err)
		} else if hit && user.ID == userID {
			return user, nil
		}
	}

	stored, err := s.tokens.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if stored == nil || stored.UserID != userID {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, user); err != nil {
			slog.WarnContext(ctx, "token cache fill failed", "error", err)
		}
	}
	return user, nil
}
