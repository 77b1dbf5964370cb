package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/hiretree/internal/config"
	"github.com/jonathan/hiretree/internal/store"
	"github.com/jonathan/hiretree/internal/types"
)

// UserService registers and authenticates accounts.
type UserService struct {
	users          store.UserStore
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(users store.UserStore, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{users: users, passwordConfig: passwordConfig}
}

// Register creates an account. Emails are trimmed and lower-cased first.
func (s *UserService) Register(ctx context.Context, req *types.CredentialsRequest) (types.User, error) {
	email := store.NormalizeEmail(req.Email)

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return types.User{}, &ErrEmailAlreadyExists{Email: email}
	case !errors.Is(err, store.ErrUserNotFound):
		return types.User{}, fmt.Errorf("failed to check email existence: %w", err)
	}

	hash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, config.ErrPasswordTooLong) {
			return types.User{}, &ErrValidation{Field: "Password", Message: "too long"}
		}
		return types.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	acc, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, store.ErrEmailTaken) {
			return types.User{}, &ErrEmailAlreadyExists{Email: email}
		}
		return types.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return acc.User, nil
}

// Login returns the account for valid credentials. Unknown emails and wrong
// passwords produce the same error.
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (types.User, error) {
	acc, err := s.users.GetUserByEmail(ctx, store.NormalizeEmail(req.Email))
	if errors.Is(err, store.ErrUserNotFound) {
		return types.User{}, &ErrInvalidCredentials{}
	}
	if err != nil {
		return types.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if !s.passwordConfig.VerifyPassword(req.Password, acc.PasswordHash) {
		return types.User{}, &ErrInvalidCredentials{}
	}
	return acc.User, nil
}

// Get returns the account for an authenticated user id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (types.User, error) {
	acc, err := s.users.GetUser(ctx, id)
	if errors.Is(err, store.ErrUserNotFound) {
		return types.User{}, &ErrUserNotFound{UserID: id}
	}
	if err != nil {
		return types.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return acc.User, nil
}
