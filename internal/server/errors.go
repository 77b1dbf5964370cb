package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/hiretree/internal/config"
	"github.com/jonathan/hiretree/internal/ingestion"
	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/store"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		emailTaken *ErrEmailAlreadyExists
		badCreds   *ErrInvalidCredentials
		noUser     *ErrUserNotFound
		invalid    *ErrValidation
	)
	switch {
	case errors.As(err, &emailTaken), errors.Is(err, store.ErrEmailTaken):
		return http.StatusConflict
	case errors.As(err, &badCreds):
		return http.StatusUnauthorized
	case errors.As(err, &noUser),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, store.ErrResumeNotFound),
		errors.Is(err, store.ErrSkillNotFound),
		errors.Is(err, store.ErrNoActiveResume):
		return http.StatusNotFound
	case errors.Is(err, ingestion.ErrUnsupportedDocument):
		return http.StatusUnprocessableEntity
	case errors.As(err, &invalid),
		errors.Is(err, store.ErrValidation),
		errors.Is(err, store.ErrAlreadyRefined),
		errors.Is(err, status.ErrInvalid),
		errors.Is(err, config.ErrPasswordTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error: invalid request"
}
