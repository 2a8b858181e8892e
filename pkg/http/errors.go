package http

import (
	"errors"
	"fmt"
	"net/http"

	"ShopIntent/internal/domain/models"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// FromDomainError maps the domain error taxonomy onto HTTP statuses.
func FromDomainError(err error) *AppError {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return NewAppError("ERR_NOT_FOUND", "resource not found", http.StatusNotFound).WithError(err)
	case errors.Is(err, models.ErrDuplicateVersion):
		return NewAppError("ERR_DUPLICATE_VERSION", "version already registered", http.StatusConflict).WithError(err)
	case errors.Is(err, models.ErrConflict):
		return NewAppError("ERR_CONFLICT", "default version moved concurrently", http.StatusConflict).WithError(err)
	case errors.Is(err, models.ErrEmptyWindow):
		return NewAppError("ERR_EMPTY_WINDOW", "no rows in requested window", http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, models.ErrInvalidInput):
		return NewAppError("ERR_INVALID_INPUT", "invalid input", http.StatusBadRequest).WithError(err)
	default:
		return NewAppError("ERR_INTERNAL", "internal error", http.StatusInternalServerError).WithError(err)
	}
}
