// Package apperror defines the application error taxonomy and its mapping
// to HTTP status codes, so handlers convert failures in exactly one place.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors.
	UnknownError ErrorType = iota
	// ValidationError represents malformed or missing input.
	ValidationError
	// AuthError represents a missing/expired session or bad login credentials.
	AuthError
	// ForbiddenError represents a valid session with a wrong secondary
	// credential, e.g. password re-entry on a sensitive action.
	ForbiddenError
	// NotFoundError represents a missing resource.
	NotFoundError
	// ConflictError represents a uniqueness or state conflict.
	ConflictError
	// UpstreamError represents a catalog API or network failure.
	UpstreamError
	// ConfigError represents a server misconfiguration, e.g. a missing API key.
	ConfigError
	// DatabaseError represents a database failure.
	DatabaseError
	// InternalError represents any other internal failure.
	InternalError
)

// AppError is the application error type. It wraps an underlying error so
// errors.Is / errors.As keep working across layers.
type AppError struct {
	Type    ErrorType
	Message string
	// Fields carries optional field-level validation messages.
	Fields map[string]string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	case UpstreamError:
		return http.StatusServiceUnavailable
	case ConfigError, DatabaseError, InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError.
func New(errType ErrorType, message string, underlying error) *AppError {
	return &AppError{Type: errType, Message: message, Err: underlying}
}

func NewValidation(message string, underlying error) *AppError {
	return New(ValidationError, message, underlying)
}

// NewFieldValidation creates a validation error carrying per-field messages.
func NewFieldValidation(fields map[string]string) *AppError {
	return &AppError{Type: ValidationError, Message: "validation failed", Fields: fields}
}

func NewAuth(message string, underlying error) *AppError {
	return New(AuthError, message, underlying)
}

func NewForbidden(message string, underlying error) *AppError {
	return New(ForbiddenError, message, underlying)
}

func NewNotFound(message string, underlying error) *AppError {
	return New(NotFoundError, message, underlying)
}

func NewConflict(message string, underlying error) *AppError {
	return New(ConflictError, message, underlying)
}

func NewUpstream(message string, underlying error) *AppError {
	return New(UpstreamError, message, underlying)
}

func NewConfig(message string, underlying error) *AppError {
	return New(ConfigError, message, underlying)
}

func NewDatabase(message string, underlying error) *AppError {
	return New(DatabaseError, message, underlying)
}

func NewInternal(message string, underlying error) *AppError {
	return New(InternalError, message, underlying)
}

// As extracts an *AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	if appErr, ok := As(err); ok {
		return appErr.Type == t
	}
	return false
}
