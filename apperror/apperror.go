// Package apperror defines the application's error taxonomy and its mapping
// to HTTP status codes. Services return *AppError values; handlers translate
// them into JSON responses with a consistent shape, so a failed precondition
// deep in the lending logic surfaces to the client with the right status and
// a human-readable message.
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
	// DatabaseError represents an error originating from the database.
	DatabaseError
	// ConfigError represents an error in application configuration.
	ConfigError
	// MigrationError represents an error while running schema migrations.
	MigrationError
	// UnauthorizedError represents a missing or invalid credential.
	UnauthorizedError
	// ForbiddenError represents an authenticated user lacking permission.
	ForbiddenError
	// NotFoundError represents a referenced user or book that does not exist.
	NotFoundError
	// ValidationError represents an out-of-range or malformed input field.
	ValidationError
	// ConflictError represents a violated lending invariant: no copies
	// available, borrowing limit reached, duplicate loan, or an attempt to
	// delete a record that still has active loans.
	ConflictError
	// BadRequestError represents a generic malformed request.
	BadRequestError
	// InternalError represents an unexpected server-side failure.
	InternalError
)

// AppError is the application's error type. It carries a user-facing message
// and optionally wraps an underlying error for debugging.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error satisfies the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, enabling errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error type to an HTTP status code.
//
// Conflict maps to 400 rather than 409: the API contract treats every
// invariant violation (capacity, limit, duplicate loan, on-loan deletion)
// as a bad request, and clients surface the message verbatim.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case UnauthorizedError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, ConflictError, BadRequestError:
		return http.StatusBadRequest
	case DatabaseError, ConfigError, MigrationError, InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates an AppError of an arbitrary type.
func NewAppError(errType ErrorType, message string, underlying error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlying,
	}
}

// NewDatabaseError creates a DatabaseError.
func NewDatabaseError(message string, underlying error) *AppError {
	return NewAppError(DatabaseError, message, underlying)
}

// NewConfigError creates a ConfigError.
func NewConfigError(message string, underlying error) *AppError {
	return NewAppError(ConfigError, message, underlying)
}

// NewMigrationError creates a MigrationError.
func NewMigrationError(message string, underlying error) *AppError {
	return NewAppError(MigrationError, message, underlying)
}

// NewUnauthorizedError creates an UnauthorizedError (401).
func NewUnauthorizedError(message string, underlying error) *AppError {
	return NewAppError(UnauthorizedError, message, underlying)
}

// NewForbiddenError creates a ForbiddenError (403).
func NewForbiddenError(message string, underlying error) *AppError {
	return NewAppError(ForbiddenError, message, underlying)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(message string, underlying error) *AppError {
	return NewAppError(NotFoundError, message, underlying)
}

// NewValidationError creates a ValidationError.
func NewValidationError(message string, underlying error) *AppError {
	return NewAppError(ValidationError, message, underlying)
}

// NewConflictError creates a ConflictError.
func NewConflictError(message string, underlying error) *AppError {
	return NewAppError(ConflictError, message, underlying)
}

// NewBadRequestError creates a BadRequestError.
func NewBadRequestError(message string, underlying error) *AppError {
	return NewAppError(BadRequestError, message, underlying)
}

// NewInternalError creates an InternalError.
func NewInternalError(message string, underlying error) *AppError {
	return NewAppError(InternalError, message, underlying)
}

// ErrorResponse is the JSON payload returned to API clients for any error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse converts an AppError to its client-facing payload. Only the
// message is exposed; the wrapped error stays server-side.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// FromError attempts to interpret err as an *AppError.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NotFoundError
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ConflictError
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ValidationError
}

// IsUnauthorized reports whether err is an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == UnauthorizedError
}

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ForbiddenError
}
