package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/libtrack-go/apperror"
)

func Test_StatusCode_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperror.AppError
		wantStatus int
	}{
		{"not_found", apperror.NewNotFoundError("book not found", nil), http.StatusNotFound},
		{"conflict", apperror.NewConflictError("no copies of this book are available", nil), http.StatusBadRequest},
		{"validation", apperror.NewValidationError("borrowing limit must be between 1 and 10", nil), http.StatusBadRequest},
		{"bad_request", apperror.NewBadRequestError("invalid request body", nil), http.StatusBadRequest},
		{"unauthorized", apperror.NewUnauthorizedError("invalid token", nil), http.StatusUnauthorized},
		{"forbidden", apperror.NewForbiddenError("not authorized as admin", nil), http.StatusForbidden},
		{"database", apperror.NewDatabaseError("connection lost", nil), http.StatusInternalServerError},
		{"internal", apperror.NewInternalError("boom", nil), http.StatusInternalServerError},
		{"migration", apperror.NewMigrationError("dirty version", nil), http.StatusInternalServerError},
		{"config", apperror.NewConfigError("missing secret", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode())
		})
	}
}

func Test_Error_IncludesWrappedError(t *testing.T) {
	underlying := errors.New("row is locked")
	err := apperror.NewDatabaseError("failed to update book", underlying)

	assert.Equal(t, "failed to update book: row is locked", err.Error())
	assert.ErrorIs(t, err, underlying)
}

func Test_ToResponse_HidesUnderlyingError(t *testing.T) {
	err := apperror.NewInternalError("internal server error", errors.New("secret detail"))

	resp := err.ToResponse()

	assert.Equal(t, "internal server error", resp.Error)
	assert.NotContains(t, resp.Error, "secret detail")
}

func Test_FromError(t *testing.T) {
	appErr, ok := apperror.FromError(apperror.NewNotFoundError("user not found", nil))
	require.True(t, ok)
	assert.Equal(t, apperror.NotFoundError, appErr.Type)

	// Wrapped AppErrors are still recognized.
	wrapped := fmt.Errorf("handler: %w", apperror.NewConflictError("limit reached", nil))
	appErr, ok = apperror.FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperror.ConflictError, appErr.Type)

	_, ok = apperror.FromError(errors.New("plain error"))
	assert.False(t, ok)

	_, ok = apperror.FromError(nil)
	assert.False(t, ok)
}

func Test_Predicates(t *testing.T) {
	assert.True(t, apperror.IsNotFound(apperror.NewNotFoundError("x", nil)))
	assert.True(t, apperror.IsConflict(apperror.NewConflictError("x", nil)))
	assert.True(t, apperror.IsValidation(apperror.NewValidationError("x", nil)))
	assert.True(t, apperror.IsUnauthorized(apperror.NewUnauthorizedError("x", nil)))
	assert.True(t, apperror.IsForbidden(apperror.NewForbiddenError("x", nil)))

	assert.False(t, apperror.IsNotFound(apperror.NewConflictError("x", nil)))
	assert.False(t, apperror.IsConflict(errors.New("plain")))
}
