package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindStatusCodes(t *testing.T) {
	tests := []struct {
		kind   ErrorKind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindRateLimit, http.StatusTooManyRequests},
		{KindDatabase, http.StatusInternalServerError},
		{KindSystem, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.StatusCode())
		})
	}
}

func TestAppErrorWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := NewDatabaseError(cause, "Failed to load user")

	assert.Equal(t, "Failed to load user: connection refused", appErr.Error())
	assert.ErrorIs(t, appErr, cause)
	assert.False(t, appErr.Operational)
}

func TestGetAppErrorFindsWrappedError(t *testing.T) {
	appErr := NewNotFoundError(nil, "Coupon not found")
	wrapped := fmt.Errorf("handling request: %w", appErr)

	found, ok := GetAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, found.Kind)
	assert.Equal(t, http.StatusNotFound, found.StatusCode())
}

func TestGetAppErrorRejectsPlainErrors(t *testing.T) {
	_, ok := GetAppError(errors.New("plain"))
	assert.False(t, ok)
}

func TestOperationalFlagPerConstructor(t *testing.T) {
	operational := []*AppError{
		NewValidationError(nil, "m"),
		NewAuthenticationError(nil, "m"),
		NewAuthorizationError(nil, "m"),
		NewNotFoundError(nil, "m"),
		NewConflictError(nil, "m"),
		NewRateLimitError(nil, "m"),
	}
	for _, e := range operational {
		assert.True(t, e.Operational, string(e.Kind))
	}

	internal := []*AppError{
		NewDatabaseError(nil, "m"),
		NewInternalError(nil, "m"),
	}
	for _, e := range internal {
		assert.False(t, e.Operational, string(e.Kind))
	}
}

func TestWithDetails(t *testing.T) {
	appErr := NewRateLimitError(nil, "Too many requests").
		WithDetails(map[string]interface{}{"limit": 10})

	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 10, details["limit"])
}
