package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelMatchingSurvivesWithCause(t *testing.T) {
	wrapped := ErrInvalidCredentials.WithCause(fmt.Errorf("bcrypt mismatch"))

	assert.True(t, errors.Is(wrapped, ErrInvalidCredentials))
	// WithCause clones; the sentinel keeps no cause.
	assert.Nil(t, ErrInvalidCredentials.Cause)
}

func TestWrapKeepsAppErrorType(t *testing.T) {
	base := NewExternalError("roadmap generation", fmt.Errorf("status 503"))
	wrapped := Wrap(base, "generate roadmap")

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeExternal, appErr.Type)
	assert.Contains(t, appErr.Message, "generate roadmap")
	// The original stays untouched.
	assert.Equal(t, "external service error: roadmap generation", base.Message)
}

func TestWrapPlainError(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), "do thing")

	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeInternal, appErr.Type)
	assert.ErrorContains(t, appErr.Cause, "boom")

	assert.Nil(t, Wrap(nil, "noop"))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsValidation(ErrNeedsInput))
	assert.True(t, IsUnauthorized(ErrInvalidCredentials))
	assert.True(t, IsForbidden(ErrGuestNotAllowed))
	assert.True(t, IsNotFound(NewNotFoundError("roadmap")))
	assert.True(t, IsConflict(NewConflictError("taken")))
	assert.False(t, IsValidation(fmt.Errorf("plain")))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, 400, NewValidationError("x").HTTPStatus)
	assert.Equal(t, 401, NewUnauthorizedError("x").HTTPStatus)
	assert.Equal(t, 403, NewForbiddenError("x").HTTPStatus)
	assert.Equal(t, 404, NewNotFoundError("x").HTTPStatus)
	assert.Equal(t, 409, NewConflictError("x").HTTPStatus)
	assert.Equal(t, 500, NewInternalError("x").HTTPStatus)
	assert.Equal(t, 502, NewExternalError("x", nil).HTTPStatus)
	assert.Equal(t, 503, NewUnavailableError("x").HTTPStatus)
}
