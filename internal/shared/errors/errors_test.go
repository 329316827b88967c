package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name      string
		err       *AppError
		wantType  ErrorType
		wantCode  int
		retryable bool
	}{
		{"validation", NewValidationError("bad seats"), ErrorTypeValidation, http.StatusBadRequest, false},
		{"not found", NewNotFoundError("no such subscription"), ErrorTypeNotFound, http.StatusNotFound, false},
		{"conflict", NewConflictError("illegal transition"), ErrorTypeConflict, http.StatusConflict, false},
		{"gateway", NewGatewayError("create invoice failed", cause), ErrorTypeGateway, http.StatusBadGateway, true},
		{"processing", NewProcessingError("event failed", cause), ErrorTypeProcessing, http.StatusInternalServerError, true},
		{"internal", NewInternalError("boom"), ErrorTypeInternal, http.StatusInternalServerError, false},
		{"unauthorized", NewUnauthorizedError("bad signature"), ErrorTypeUnauthorized, http.StatusUnauthorized, false},
		{"bad request", NewBadRequestError("malformed"), ErrorTypeBadRequest, http.StatusBadRequest, false},
		{"too large", NewPayloadTooLargeError("body too large"), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable())
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestAppError_WrapsCause(t *testing.T) {
	sentinel := errors.New("invalid status transition")
	err := fmt.Errorf("change plan: %w", NewConflictError("cannot change plan").WithCause(sentinel))

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, IsConflictError(err))
	assert.False(t, IsNotFoundError(err))

	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "conflict: cannot change plan", appErr.Error())
}

func TestAppError_ErrorIncludesDetails(t *testing.T) {
	err := NewGatewayError("create invoice failed", errors.New("timeout"))
	assert.Equal(t, "gateway_error: create invoice failed (timeout)", err.Error())
	assert.True(t, IsGatewayError(err))
}

func TestPredicatesOnPlainErrors(t *testing.T) {
	plain := errors.New("plain")

	assert.Nil(t, GetAppError(plain))
	assert.False(t, IsAppError(plain))
	assert.False(t, IsValidationError(plain))
	assert.False(t, IsRetryable(plain))
	assert.False(t, IsRetryable(nil))
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Error 1062 (23000): Duplicate entry 'evt-1' for key 'uk_provider_event'"), true},
		{errors.New("UNIQUE constraint failed: webhook_events.provider_event_id"), true},
		{errors.New("pq: duplicate key value violates unique constraint"), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDuplicateError(tt.err), "%v", tt.err)
	}
}
