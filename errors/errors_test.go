package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/stretchr/testify/assert"
)

func init() {
	logger.IsTest = true
}

func TestNew(t *testing.T) {
	err := New(ValidationError, "invalid input", "field required")
	assert.Equal(t, ValidationError, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "field required", err.Detail)
	assert.Equal(t, 400, err.HTTPStatus)
}

func TestWrap(t *testing.T) {
	originalErr := fmt.Errorf("original error")
	wrappedErr := Wrap(originalErr, ServerError, "operation failed")

	assert.Equal(t, ServerError, wrappedErr.Type)
	assert.Equal(t, "operation failed", wrappedErr.Message)
	assert.Equal(t, originalErr.Error(), wrappedErr.Detail)
	assert.Equal(t, 500, wrappedErr.HTTPStatus)
	assert.Equal(t, originalErr, wrappedErr.Raw)
	assert.True(t, stderrors.Is(wrappedErr, originalErr))

	assert.Nil(t, Wrap(nil, ServerError, "ignored"))
}

func TestNotFound(t *testing.T) {
	err := NotFound("Form", "abc")
	assert.Equal(t, NotFoundError, err.Type)
	assert.Equal(t, "Form not found", err.Message)
	assert.Equal(t, "ID: abc", err.Detail)
	assert.Equal(t, 404, err.HTTPStatus)
}

func TestValidationFailed(t *testing.T) {
	err := ValidationFailed("Invalid email", "format not correct")
	assert.Equal(t, ValidationError, err.Type)
	assert.Equal(t, 400, err.HTTPStatus)
}

func TestRateLimitExceeded(t *testing.T) {
	err := RateLimitExceeded("slow down", 30)
	assert.Equal(t, RateLimitError, err.Type)
	assert.Equal(t, "retry after 30 seconds", err.Detail)
	assert.Equal(t, http.StatusTooManyRequests, err.GetHTTPStatus())
}

func TestRemoteListFailed(t *testing.T) {
	raw := fmt.Errorf("403 from list")
	err := RemoteListFailed(ListAccessDeniedError, "Error submitting feedback.", raw)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.Empty(t, err.Detail)
	assert.Equal(t, raw, err.Raw)
}

func TestGetHTTPStatusFallsBackToType(t *testing.T) {
	err := &AppError{Type: ConflictError, Message: "busy"}
	assert.Equal(t, http.StatusConflict, err.GetHTTPStatus())

	err = &AppError{Type: "SOMETHING_ELSE", Message: "?"}
	assert.Equal(t, http.StatusInternalServerError, err.GetHTTPStatus())
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "with detail",
			err:      &AppError{Type: ValidationError, Message: "invalid input", Detail: "field required"},
			expected: "VALIDATION_ERROR: invalid input (field required)",
		},
		{
			name:     "without detail",
			err:      &AppError{Type: AuthError, Message: "unauthorized"},
			expected: "AUTHENTICATION_ERROR: unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}
