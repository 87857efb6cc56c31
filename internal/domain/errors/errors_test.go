package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name: "with wrapped error",
			err: &DomainError{
				Code:    "emission_failed",
				Message: "document emission failed",
				Err:     errors.New("gateway timeout"),
			},
			expected: "document emission failed: gateway timeout",
		},
		{
			name: "without wrapped error",
			err: &DomainError{
				Code:    "invalid_state",
				Message: "cannot cancel a document in this state",
				Err:     nil,
			},
			expected: "cannot cancel a document in this state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	domainErr := &DomainError{
		Code:    "test",
		Message: "test message",
		Err:     originalErr,
	}

	unwrapped := domainErr.Unwrap()
	assert.Equal(t, originalErr, unwrapped)
}

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("gateway_error", "issue request failed", ErrGatewayTimeout)
	assert.True(t, errors.Is(err, ErrGatewayTimeout))
	assert.False(t, errors.Is(err, ErrGatewayRejected))
}

func TestNewDomainError(t *testing.T) {
	originalErr := errors.New("underlying error")
	err := NewDomainError("test_code", "test message", originalErr)

	assert.NotNil(t, err)
	assert.Equal(t, "test_code", err.Code)
	assert.Equal(t, "test message", err.Message)
	assert.Equal(t, originalErr, err.Err)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Field:   "reason",
		Message: "cannot be empty",
	}

	expected := "validation failed for field reason: cannot be empty"
	assert.Equal(t, expected, err.Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("amount", "must be greater than 0")

	assert.NotNil(t, err)
	assert.Equal(t, "amount", err.Field)
	assert.Equal(t, "must be greater than 0", err.Message)
}
