package errors

import (
	"errors"
	"fmt"
)

var (
	// Profile errors
	ErrProfileNotFound   = errors.New("fiscal profile not found")
	ErrProfileExists     = errors.New("fiscal profile already exists for seller")
	ErrProfileIncomplete = errors.New("fiscal profile is missing required fields")

	// Document errors
	ErrDocumentNotFound       = errors.New("fiscal document not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNumberAlreadyAssigned  = errors.New("fiscal number already assigned")
	ErrDocumentNotPayable     = errors.New("document is not in a payable status")
	ErrDocumentTerminal       = errors.New("document is in a terminal status")
	ErrEmptyCancelReason      = errors.New("cancellation reason cannot be empty")
	ErrNotAwaitingSend        = errors.New("document is not awaiting send")
	ErrInvalidSource          = errors.New("document must reference exactly one amount source")

	// Charge errors
	ErrChargeNotFound   = errors.New("payment charge not found")
	ErrChargeTerminal   = errors.New("payment charge is in a terminal status")
	ErrNotLocalFallback = errors.New("charge is not a local fallback code")

	// Gateway errors
	ErrGatewayTimeout     = errors.New("gateway request timeout")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrGatewayRejected    = errors.New("request rejected by gateway")
	ErrMalformedResponse  = errors.New("malformed gateway response")

	// Encoding errors
	ErrInvalidAmount  = errors.New("amount must be greater than 0")
	ErrFieldOverflow  = errors.New("payload field exceeds maximum length")
	ErrEmptyField     = errors.New("payload field cannot be empty")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrBadChecksum    = errors.New("payload checksum mismatch")

	// Idempotency errors
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
