package domain

import (
	"errors"
	"fmt"
)

// ValidationError is raised client-side, before any network call. It
// names the failing field and, when the problem belongs to a roster
// member, that member's local id.
type ValidationError struct {
	Field         string
	MemberLocalID string
	Message       string
}

func (e *ValidationError) Error() string {
	if e.MemberLocalID != "" {
		return fmt.Sprintf("%s (member %s): %s", e.Field, e.MemberLocalID, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransportError wraps a failed call to an upstream service: non-2xx,
// malformed body, or connectivity failure. Message carries the most
// specific detail available, already flattened for display.
type TransportError struct {
	StatusCode int // 0 when the request never got a response
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a retry can plausibly succeed. Rate
// limiting and connectivity failures are retryable; a 4xx rejection is
// not.
func (e *TransportError) Retryable() bool {
	if e.StatusCode == 0 || e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}

// AsValidation unwraps err to a *ValidationError when one is present.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsTransport unwraps err to a *TransportError when one is present.
func AsTransport(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
