package quiz

import (
	"errors"
	"fmt"
)

// ErrCodeValidation tags input that was rejected and can be re-prompted.
const ErrCodeValidation = "VALIDATION_ERROR"

var (
	// ErrNotRunning is returned for events delivered before Start.
	ErrNotRunning = errors.New("session is not running")
	// ErrFinalized is returned for events delivered after the countdown ended.
	ErrFinalized = errors.New("session is finalized")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrEventsClosed is returned by Run when the event source closes early.
	ErrEventsClosed = errors.New("event source closed before session ended")
)

// ValidationError reports malformed answer text or invalid configuration.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// NewValidationError creates a ValidationError for a named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: validation failed for %s: %s (%v)", ErrCodeValidation, e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: validation failed for %s: %s", ErrCodeValidation, e.Field, e.Reason)
}

// Unwrap returns the underlying parse error, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Message returns a short, user-facing description.
func (e *ValidationError) Message() string {
	return e.Reason
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
