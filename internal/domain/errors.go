package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals an unresolvable resource id.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a slug or url collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidTransition signals a status change outside the transition table.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrValidation signals malformed input (filters, dates, language codes, resource fields).
	ErrValidation = errors.New("validation failed")
	// ErrUpstream signals a failure of an external collaborator (embedding provider, index ensure).
	ErrUpstream = errors.New("upstream failure")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
