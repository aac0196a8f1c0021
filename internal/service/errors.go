package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller lacks the role or ownership.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned by Login on a password mismatch.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// notFound wraps ErrNotFound with the kind of entity that was missing.
func notFound(kind string) error {
	return fmt.Errorf("%s %w", kind, ErrNotFound)
}

// forbidden wraps ErrForbidden with a reason.
func forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}
