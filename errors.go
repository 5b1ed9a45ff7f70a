package tradelog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced account, transaction, position or
// opening transaction does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid")

// ValidationError reports user input that is clearly invalid. No state is
// mutated when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
}
