package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a patch would move a document
	// backwards, e.g. clearing its backup flag.
	ErrInvalidTransition = errors.New("domain: invalid state transition")
)

// ValidationError describes a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
