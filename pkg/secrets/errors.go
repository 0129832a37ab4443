package secrets

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("secrets: not found")
	ErrInvalidScope = errors.New("secrets: invalid scope")
	ErrInvalidRef   = errors.New("secrets: invalid reference")
	ErrUnsupported  = errors.New("secrets: unsupported operation")
	ErrEmptyValue   = errors.New("secrets: empty value")
	ErrInvalidKey   = errors.New("secrets: invalid key")
)

// ValidateReference performs basic checks on a reference.
func ValidateReference(ref Reference) error {
	if ref.Scope == "" || !isValidScope(ref.Scope) {
		return ErrInvalidScope
	}
	if strings.TrimSpace(ref.SubjectID) == "" {
		return ErrInvalidRef
	}
	if strings.TrimSpace(ref.Service) == "" || strings.TrimSpace(ref.Key) == "" {
		return ErrInvalidKey
	}
	return nil
}

func isValidScope(scope Scope) bool {
	switch scope {
	case ScopeSystem, ScopeUser:
		return true
	default:
		return false
	}
}
