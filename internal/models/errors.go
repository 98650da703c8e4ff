package models

import "fmt"

// ValidationError reports a malformed configuration key or book field.
// Callers recover locally: configuration falls back to defaults and
// book input is rejected field by field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
