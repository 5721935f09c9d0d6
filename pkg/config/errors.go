package config

import "fmt"

// ValidationError reports an invalid configuration value with its location.
type ValidationError struct {
	Section string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s.%s: %s", e.Section, e.Field, e.Message)
}

func newValidationError(section, field, message string) error {
	return &ValidationError{Section: section, Field: field, Message: message}
}
