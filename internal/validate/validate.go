// Package validate collects field-level validation failures for admin
// payloads.
package validate

import (
	"fmt"
	"strings"
)

// Codes shared across payloads.
const (
	CodeRequired   = "required"
	CodeInvalid    = "invalid"
	CodeOutOfRange = "out_of_range"
)

// FieldError is a validation failure on one input field.
type FieldError struct {
	Field   string
	Message string
	Code    string
}

// Error is returned when a payload is rejected.
type Error struct {
	Errors []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Collector accumulates field errors.
type Collector struct {
	errs []FieldError
}

// Add records a failure on field.
func (c *Collector) Add(field, code, format string, args ...any) {
	c.errs = append(c.errs, FieldError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the recorded failures.
func (c *Collector) Errors() []FieldError {
	return c.errs
}

// Err returns *Error when anything was recorded, else nil.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &Error{Errors: c.errs}
}
