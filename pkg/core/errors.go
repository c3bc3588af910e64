package core

import (
	"errors"
	"fmt"
)

// ValidationError is returned when user input references something that does not
// exist or is not allowed. It is raised before any statement reaches the driver.
type ValidationError struct {
	Field      string
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Invalid is a shorthand for constructing a ValidationError.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// DriverError wraps a failure reported by the database server or the driver:
// lost connections, permission problems, rejected syntax, timeouts.
// Statement carries the text that failed, if any.
type DriverError struct {
	Statement string
	Err       error
}

func (e *DriverError) Error() string {
	if e.Statement == "" {
		return fmt.Sprintf("driver error: %v", e.Err)
	}
	return fmt.Sprintf("driver error: %v\nstatement: %s", e.Err, e.Statement)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// NewDriverError wraps err with the statement that produced it.
// Errors that already are DriverErrors with statement text are returned as is.
func NewDriverError(statement string, err error) error {
	if err == nil {
		return nil
	}
	var de *DriverError
	if errors.As(err, &de) && de.Statement != "" {
		return err
	}
	return &DriverError{Statement: statement, Err: err}
}

// CapabilityError is returned when an operation is attempted against a driver
// that does not support it. Calling code is expected to check Supports first.
type CapabilityError struct {
	Feature Feature
	Driver  string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("driver %s does not support %q", e.Driver, string(e.Feature))
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDriver reports whether err is or wraps a DriverError.
func IsDriver(err error) bool {
	var de *DriverError
	return errors.As(err, &de)
}

// IsCapability reports whether err is or wraps a CapabilityError.
func IsCapability(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce)
}
