package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain error types for the pipeline

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")
)

// Ingestion errors

var (
	// ErrTransport indicates the upstream source answered with a non-success status
	ErrTransport = errors.New("transport error")

	// ErrMalformedField indicates a record field could not be decoded
	ErrMalformedField = errors.New("malformed field")

	// ErrRateLimitExceeded indicates the upstream answered 429 Too Many Requests
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// TransportError is returned when a page request gets a non-success response.
// It aborts the current page loop only; data collected so far stays valid.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *TransportError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("transport error: %s returned %d: %s", e.Endpoint, e.StatusCode, body)
}

// Unwrap lets errors.Is(err, ErrTransport) match, and ErrRateLimitExceeded
// as well for a 429 response
func (e *TransportError) Unwrap() []error {
	if e.StatusCode == http.StatusTooManyRequests {
		return []error{ErrTransport, ErrRateLimitExceeded}
	}
	return []error{ErrTransport}
}

// NewTransportError creates a new transport error
func NewTransportError(endpoint string, status int, body []byte) *TransportError {
	return &TransportError{
		Endpoint:   endpoint,
		StatusCode: status,
		Body:       string(body),
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap makes every validation error an ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is / errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}
