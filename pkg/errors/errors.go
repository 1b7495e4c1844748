// Package errors provides the structured error type shared by codestream packages.
//
// ContextualError records which component failed, what it was doing, the
// WebSocket close code involved (when there is one) and optional details. It
// implements Unwrap so sentinel errors stay reachable through errors.Is.
//
// Usage:
//
//	err := errors.New("codegen", "Dispatch", types.ErrMalformedMessage)
//	err = err.WithCode(4332).WithDetails(map[string]any{"variant": 1})
package errors

import "fmt"

// ContextualError is a structured error carrying the component, operation,
// optional close code and details of a failure.
type ContextualError struct {
	// Component identifies the package that produced the error (e.g. "codegen", "streaming", "config").
	Component string

	// Operation describes what was being done when the error occurred.
	Operation string

	// Code is an optional WebSocket close code.
	Code int

	// Details holds optional structured metadata about the error.
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// New creates a ContextualError with the given component, operation, and cause.
func New(component, operation string, cause error) *ContextualError {
	return &ContextualError{
		Component: component,
		Operation: operation,
		Cause:     cause,
	}
}

// Error returns a human-readable representation of the error.
func (e *ContextualError) Error() string {
	base := fmt.Sprintf("[%s] %s", e.Component, e.Operation)

	if e.Code != 0 {
		base += fmt.Sprintf(" (code %d)", e.Code)
	}

	if e.Cause != nil {
		base += ": " + e.Cause.Error()
	}

	return base
}

// Unwrap returns the underlying cause, enabling use with errors.Is and errors.As.
func (e *ContextualError) Unwrap() error {
	return e.Cause
}

// WithCode sets the close code and returns the same error for chaining.
func (e *ContextualError) WithCode(code int) *ContextualError {
	e.Code = code
	return e
}

// WithDetails sets the details map and returns the same error for chaining.
func (e *ContextualError) WithDetails(details map[string]any) *ContextualError {
	e.Details = details
	return e
}
