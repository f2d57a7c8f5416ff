// Package verrors provides the host's sentinel and typed error types.
package verrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for precondition and validation failures.
var (
	ErrNotConnected  = errors.New("no active session")
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrFeatureFrozen = errors.New("device features are frozen after announcement")
	ErrOutOfRange    = errors.New("value out of range")
	ErrReadOnly      = errors.New("property is read-only")
	ErrInvalidValue  = errors.New("invalid value")
)

// FeatureFrozenError reports an attempt to mutate a device's feature
// inventory (output, button, binary input, sensor) after it has been
// announced to the controller.
type FeatureFrozenError struct {
	Device    string
	Operation string
}

func (e *FeatureFrozenError) Error() string {
	return fmt.Sprintf("device %s: cannot %s: already announced", e.Device, e.Operation)
}

func (e *FeatureFrozenError) Unwrap() error { return ErrFeatureFrozen }

// NewFeatureFrozenError builds a FeatureFrozenError.
func NewFeatureFrozenError(device, operation string) *FeatureFrozenError {
	return &FeatureFrozenError{Device: device, Operation: operation}
}

// NotFoundError reports a lookup failure for a named resource.
type NotFoundError struct {
	Kind string
	UID  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.Kind, e.UID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(kind, uid string) *NotFoundError {
	return &NotFoundError{Kind: kind, UID: uid}
}

// ValidationError represents one or more leaf-level validation failures
// accumulated while applying a property-tree write.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidValue }

// NewValidationError creates a validation error from messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder accumulates validation failures while walking a
// property-tree write so the first one can be reported without aborting
// the rest of the leaves (spec.md §4.5/§7).
type ValidationBuilder struct {
	errors []string
}

// Add appends a formatted error message.
func (v *ValidationBuilder) Add(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors reports whether any failure was recorded.
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// First returns the first recorded failure message, or "" if none.
func (v *ValidationBuilder) First() string {
	if len(v.errors) == 0 {
		return ""
	}
	return v.errors[0]
}

// Build returns the accumulated validation error, or nil if none were recorded.
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
