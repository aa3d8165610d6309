// Package apperr defines the error taxonomy shared by the scheduling, reporting and
// timer services and mapped to HTTP status codes by the server.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError indicates bad or inactive input, e.g. generating instances for an
// inactive definition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NotFoundError indicates a referenced definition, job, instance or child row is absent
// (or belongs to another user).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StorageError indicates the underlying persistence call failed.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage error: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("storage error: %s", e.Op)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Validation is shorthand for a ValidationError.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound is shorthand for a NotFoundError.
func NotFound(resource string, id fmt.Stringer) error {
	if id == nil {
		return &NotFoundError{Resource: resource}
	}
	return &NotFoundError{Resource: resource, ID: id.String()}
}

// Storage wraps a persistence failure. A nil cause yields nil so callers can wrap
// unconditionally.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var se *StorageError
	if errors.As(cause, &se) {
		return cause
	}
	return &StorageError{Op: op, Cause: cause}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsStorage reports whether err is or wraps a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
