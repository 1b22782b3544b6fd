// Package errs holds the error kinds surfaced by the store.
//
// Validation errors are raised before any I/O happens. Conflict errors are raised after a
// merge pass started but always before its commit, so the bucket on disk is unchanged.
// Both are ordinary return values that callers are expected to handle.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOperation is returned when a key, value, record, batch or name breaks a limit.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrDuplicateKey is returned when inserting a record whose keys are already taken.
	ErrDuplicateKey = errors.New("object already exists")

	// ErrNotFound is returned when deleting a record that does not exist.
	ErrNotFound = errors.New("object does not exist")

	// ErrCollectionExists is returned when creating a collection that already exists.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrCollectionNotFound is returned when using a collection that does not exist.
	ErrCollectionNotFound = errors.New("collection does not exist")

	// ErrNotSupported is returned for query shapes a surface does not implement yet.
	ErrNotSupported = errors.New("not yet supported")

	// ErrTypeMismatch is returned when a filter compares incompatible value types.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Error wraps a sentinel error with additional context
type Error struct {
	err     error  // The underlying sentinel error
	context string // Additional error context
}

// Error satisfies the error interface
func (e *Error) Error() string {
	if e.context == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %s", e.err.Error(), e.context)
}

// Unwrap implements the errors.Unwrap interface for compatibility with errors.Is/As
func (e *Error) Unwrap() error {
	return e.err
}

// New creates a new error of the given kind with context
func New(err error, format string, args ...interface{}) *Error {
	return &Error{
		err:     err,
		context: fmt.Sprintf(format, args...),
	}
}

// IsConflict reports whether err is a conflict raised before a commit.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCollectionExists) ||
		errors.Is(err, ErrCollectionNotFound)
}
