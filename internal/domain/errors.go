package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is the AuthError: a session is required but absent.
	// Callers redirect to the login page; it is never shown as a dialog.
	ErrNoSession = errors.New("no authenticated session")

	// ErrEmptyField is returned when a title or URL is missing.
	ErrEmptyField = errors.New("title and url are required")
)

// StoreError wraps any failure of a list, insert, delete or subscribe call.
type StoreError struct {
	Op  string // "list" | "insert" | "delete" | "subscribe"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err for op, or returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) && se.Op == op {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err carries a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
