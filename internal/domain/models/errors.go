package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a fingerprint or farmer cannot be resolved.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a fingerprint is already bound to a farmer.
var ErrConflict = errors.New("conflict")

// ValidationError lists the required fields missing from a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// StorageError wraps a backend failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
