package domain

import "fmt"

// ValidationError is returned for malformed input caught before any
// mutation. No partial state change has occurred when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrEmptySubmission is returned by BuildOrder when no entry in the
// session is flagged for ordering. No order is created.
var ErrEmptySubmission = &ValidationError{
	Field:   "entries",
	Message: "no items flagged for ordering",
}

// NotFoundError is returned when a referenced item, order or line no
// longer exists, e.g. it was deleted concurrently.
type NotFoundError struct {
	Kind string
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// TransientStoreError wraps a failed persistence call. Reads are safe
// to retry; multi-step writers must reload authoritative state instead
// of trusting anything partial.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// ConflictError is returned for a fulfillment or status race. Races
// resolve last-write-wins per line followed by a full status
// recomputation, never by rejecting the second writer, so this error
// only surfaces from the store layer itself.
type ConflictError struct {
	Kind string
	ID   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting write on %s %d", e.Kind, e.ID)
}
