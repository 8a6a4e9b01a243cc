package models

import (
	"errors"
	"fmt"
)

// Kind classifies a data-layer failure so the UI can decide how to react
// without string matching.
type Kind int

const (
	// KindUnknown is the zero value for unclassified failures.
	KindUnknown Kind = iota
	// KindNetwork covers timeouts and connection drops; these are retried.
	KindNetwork
	// KindValidation covers client-side rejections made before any network
	// call (empty name, over-length note, malformed URL).
	KindValidation
	// KindConflict covers remote constraint violations.
	KindConflict
	// KindNotFound covers operations on records the remote no longer has.
	KindNotFound
	// KindRejected covers all other remote policy denials; never retried.
	KindRejected
)

// String returns a short machine-friendly name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is the wrapped error type surfaced by the data layer.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with an operation name and a kind.
func NewError(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrNotFound is returned when a record does not exist remotely.
var ErrNotFound = errors.New("record not found")

// DuplicateError signals that a save collided with an existing item after URL
// normalization. It is advisory: callers may retry the save with Force set.
type DuplicateError struct {
	// Existing is the item already holding the normalized URL.
	Existing JoinedItem
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate of item %s (%s)", e.Existing.ID, e.Existing.NormalizedURL)
}
