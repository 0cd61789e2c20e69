// Package core holds the typed error taxonomy shared by the playlist,
// assignment and capacity services. Every failure a caller can act on is one
// of these kinds; transport-level delivery failures are deliberately not.
package core

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation marks malformed input: bad duration, bad time range,
	// empty item set, partial reorder permutation.
	KindValidation Kind = iota + 1
	// KindNotFound marks an unknown playlist, television, item or owner id.
	KindNotFound
	// KindInvariant marks a request that would break a structural rule:
	// a second live playlist on one television, capacity exceeded.
	KindInvariant
	// KindConflict marks a mutation raced by another editor, e.g. a reorder
	// against a stale item-id set.
	KindConflict
)

// Error is returned synchronously from every service mutation. Details carry
// whatever the UI needs to explain the failure without a second round-trip
// (current usage on capacity denials, the blocking playlist id, and so on).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string { return e.Message }

// With attaches a detail and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func Invalidf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Violationf(format string, args ...any) *Error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from any error, or 0 for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// AsError returns the typed error inside err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
