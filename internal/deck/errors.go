// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"errors"
	"fmt"
)

// Kind categorizes errors returned by stores and the review engine.
type Kind string

const (
	// KindNotFound means an item or collection reference did not resolve.
	KindNotFound Kind = "NOT_FOUND"

	// KindStoreUnavailable means the backing store failed at the I/O level.
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"

	// KindSchedulingFailure means the oracle rejected the review or
	// returned an unusable state.
	KindSchedulingFailure Kind = "SCHEDULING_FAILURE"

	// KindInvalidState means stored data violates the item invariants.
	KindInvalidState Kind = "INVALID_STATE"

	// KindConflict means a collection name is already taken.
	KindConflict Kind = "CONFLICT"

	// KindInvalidArgument means the caller passed an unusable value.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
)

var errEmptyName = errors.New("collection name is empty")

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrStoreUnavailable  = &Error{Kind: KindStoreUnavailable}
	ErrSchedulingFailure = &Error{Kind: KindSchedulingFailure}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
)

// Error is the typed failure used across the review packages.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsStoreUnavailable reports whether err is a StoreUnavailable failure.
func IsStoreUnavailable(err error) bool { return KindOf(err) == KindStoreUnavailable }

// notFound builds a NotFound error for op.
func notFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf(format, args...)}
}

// unavailable wraps an I/O failure from a backend.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindStoreUnavailable, Op: op, Err: err}
}
