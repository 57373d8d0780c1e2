// Package apperror defines the two failure kinds the booking core surfaces
// to the request layer.
package apperror

import (
	"errors"
	"fmt"
)

// Kind discriminates business-rule failures. The set is closed.
type Kind int

const (
	// NotFound means a referenced entity (room, or the caller's booking on
	// read) does not exist.
	NotFound Kind = iota + 1
	// Forbidden means the entity exists but a business rule disallows the
	// operation.
	Forbidden
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a business-rule failure carrying its kind and a human-readable
// message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, apperror.ErrForbidden) regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Kind-only sentinels for use with errors.Is.
var (
	ErrNotFound  = &Error{Kind: NotFound, Message: "not found"}
	ErrForbidden = &Error{Kind: Forbidden, Message: "forbidden"}
)

// NewNotFound returns a NotFound error with the given message.
func NewNotFound(msg string) *Error {
	return &Error{Kind: NotFound, Message: msg}
}

// NewForbidden returns a Forbidden error with the given message.
func NewForbidden(msg string) *Error {
	return &Error{Kind: Forbidden, Message: msg}
}

// KindOf extracts the kind from err. ok is false when err is not (and does
// not wrap) an *Error.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
