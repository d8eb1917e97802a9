// Package domainerr defines the closed error taxonomy the core raises at
// its boundary. Store-adapter faults are translated into one of these
// kinds as early as possible; nothing downstream of internal/store should
// see a raw driver error.
package domainerr

import (
	"errors"
	"fmt"
)

// Kind is one of the sum-type values from spec.md §6.4.
type Kind string

const (
	NotFound            Kind = "NOT_FOUND"
	AlreadyExists        Kind = "ALREADY_EXISTS"
	Conflict             Kind = "CONFLICT"
	Unauthorized         Kind = "UNAUTHORIZED"
	Forbidden            Kind = "FORBIDDEN"
	InvalidInput         Kind = "INVALID"
	NoSeatsAvailable     Kind = "NO_SEATS_AVAILABLE"
	AlreadyReserved      Kind = "ALREADY_RESERVED"
	CapacityConflict     Kind = "CAPACITY_CONFLICT"
	InsufficientOptions  Kind = "INSUFFICIENT_OPTIONS"
	ReservedName         Kind = "RESERVED_NAME"
	RateLimited          Kind = "RATE_LIMITED"
	ConcurrencyConflict  Kind = "CONCURRENCY_CONFLICT"
	TokenReused          Kind = "TOKEN_REUSED"
	Unchanged            Kind = "UNCHANGED"
	StoreUnavailable     Kind = "STORE_UNAVAILABLE"
	Internal             Kind = "INTERNAL"
)

// Error is the single concrete error type the core ever returns across a
// service boundary. Field is set only for InvalidInput.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is allows errors.Is(err, domainerr.New(Kind, "")) to match by kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a plain domain error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying cause, preserving it for Unwrap.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// Invalid builds a field-scoped validation error.
func Invalid(field, msg string) *Error {
	return &Error{Kind: InvalidInput, Field: field, Message: msg}
}

// KindOf extracts the Kind of err, defaulting to Internal for anything not
// already a *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if err == nil {
		return ""
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
