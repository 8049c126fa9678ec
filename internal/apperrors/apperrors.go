// Package apperrors provides a small typed-error taxonomy so callers at the
// edges (CLI, worker, future HTTP layer) can map failures to the right
// response without string-matching error messages.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of response mapping and retry
// policy. Unset (zero value) is treated as KindInternal.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindAuth              Kind = "auth"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindRateLimited       Kind = "rate_limited"
	KindUnavailableExternal Kind = "unavailable_external"
	KindInternal          Kind = "internal"
)

// Error wraps an underlying error with a Kind and message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an existing error.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind of err, walking the unwrap chain. Returns
// KindInternal for errors with no attached Kind.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Kind == "" {
			return KindInternal
		}
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err (or anything it wraps) carries kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

func Validation(format string, args ...any) error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) error {
	return New(KindForbidden, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

func RateLimited(format string, args ...any) error {
	return New(KindRateLimited, fmt.Sprintf(format, args...))
}

func UnavailableExternal(err error, format string, args ...any) error {
	return Wrap(KindUnavailableExternal, fmt.Sprintf(format, args...), err)
}

func Internal(err error, format string, args ...any) error {
	return Wrap(KindInternal, fmt.Sprintf(format, args...), err)
}
