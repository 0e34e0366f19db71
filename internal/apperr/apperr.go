package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation             Kind = "validation"
	KindUnauthorized           Kind = "unauthorized"
	KindNotFound               Kind = "not_found"
	KindInvalidTransition      Kind = "invalid_transition"
	KindCapacityExceeded       Kind = "capacity_exceeded"
	KindConflictRetryExhausted Kind = "conflict_retry_exhausted"
	KindStorage                Kind = "storage"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrCapacityExceeded       = &Error{Kind: KindCapacityExceeded}
	ErrConflictRetryExhausted = &Error{Kind: KindConflictRetryExhausted}
	ErrStorage                = &Error{Kind: KindStorage}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can compare against the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Status maps the kind to the HTTP status the API layer answers with.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindCapacityExceeded:
		return http.StatusConflict
	case KindConflictRetryExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Transient reports whether the whole command is safe to retry as-is.
func (e *Error) Transient() bool {
	return e.Kind == KindConflictRetryExhausted
}

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func CapacityExceeded(format string, args ...any) *Error {
	return &Error{Kind: KindCapacityExceeded, Message: fmt.Sprintf(format, args...)}
}

func ConflictRetryExhausted(format string, args ...any) *Error {
	return &Error{Kind: KindConflictRetryExhausted, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a store failure. An *Error passed in is returned unchanged so
// kinds raised inside a transaction survive the rollback path.
func Storage(msg string, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
