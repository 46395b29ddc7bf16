// Package apperrors defines the error kinds surfaced to API callers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindInsufficientStock Kind = "InsufficientStock"
	KindEmptyOrder        Kind = "EmptyOrder"
	KindInvalidReference  Kind = "InvalidReference"
	KindInvalidStatus     Kind = "InvalidStatus"
	KindInvalidTransition Kind = "InvalidTransition"
	KindValidation        Kind = "Validation"
	KindConflict          Kind = "Conflict"
	KindForbidden         Kind = "Forbidden"
	KindUnauthenticated   Kind = "Unauthenticated"
	KindRateLimited       Kind = "RateLimited"
	KindInternal          Kind = "Internal"
)

// Error carries a kind and a caller-safe message. Err holds the underlying cause and
// is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error { return New(KindNotFound, format, args...) }

func InsufficientStock(name string, available, requested int) *Error {
	return New(KindInsufficientStock, "Not enough stock for %s. Available: %d, Requested: %d", name, available, requested)
}

func EmptyOrder() *Error { return New(KindEmptyOrder, "Cart is empty") }

func InvalidReference(field, value string) *Error {
	return New(KindInvalidReference, "Invalid %s: %q", field, value)
}

func InvalidStatus(value string) *Error { return New(KindInvalidStatus, "Invalid status %q", value) }

func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }

func Conflict(format string, args ...any) *Error { return New(KindConflict, format, args...) }

func Forbidden(format string, args ...any) *Error { return New(KindForbidden, format, args...) }

func Unauthenticated(format string, args ...any) *Error {
	return New(KindUnauthenticated, format, args...)
}

func Internal(err error, format string, args ...any) *Error {
	return Wrap(KindInternal, err, format, args...)
}

// KindOf returns the kind of err, or KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindEmptyOrder, KindInvalidReference, KindInvalidStatus, KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show a caller. Unclassified errors collapse to a
// generic text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	if e != nil && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}
