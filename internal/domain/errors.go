package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the delivery layer can map it to a
// status code without inspecting message text.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindConflict          ErrorKind = "conflict"
	KindInvalidInput      ErrorKind = "invalid_input"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindEmptyCart         ErrorKind = "empty_cart"
	KindInternal          ErrorKind = "internal"
)

// Error is the error type crossing the usecase boundary. Message is safe
// to return to clients; cause is for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidInputf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStockf(format string, args ...any) error {
	return &Error{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func EmptyCartf(format string, args ...any) error {
	return &Error{Kind: KindEmptyCart, Message: fmt.Sprintf(format, args...)}
}

// Internalf wraps an unexpected failure. The message shown to clients is
// generic; cause keeps the detail for logging.
func Internalf(cause error, format string, args ...any) error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the kind from err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
