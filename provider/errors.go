package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies every failure surfaced by the payment layer
type ErrorKind string

const (
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindDeclined            ErrorKind = "declined"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindTransient           ErrorKind = "transient"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
)

// Sentinels for errors.Is matching against a kind
var (
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
	ErrDeclined            = &Error{Kind: KindDeclined}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrTransient           = &Error{Kind: KindTransient}
	ErrProviderUnavailable = &Error{Kind: KindProviderUnavailable}
)

// Error is the normalized payment error. Provider adapters translate vendor
// failures into it so callers never see vendor error types.
type Error struct {
	Kind     ErrorKind
	Op       string
	Provider string
	// Code is the provider's own error code, kept for diagnostics
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}

	prefix := ""
	if e.Provider != "" {
		prefix = e.Provider + ": "
	}
	if e.Op != "" {
		prefix += e.Op + ": "
	}
	if e.Code != "" {
		return fmt.Sprintf("%s%s (%s)", prefix, msg, e.Code)
	}
	return prefix + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so errors.Is(err, ErrDeclined) works on any wrapped Error
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds a normalized error
func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// InvalidRequestf builds an InvalidRequest error with a formatted message
func InvalidRequestf(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an arbitrary cause
func Wrap(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf classifies any error. A normalized Error reports its own kind;
// context deadlines and network failures are transient; anything else is
// treated as an invalid request.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	return KindInvalidRequest
}

// IsRetryable reports whether the error may be retried. Only transient
// failures qualify.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return KindOf(err) == KindTransient
}

// withOp stamps the operation and provider on a normalized error, wrapping
// plain errors into one of the taxonomy kinds.
func withOp(err error, op, providerName string) error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		out := *pe
		if out.Op == "" {
			out.Op = op
		}
		if out.Provider == "" {
			out.Provider = providerName
		}
		return &out
	}

	return &Error{Kind: KindOf(err), Op: op, Provider: providerName, Err: err}
}
