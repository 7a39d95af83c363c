// internal/registry/errors.go
package registry

import (
	"errors"
	"fmt"
)

// Kind classifies registry failures. Every public operation fails with
// exactly one kind; no partial state is ever committed alongside one.
type Kind string

const (
	KindInvalidArgument     Kind = "INVALID_ARGUMENT"
	KindNotFound            Kind = "NOT_FOUND"
	KindAlreadyExists       Kind = "ALREADY_EXISTS"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindNotForSale          Kind = "NOT_FOR_SALE"
	KindInsufficientPayment Kind = "INSUFFICIENT_PAYMENT"
	KindAlreadyRated        Kind = "ALREADY_RATED"
	KindTransferFailed      Kind = "TRANSFER_FAILED"
)

// Error is a terminal operation failure carrying its kind and a
// human-readable reason.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func errf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindOf returns the failure kind of err, or "" for nil and foreign
// errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
