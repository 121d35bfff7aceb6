// Package apperr defines the error type shared across prompthist components.
// Every failure is tagged with the domain it originated in so callers can
// decide between surfacing, logging, or retrying without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the failure domain an error belongs to.
type Kind int

const (
	// KindSecretStore covers key fetch/store/delete failures in the OS
	// secret store. Fatal at engine construction, surfaced otherwise.
	KindSecretStore Kind = iota
	// KindCipher covers AEAD failures, malformed blobs, and bad key material.
	KindCipher
	// KindStorage covers database reads/writes and malformed stored data.
	KindStorage
	// KindProbe covers external-process failures in collectors.
	KindProbe
	// KindInvalidInput covers malformed filter or update arguments.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindSecretStore:
		return "secret store"
	case KindCipher:
		return "cipher"
	case KindStorage:
		return "storage"
	case KindProbe:
		return "probe"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "unknown"
	}
}

// Error carries a failure domain, a descriptive message, and an optional
// wrapped cause from the underlying library.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with a formatted message and no wrapped cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap adapts an underlying library error into the given domain.
// Returns nil if err is nil so call sites can wrap unconditionally.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
