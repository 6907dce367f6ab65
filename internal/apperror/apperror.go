// Package apperror defines the error kinds the services surface to their
// callers. Every failure is reported synchronously and leaves persisted
// state unchanged; none are retried here.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInvalidArgument Kind = iota + 1 // malformed or missing input
	KindNotFound                        // referenced entity does not exist
	KindInvalidState                    // operation not legal for current status
	KindUnauthorized                    // caller is not allowed to act on the entity
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotFound:
		return "not found"
	case KindInvalidState:
		return "invalid state"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

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

func (e *Error) Unwrap() error {
	return e.Err
}

func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a kinded error message.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func HasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func IsInvalidArgument(err error) bool { return HasKind(err, KindInvalidArgument) }
func IsNotFound(err error) bool        { return HasKind(err, KindNotFound) }
func IsInvalidState(err error) bool    { return HasKind(err, KindInvalidState) }
func IsUnauthorized(err error) bool    { return HasKind(err, KindUnauthorized) }
