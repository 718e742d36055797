package game

import (
	"errors"
	"fmt"
)

// ErrAlreadySeated is wrapped by Seat when the user already holds a
// seat. Callers treat it as a successful reattach on reconnect.
var ErrAlreadySeated = errors.New("already seated")

// ErrorKind is a stable identifier for an engine error category.
type ErrorKind string

const (
	KindNotYourTurn       ErrorKind = "not_your_turn"
	KindIllegalAction     ErrorKind = "illegal_action"
	KindInsufficientChips ErrorKind = "insufficient_chips"
	KindNotInHand         ErrorKind = "not_in_hand"
	KindBadInput          ErrorKind = "bad_input"
	KindStorageFailure    ErrorKind = "storage_failure"
	KindDeckExhausted     ErrorKind = "deck_exhausted"
)

// Fatal reports whether errors of this kind stop the room. Client
// mistakes are recovered locally; storage and deck failures are not.
func (k ErrorKind) Fatal() bool {
	return k == KindStorageFailure || k == KindDeckExhausted
}

// Error is a typed engine error carrying its kind across the wire
// boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed engine error.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a typed engine error wrapping an underlying cause.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ErrorKind from err, or empty string if err is
// not a typed engine error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
