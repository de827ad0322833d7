package store

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("storage unavailable")
)

// Messages carried by classified errors.
const (
	MsgUserNotFound     = "User not found"
	MsgUserExists       = "This user already exists"
	MsgUserDoesNotExist = "This user does not exist"
	MsgStorage          = "Get user error"
)

// Error is a classified repository failure. Message is safe to show to
// clients; Err holds the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

func unavailable(err error) error {
	return &Error{Kind: ErrUnavailable, Message: MsgStorage, Err: err}
}

// Message returns the client-facing message of a classified error, or
// fallback when err is not one.
func Message(err error, fallback string) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
