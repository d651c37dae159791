package ndarray

import (
	"errors"
	"fmt"
)

var (
	// ErrShape reports an invalid shape, element count or slice step.
	ErrShape = errors.New("shape error")
	// ErrBroadcast reports operands whose shapes cannot be broadcast together.
	ErrBroadcast = errors.New("broadcast error")
	// ErrIndexOutOfBounds reports an index or axis outside the array.
	ErrIndexOutOfBounds = errors.New("index out of bounds")
)

// Error is a contract violation raised by an Array operation. Kind is one of
// the package sentinels and is matched with errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func shapef(format string, args ...any) error {
	return &Error{Kind: ErrShape, Msg: fmt.Sprintf(format, args...)}
}

func broadcastf(format string, args ...any) error {
	return &Error{Kind: ErrBroadcast, Msg: fmt.Sprintf(format, args...)}
}

func boundsf(format string, args ...any) error {
	return &Error{Kind: ErrIndexOutOfBounds, Msg: fmt.Sprintf(format, args...)}
}
