package rtc

import (
	"errors"
	"fmt"
)

var (
	ErrPeerLeft         = errors.New("peer left the room")
	ErrSignaling        = errors.New("signaling server error")
	ErrTimeout          = errors.New("timeout")
	ErrChannelClosed    = errors.New("channel closed")
	ErrChannelNotOpen   = errors.New("channel not open")
	ErrConnectionFailed = errors.New("connection failed")
	ErrUnexpectedSignal = errors.New("unexpected signal type")
)

// Error records the step of the session that failed.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
