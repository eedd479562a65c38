package signaling

import "github.com/pkg/errors"

// Messages sent to clients in error events.
const (
	MsgRoomFull     = "Room is full"
	MsgMissingRoom  = "Invalid payload: room is required"
	MsgMalformed    = "Malformed message"
	MsgUnknownEvent = "Unknown event type"
)

var (
	ErrRoomFull     = errors.New("room is full")
	ErrMissingRoom  = errors.New("payload has no room")
	ErrMalformed    = errors.New("malformed message")
	ErrUnknownEvent = errors.New("unknown event type")
)

// clientMessage maps a handling error to the text sent to the client.
func clientMessage(err error) string {
	switch errors.Cause(err) {
	case ErrRoomFull:
		return MsgRoomFull
	case ErrMissingRoom:
		return MsgMissingRoom
	case ErrUnknownEvent:
		return MsgUnknownEvent
	default:
		return MsgMalformed
	}
}
