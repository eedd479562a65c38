package rtc

// Framing is how chat lines are written on the data channel.
type Framing string

const (
	// PlainFraming sends each line as a UTF-8 string frame (web-compatible)
	PlainFraming Framing = "plain"

	// MsgpackFraming sends msgpack-encoded binary frames (terminal peers)
	MsgpackFraming Framing = "msgpack"
)

// SelectFraming determines which framing to use based on whether the peer
// has announced itself with a hello frame.
func SelectFraming(peerSentHello bool) Framing {
	if peerSentHello {
		return MsgpackFraming
	}

	// Default to plain frames for browser peers
	return PlainFraming
}
