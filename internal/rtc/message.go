package rtc

import "github.com/vmihailenco/msgpack/v5"

// Data channel message types.
const (
	TypeHello = "hello"
	TypeText  = "text"
)

// Message represents a binary data channel frame between terminal peers.
type Message struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// HelloPayload announces a peer that understands binary frames.
type HelloPayload struct {
	Client  string `msgpack:"client"`
	Version string `msgpack:"version"`
}

// TextPayload is one chat line.
type TextPayload struct {
	Text   string `msgpack:"text"`
	SentAt int64  `msgpack:"sentAt"` // unix millis
}

// DecodePayload decodes the message payload into the provided struct
func (m Message) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// NewMessage creates a new Message with the given type and payload
func NewMessage(t string, payload any) (Message, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Type:    t,
		Payload: b,
	}, nil
}

// Encode marshals m into a single binary frame.
func (m Message) Encode() ([]byte, error) {
	return msgpack.Marshal(m)
}

// DecodeMessage parses a binary frame.
func DecodeMessage(b []byte) (Message, error) {
	var m Message
	err := msgpack.Unmarshal(b, &m)
	return m, err
}
