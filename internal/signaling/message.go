package signaling

import (
	"encoding/json"

	"github.com/duet-rtc/duet/internal/log"
)

// Inbound event names.
const (
	EventJoin         = "join"
	EventLeave        = "leave"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
)

// Outbound event names.
const (
	EventJoined   = "joined"
	EventReady    = "ready"
	EventError    = "error"
	EventUserLeft = "user-left"
)

// Message is the websocket envelope for every event in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// client is the connection that sent an inbound message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client `json:"-"`
}

// RoomRequest is the inbound payload of join and leave.
type RoomRequest struct {
	Room string `json:"room"`
}

// RelayRequest is the inbound payload of offer, answer and ice-candidate.
// SDP and Candidate are passed through untouched.
type RelayRequest struct {
	Room      string          `json:"room"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// JoinedPayload confirms a join to the joiner. SID is the joiner's own id
// and Members the room size right after the join.
type JoinedPayload struct {
	Room    string `json:"room"`
	SID     ConnID `json:"sid"`
	Members int    `json:"members"`
}

type ReadyPayload struct{}

type ErrorPayload struct {
	Message string `json:"message"`
}

// SDPPayload is a relayed offer or answer.
type SDPPayload struct {
	SDP    json.RawMessage `json:"sdp"`
	Sender ConnID          `json:"sender"`
}

// CandidatePayload is a relayed ICE candidate.
type CandidatePayload struct {
	Candidate json.RawMessage `json:"candidate"`
	Sender    ConnID          `json:"sender"`
}

type UserLeftPayload struct {
	SID ConnID `json:"sid"`
}

// NewMessage builds an outbound message with a JSON encoded payload.
func NewMessage(t string, payload any) *Message {
	b, err := json.Marshal(payload)
	if err != nil {
		// Payload types above always encode; a RawMessage from a peer was
		// already valid JSON when it was decoded.
		log.Errorf("encode %s payload: %v", t, err)
		return &Message{Type: t}
	}
	return &Message{Type: t, Payload: b}
}

// decodePayload unmarshals the payload into v. A missing payload decodes
// as an empty object so field checks report the real problem.
func (m *Message) decodePayload(v any) error {
	if len(m.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(m.Payload, v)
}
