package signalclient

import "encoding/json"

// Message is the envelope for every websocket message exchanged with the relay.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants.
const (
	TypeJoin         = "join"
	TypeLeave        = "leave"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"

	TypeJoined   = "joined"
	TypeReady    = "ready"
	TypeError    = "error"
	TypeUserLeft = "user-left"
)

// RoomRequest is sent with join and leave.
type RoomRequest struct {
	Room string `json:"room"`
}

// RelayRequest carries an SDP or an ICE candidate to the other member.
type RelayRequest struct {
	Room      string `json:"room"`
	SDP       any    `json:"sdp,omitempty"`
	Candidate any    `json:"candidate,omitempty"`
}

// Joined confirms our membership. Members is the room size right after we joined.
type Joined struct {
	Room    string `json:"room"`
	SID     string `json:"sid"`
	Members int    `json:"members"`
}

// Signal is a relayed offer, answer or ICE candidate. SDP and Candidate are
// left encoded for the WebRTC layer to decode.
type Signal struct {
	Type      string          `json:"-"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Sender    string          `json:"sender"`
}

// UserLeft names the member that left the room.
type UserLeft struct {
	SID string `json:"sid"`
}

// ErrorPayload represents error messages from server.
type ErrorPayload struct {
	Message string `json:"message"`
}
