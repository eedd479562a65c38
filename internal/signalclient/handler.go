package signalclient

import (
	"encoding/json"
	"log/slog"
)

// Handler routes incoming signaling messages to typed channels.
type Handler struct {
	client   *Client
	Joined   chan *Joined
	Ready    chan struct{}
	Signal   chan *Signal
	PeerLeft chan *UserLeft
	Error    chan string
	Closed   chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:   client,
		Joined:   make(chan *Joined, 4),
		Ready:    make(chan struct{}, 4),
		Signal:   make(chan *Signal, 64),
		PeerLeft: make(chan *UserLeft, 4),
		Error:    make(chan string, 4),
		Closed:   make(chan struct{}),
	}
}

// Start begins listening to incoming messages and routing them. It returns
// once the connection ends, after closing Closed.
func (h *Handler) Start() {
	defer close(h.Closed)

	for msg := range h.client.Incoming() {
		switch msg.Type {
		case TypeJoined:
			var joined Joined
			if h.decode(msg, &joined) {
				h.Joined <- &joined
			}

		case TypeReady:
			h.Ready <- struct{}{}

		case TypeOffer, TypeAnswer, TypeICECandidate:
			signal := Signal{Type: msg.Type}
			if h.decode(msg, &signal) {
				h.Signal <- &signal
			}

		case TypeUserLeft:
			var left UserLeft
			if h.decode(msg, &left) {
				h.PeerLeft <- &left
			}

		case TypeError:
			var errPayload ErrorPayload
			if !h.decode(msg, &errPayload) || errPayload.Message == "" {
				errPayload.Message = "Unknown error from server"
			}
			h.Error <- errPayload.Message

		default:
			slog.Debug("ignoring signaling message", "type", msg.Type)
		}
	}
}

func (h *Handler) decode(msg *Message, v any) bool {
	if len(msg.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		slog.Warn("bad signaling payload", "type", msg.Type, "error", err)
		return false
	}
	return true
}
