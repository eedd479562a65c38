package signaling

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/duet-rtc/duet/internal/log"
	"github.com/duet-rtc/duet/internal/metrics"
)

// Transport delivers outbound events and manages room groups.
// Delivery is fire-and-forget.
type Transport interface {
	// Send delivers msg to a single connection.
	Send(to ConnID, msg *Message)

	// Broadcast delivers msg to every connection in the room's group
	// except the given one. An empty except excludes nobody.
	Broadcast(room string, msg *Message, except ConnID)

	AddToGroup(id ConnID, room string)
	RemoveFromGroup(id ConnID, room string)
}

// Coordinator implements room admission, relaying and cleanup.
//
// It is not safe for concurrent use. The Hub owns it and feeds it one event
// at a time, which keeps every operation atomic.
type Coordinator struct {
	rooms     *RoomTable
	registry  *Registry
	transport Transport
	metrics   *metrics.Metrics
}

// NewCoordinator creates a Coordinator with empty state.
func NewCoordinator(transport Transport, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		rooms:     NewRoomTable(),
		registry:  NewRegistry(),
		transport: transport,
		metrics:   m,
	}
}

// Handle decodes an inbound message and runs the matching operation.
// Malformed messages are answered with an error event to the sender.
func (c *Coordinator) Handle(sender ConnID, msg *Message) {
	if err := c.handle(sender, msg); err != nil {
		if errors.Cause(err) != ErrRoomFull {
			c.metrics.Inc(metrics.EventInvalid)
			log.WithConn(string(sender)).WithField("type", msg.Type).Debugf("rejected message: %v", err)
		}
		c.transport.Send(sender, NewMessage(EventError, ErrorPayload{Message: clientMessage(err)}))
	}
}

func (c *Coordinator) handle(sender ConnID, msg *Message) error {
	switch msg.Type {
	case EventJoin:
		var req RoomRequest
		if err := msg.decodePayload(&req); err != nil {
			return errors.Wrap(ErrMalformed, err.Error())
		}
		if strings.TrimSpace(req.Room) == "" {
			return ErrMissingRoom
		}
		return c.join(sender, req.Room)

	case EventLeave:
		var req RoomRequest
		if err := msg.decodePayload(&req); err != nil {
			return errors.Wrap(ErrMalformed, err.Error())
		}
		if strings.TrimSpace(req.Room) == "" {
			return ErrMissingRoom
		}
		c.Leave(sender, req.Room)
		return nil

	case EventOffer, EventAnswer, EventICECandidate:
		var req RelayRequest
		if err := msg.decodePayload(&req); err != nil {
			return errors.Wrap(ErrMalformed, err.Error())
		}
		if strings.TrimSpace(req.Room) == "" {
			return ErrMissingRoom
		}
		c.Relay(sender, req.Room, msg.Type, req)
		return nil

	case "":
		return ErrMalformed

	default:
		return errors.Wrap(ErrUnknownEvent, msg.Type)
	}
}

// join admits sender into roomID. It returns ErrRoomFull when the room
// already holds two members; Handle turns that into the error reply.
func (c *Coordinator) join(sender ConnID, roomID string) error {
	entry := log.WithRoom(string(sender), roomID)

	if current, ok := c.registry.Lookup(sender); ok && current == roomID {
		room, _ := c.rooms.Get(roomID)
		c.transport.Send(sender, NewMessage(EventJoined, JoinedPayload{
			Room:    roomID,
			SID:     sender,
			Members: len(room.Members),
		}))
		return nil
	}

	if room, ok := c.rooms.Get(roomID); ok && room.Full() {
		c.metrics.Inc(metrics.EventJoinRejected)
		entry.Info("join rejected: room is full")
		return ErrRoomFull
	}

	// One room per connection: joining elsewhere leaves the old room first.
	if current, ok := c.registry.Lookup(sender); ok {
		entry.WithField("previous", current).Info("switching rooms")
		c.leave(sender, current)
	}

	room, created := c.rooms.GetOrCreate(roomID)
	if created {
		c.metrics.Inc(metrics.EventRoomCreated)
	}
	room.add(sender)
	c.registry.Set(sender, roomID)
	c.transport.AddToGroup(sender, roomID)
	c.metrics.Inc(metrics.EventJoin)
	entry.WithField("members", len(room.Members)).Info("joined room")

	c.transport.Send(sender, NewMessage(EventJoined, JoinedPayload{
		Room:    roomID,
		SID:     sender,
		Members: len(room.Members),
	}))

	if len(room.Members) == RoomCapacity {
		c.metrics.Inc(metrics.EventReady)
		entry.Info("room ready")
		c.transport.Broadcast(roomID, NewMessage(EventReady, ReadyPayload{}), "")
	}
	return nil
}

// Relay forwards an offer, answer or candidate to everyone in roomID except
// the sender. With fewer than two members there is simply no recipient.
func (c *Coordinator) Relay(sender ConnID, roomID, kind string, req RelayRequest) {
	var out *Message
	switch kind {
	case EventICECandidate:
		out = NewMessage(kind, CandidatePayload{Candidate: req.Candidate, Sender: sender})
	default:
		out = NewMessage(kind, SDPPayload{SDP: req.SDP, Sender: sender})
	}

	c.metrics.Inc(metrics.EventRelay)
	log.WithRoom(string(sender), roomID).Debugf("relaying %s", kind)
	c.transport.Broadcast(roomID, out, sender)
}

// Leave removes sender from roomID if it is a member there.
func (c *Coordinator) Leave(sender ConnID, roomID string) {
	current, ok := c.registry.Lookup(sender)
	if !ok || current != roomID {
		return
	}
	c.leave(sender, roomID)
}

// Disconnect removes sender from whatever room it occupies. The hub calls it
// when a socket closes; it has no wire event. A connection that never joined
// is ignored.
func (c *Coordinator) Disconnect(sender ConnID) {
	c.metrics.Inc(metrics.EventDisconnect)

	roomID, ok := c.registry.Lookup(sender)
	if !ok {
		return
	}
	c.leave(sender, roomID)
}

func (c *Coordinator) leave(sender ConnID, roomID string) {
	c.registry.Clear(sender)
	c.transport.RemoveFromGroup(sender, roomID)

	room, ok := c.rooms.Get(roomID)
	if !ok || !room.remove(sender) {
		return
	}

	c.metrics.Inc(metrics.EventLeave)
	entry := log.WithRoom(string(sender), roomID)
	entry.WithField("members", len(room.Members)).Info("left room")

	c.transport.Broadcast(roomID, NewMessage(EventUserLeft, UserLeftPayload{SID: sender}), "")

	if len(room.Members) == 0 {
		c.rooms.Delete(roomID)
		c.metrics.Inc(metrics.EventRoomDestroyed)
		entry.Info("room deleted")
	}
}

// Rooms returns a snapshot of all rooms.
func (c *Coordinator) Rooms() []RoomInfo {
	return c.rooms.Snapshot()
}

// RoomOf returns the room id currently occupies.
func (c *Coordinator) RoomOf(id ConnID) (string, bool) {
	return c.registry.Lookup(id)
}
