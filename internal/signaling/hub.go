package signaling

import (
	"context"

	"github.com/pkg/errors"

	"github.com/duet-rtc/duet/internal/log"
	"github.com/duet-rtc/duet/internal/metrics"
)

// ErrHubStopped is returned by requests made after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Stats is a point-in-time view of the hub.
type Stats struct {
	Connections int        `json:"connections"`
	Rooms       int        `json:"rooms"`
	RoomList    []RoomInfo `json:"room_list"`
}

// Hub is the central brain of the signaling server.
//
// A single goroutine (Run) owns the clients, the room groups and the
// Coordinator, so every event is applied as one atomic step and all events
// touching a room are observed in one order.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	inbound    chan *Message
	stats      chan chan Stats
	done       chan struct{}

	clients     map[ConnID]*Client
	groups      map[string]map[ConnID]struct{}
	coordinator *Coordinator
	metrics     *metrics.Metrics
}

// NewHub creates a new Hub instance.
func NewHub(m *metrics.Metrics) *Hub {
	h := &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Message),
		stats:      make(chan chan Stats),
		done:       make(chan struct{}),
		clients:    make(map[ConnID]*Client),
		groups:     make(map[string]map[ConnID]struct{}),
		metrics:    m,
	}
	h.coordinator = NewCoordinator(h, m)
	return h
}

// Register hands a new client to the hub. It returns false once the hub
// has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister reports that a client's connection is gone.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) dispatch(msg *Message) {
	select {
	case h.inbound <- msg:
	case <-h.done:
	}
}

// Stats asks the hub goroutine for a snapshot.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Run starts the hub's main processing loop and blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client.ID] = client
			h.metrics.Inc(metrics.EventConnect)
			log.WithConn(string(client.ID)).WithField("remote", client.remoteAddr()).Info("client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client.ID]; !ok {
				continue
			}
			h.coordinator.Disconnect(client.ID)
			delete(h.clients, client.ID)
			h.closeSend(client)
			log.WithConn(string(client.ID)).Info("client unregistered")

		case msg := <-h.inbound:
			if _, ok := h.clients[msg.client.ID]; !ok {
				continue
			}
			h.coordinator.Handle(msg.client.ID, msg)

		case reply := <-h.stats:
			rooms := h.coordinator.Rooms()
			reply <- Stats{
				Connections: len(h.clients),
				Rooms:       len(rooms),
				RoomList:    rooms,
			}
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	for _, c := range h.clients {
		h.closeSend(c)
	}
	log.Info("hub stopped")
}

// closeSend stops the client's write pump, which closes the socket and in
// turn ends its read pump.
func (h *Hub) closeSend(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// deliver queues msg without blocking. A client whose queue is full is
// treated as dead; its read pump will unregister it.
func (h *Hub) deliver(c *Client, msg *Message) {
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.metrics.Inc(metrics.EventSlowConsumer)
		log.WithConn(string(c.ID)).Warnf("send queue full, dropping connection")
		h.closeSend(c)
	}
}

// Send implements Transport.
func (h *Hub) Send(to ConnID, msg *Message) {
	if c, ok := h.clients[to]; ok {
		h.deliver(c, msg)
	}
}

// Broadcast implements Transport.
func (h *Hub) Broadcast(room string, msg *Message, except ConnID) {
	for id := range h.groups[room] {
		if id == except {
			continue
		}
		h.Send(id, msg)
	}
}

// AddToGroup implements Transport.
func (h *Hub) AddToGroup(id ConnID, room string) {
	group, ok := h.groups[room]
	if !ok {
		group = make(map[ConnID]struct{})
		h.groups[room] = group
	}
	group[id] = struct{}{}
}

// RemoveFromGroup implements Transport.
func (h *Hub) RemoveFromGroup(id ConnID, room string) {
	group, ok := h.groups[room]
	if !ok {
		return
	}
	delete(group, id)
	if len(group) == 0 {
		delete(h.groups, room)
	}
}
