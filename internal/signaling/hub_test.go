package signaling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duet-rtc/duet/internal/metrics"
)

func startHub(t *testing.T) (*Hub, *metrics.Metrics, context.CancelFunc) {
	t.Helper()
	m := metrics.New()
	h := NewHub(m)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return h, m, cancel
}

func fakeClient(id ConnID, buffer int) *Client {
	return &Client{ID: id, send: make(chan *Message, buffer)}
}

func next(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		require.True(t, ok, "send channel of %s closed", c.ID)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message to %s", c.ID)
		return nil
	}
}

func send(t *testing.T, h *Hub, c *Client, typ string, payload any) {
	t.Helper()
	msg := inbound(t, typ, payload)
	msg.client = c
	h.dispatch(msg)
}

func waitClosed(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("send channel of %s never closed", c.ID)
		}
	}
}

// TestHub_JoinReadyAndUnregister runs the room lifecycle through the hub goroutine.
func TestHub_JoinReadyAndUnregister(t *testing.T) {
	h, m, _ := startHub(t)
	a, b := fakeClient("A", 8), fakeClient("B", 8)
	require.True(t, h.Register(a))
	require.True(t, h.Register(b))

	send(t, h, a, EventJoin, RoomRequest{Room: "r1"})
	assert.Equal(t, EventJoined, next(t, a).Type)

	send(t, h, b, EventJoin, RoomRequest{Room: "r1"})
	assert.Equal(t, EventJoined, next(t, b).Type)
	assert.Equal(t, EventReady, next(t, b).Type)
	assert.Equal(t, EventReady, next(t, a).Type)

	stats, err := h.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Connections)
	assert.Equal(t, 1, stats.Rooms)
	assert.Equal(t, []ConnID{"A", "B"}, stats.RoomList[0].Members)

	send(t, h, a, EventOffer, map[string]any{"room": "r1", "sdp": map[string]string{"type": "offer", "sdp": "v=0"}})
	offer := next(t, b)
	assert.Equal(t, EventOffer, offer.Type)
	assert.JSONEq(t, `{"sdp":{"type":"offer","sdp":"v=0"},"sender":"A"}`, string(offer.Payload))

	h.Unregister(a)
	waitClosed(t, a)
	left := next(t, b)
	assert.Equal(t, EventUserLeft, left.Type)
	assert.JSONEq(t, `{"sid":"A"}`, string(left.Payload))

	stats, err = h.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Connections)
	assert.Equal(t, []ConnID{"B"}, stats.RoomList[0].Members)
	assert.Equal(t, uint64(2), m.Get(metrics.EventConnect))
}

// TestHub_IgnoresUnknownClients verifies events from unregistered clients are dropped.
func TestHub_IgnoresUnknownClients(t *testing.T) {
	h, _, _ := startHub(t)
	stranger := fakeClient("S", 4)

	send(t, h, stranger, EventJoin, RoomRequest{Room: "r1"})
	h.Unregister(stranger)

	stats, err := h.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Rooms)
	assert.Empty(t, stranger.send)
}

// TestHub_DropsSlowConsumer verifies a full send queue closes the connection.
func TestHub_DropsSlowConsumer(t *testing.T) {
	h, m, _ := startHub(t)
	slow := fakeClient("slow", 1)
	peer := fakeClient("peer", 8)
	require.True(t, h.Register(slow))
	require.True(t, h.Register(peer))

	// joined fills the single slot, ready overflows it.
	send(t, h, slow, EventJoin, RoomRequest{Room: "r1"})
	send(t, h, peer, EventJoin, RoomRequest{Room: "r1"})
	assert.Equal(t, EventJoined, next(t, peer).Type)
	assert.Equal(t, EventReady, next(t, peer).Type)

	assert.Equal(t, EventJoined, next(t, slow).Type)
	waitClosed(t, slow)
	assert.Equal(t, uint64(1), m.Get(metrics.EventSlowConsumer))

	// The read pump would unregister it next; membership goes with it.
	h.Unregister(slow)
	assert.Equal(t, EventUserLeft, next(t, peer).Type)
}

// TestHub_StopsOnCancel verifies requests fail once Run has returned.
func TestHub_StopsOnCancel(t *testing.T) {
	m := metrics.New()
	h := NewHub(m)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	c := fakeClient("A", 4)
	require.True(t, h.Register(c))
	cancel()
	<-stopped

	waitClosed(t, c)
	assert.False(t, h.Register(fakeClient("B", 4)))
	_, err := h.Stats(context.Background())
	assert.ErrorIs(t, err, ErrHubStopped)
}
