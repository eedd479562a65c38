package signalclient

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/metrics"
	"github.com/duet-rtc/duet/internal/server"
	"github.com/duet-rtc/duet/internal/signaling"
)

func startRelay(t *testing.T) string {
	t.Helper()
	m := metrics.New()
	hub := signaling.NewHub(m)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := httptest.NewServer(server.Handler(config.DefaultServerConfig(), hub, m))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func connect(t *testing.T, url string) (*Client, *Handler) {
	t.Helper()
	c := NewClient(url)
	require.NoError(t, c.Connect(context.Background()))
	h := NewHandler(c)
	go h.Start()
	t.Cleanup(c.Close)
	return c, h
}

func receive[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for signaling message")
		var zero T
		return zero
	}
}

func TestClient_JoinReadyAndRelay(t *testing.T) {
	url := startRelay(t)
	a, ha := connect(t, url)
	b, hb := connect(t, url)

	require.NoError(t, a.Send(TypeJoin, RoomRequest{Room: "r1"}))
	joinedA := receive(t, ha.Joined)
	assert.Equal(t, 1, joinedA.Members)

	require.NoError(t, b.Send(TypeJoin, RoomRequest{Room: "r1"}))
	joinedB := receive(t, hb.Joined)
	assert.Equal(t, 2, joinedB.Members)
	receive(t, ha.Ready)
	receive(t, hb.Ready)

	sdp := map[string]string{"type": "offer", "sdp": "v=0"}
	require.NoError(t, a.Send(TypeOffer, RelayRequest{Room: "r1", SDP: sdp}))
	sig := receive(t, hb.Signal)
	assert.Equal(t, TypeOffer, sig.Type)
	assert.Equal(t, joinedA.SID, sig.Sender)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0"}`, string(sig.SDP))

	a.Close()
	left := receive(t, hb.PeerLeft)
	assert.Equal(t, joinedA.SID, left.SID)
	receive(t, ha.Closed)
	assert.ErrorIs(t, a.Send(TypeLeave, RoomRequest{Room: "r1"}), ErrClosed)
}

func TestClient_RoomFull(t *testing.T) {
	url := startRelay(t)
	for i := 0; i < 2; i++ {
		c, h := connect(t, url)
		require.NoError(t, c.Send(TypeJoin, RoomRequest{Room: "full"}))
		receive(t, h.Joined)
	}

	c, h := connect(t, url)
	require.NoError(t, c.Send(TypeJoin, RoomRequest{Room: "full"}))
	assert.Equal(t, "Room is full", receive(t, h.Error))
}

func TestClient_ConnectFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := NewClient("ws://127.0.0.1:1/ws").Connect(ctx)
	assert.Error(t, err)
}

func TestClient_SendAfterClose(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/ws")
	c.Close()

	for i := 0; i < 1000; i++ {
		require.ErrorIs(t, c.Send(TypeJoin, RoomRequest{Room: "r"}), ErrClosed, "attempt %d", i)
	}
	assert.Empty(t, c.outgoing)
}
