package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/metrics"
	"github.com/duet-rtc/duet/internal/rtc"
	"github.com/duet-rtc/duet/internal/server"
	"github.com/duet-rtc/duet/internal/signalclient"
	"github.com/duet-rtc/duet/internal/signaling"
)

func startRelay(t *testing.T) *config.Config {
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

	cfg, err := config.Load(config.Options{ServerURL: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"})
	require.NoError(t, err)
	return cfg
}

func connectTo(t *testing.T, cfg *config.Config) *ConnectionContext {
	t.Helper()
	conn, err := NewConnectionContext(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

func TestJoinRoom_FirstAndSecond(t *testing.T) {
	cfg := startRelay(t)

	first, err := joinRoom(connectTo(t, cfg), "lobby")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Members)

	second, err := joinRoom(connectTo(t, cfg), "lobby")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Members)
	assert.NotEqual(t, first.SID, second.SID)
}

func TestJoinRoom_Full(t *testing.T) {
	cfg := startRelay(t)
	for i := 0; i < 2; i++ {
		_, err := joinRoom(connectTo(t, cfg), "lobby")
		require.NoError(t, err)
	}

	_, err := joinRoom(connectTo(t, cfg), "lobby")
	require.Error(t, err)
	assert.ErrorIs(t, err, rtc.ErrSignaling)
	assert.Contains(t, err.Error(), "Room is full")
}

func TestLeaveRoom(t *testing.T) {
	cfg := startRelay(t)
	conn := connectTo(t, cfg)
	_, err := joinRoom(conn, "lobby")
	require.NoError(t, err)

	require.NoError(t, leaveRoom(conn, "lobby"))
	require.Eventually(t, func() bool {
		stats, err := fetchStats(http.DefaultClient, cfg.StatsURL())
		return err == nil && stats.Rooms == 0
	}, 2*time.Second, 20*time.Millisecond)

	conn.Close()
	assert.ErrorIs(t, leaveRoom(conn, "lobby"), signalclient.ErrClosed)
}

func TestFetchStats(t *testing.T) {
	cfg := startRelay(t)
	_, err := joinRoom(connectTo(t, cfg), "lobby")
	require.NoError(t, err)

	stats, err := fetchStats(http.DefaultClient, cfg.StatsURL())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rooms)
	require.Len(t, stats.RoomList, 1)
	assert.Equal(t, "lobby", stats.RoomList[0].ID)
	assert.Equal(t, uint64(1), stats.Counters["join"])
}

func TestFetchStats_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := fetchStats(http.DefaultClient, ts.URL+"/stats")
	assert.ErrorIs(t, err, rtc.ErrSignaling)
}
