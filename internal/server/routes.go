package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/log"
	"github.com/duet-rtc/duet/internal/metrics"
	"github.com/duet-rtc/duet/internal/signaling"
)

// newUpgrader builds the websocket upgrader. Unless the wildcard origin is
// configured, origins are checked against the configured list; requests
// without an Origin header (non-browser peers) are always accepted.
func newUpgrader(cfg config.ServerConfig) *websocket.Upgrader {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
	}
	if cfg.AllowsAnyOrigin() {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
		return upgrader
	}
	allowed := cfg.AllowedOrigins
	upgrader.CheckOrigin = func(r *http.Request) bool {
		return originAllowed(allowed, r.Header.Get("Origin"), r.Host)
	}
	return upgrader
}

func originAllowed(allowed []string, origin, host string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, origin) {
			return true
		}
	}
	// Same-origin pages served by the relay itself.
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, host)
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
func ServeWs(hub *signaling.Hub, upgrader *websocket.Upgrader, opts signaling.ClientOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("failed to upgrade connection from %s: %v", r.RemoteAddr, err)
			return
		}

		client := signaling.NewClient(hub, conn, opts)
		if !hub.Register(client) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		// The pumps own the connection from here on.
		go client.WritePump()
		go client.ReadPump()
	}
}

// healthHandler answers liveness probes.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Rooms       int                  `json:"rooms"`
	Connections int                  `json:"connections"`
	RoomList    []signaling.RoomInfo `json:"room_list"`
	Counters    map[string]uint64    `json:"counters"`
}

func statsHandler(hub *signaling.Hub, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := hub.Stats(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		roomList := stats.RoomList
		if roomList == nil {
			roomList = []signaling.RoomInfo{}
		}
		writeJSON(w, http.StatusOK, StatsResponse{
			Rooms:       stats.Rooms,
			Connections: stats.Connections,
			RoomList:    roomList,
			Counters:    m.Snapshot(),
		})
	}
}

// writeJSON writes a JSON response body and sets the Content-Type header.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("write response: %v", err)
	}
}
