package metrics

import "sync"

// Event names counted by the relay.
const (
	EventConnect       = "connect"
	EventDisconnect    = "disconnect"
	EventJoin          = "join"
	EventJoinRejected  = "join_rejected"
	EventLeave         = "leave"
	EventReady         = "ready"
	EventRelay         = "relay"
	EventInvalid       = "invalid_message"
	EventSlowConsumer  = "slow_consumer_dropped"
	EventRoomCreated   = "room_created"
	EventRoomDestroyed = "room_destroyed"
)

// Metrics is a concurrency-safe counter registry.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

// Inc is safe on a nil receiver so components can run without metrics.
func (m *Metrics) Inc(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
