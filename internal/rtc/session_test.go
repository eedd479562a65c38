package rtc

import (
	"encoding/json"
	"testing"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/signalclient"
)

// pipe is an in-memory relay: whatever one session sends is handed to the
// other session's HandleSignal, in order, from a separate goroutine.
type pipe struct {
	sender string
	out    chan *signalclient.Signal
	done   chan struct{}
}

func (p *pipe) Send(msgType string, payload any) error {
	req := payload.(signalclient.RelayRequest)
	sig := &signalclient.Signal{Type: msgType, Sender: p.sender}
	if req.SDP != nil {
		b, err := json.Marshal(req.SDP)
		if err != nil {
			return err
		}
		sig.SDP = b
	}
	if req.Candidate != nil {
		b, err := json.Marshal(req.Candidate)
		if err != nil {
			return err
		}
		sig.Candidate = b
	}
	select {
	case p.out <- sig:
	case <-p.done:
	}
	return nil
}

func forward(t *testing.T, in <-chan *signalclient.Signal, done <-chan struct{}, s *Session) {
	for {
		select {
		case sig := <-in:
			if err := s.HandleSignal(sig); err != nil {
				t.Errorf("handle %s: %v", sig.Type, err)
			}
		case <-done:
			return
		}
	}
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func nextLine(t *testing.T, s *Session) string {
	t.Helper()
	select {
	case m := <-s.Messages():
		return m.Text
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for chat line")
		return ""
	}
}

// TestSession_Loopback connects two sessions over host candidates.
func TestSession_Loopback(t *testing.T) {
	if testing.Short() {
		t.Skip("opens real ICE sockets")
	}

	cfg := &config.Config{}
	toB := make(chan *signalclient.Signal, 64)
	toA := make(chan *signalclient.Signal, 64)
	done := make(chan struct{})

	a, err := NewSession(cfg, &pipe{sender: "A", out: toB, done: done}, "r1")
	require.NoError(t, err)
	b, err := NewSession(cfg, &pipe{sender: "B", out: toA, done: done}, "r1")
	require.NoError(t, err)

	go forward(t, toB, done, b)
	go forward(t, toA, done, a)
	t.Cleanup(func() {
		close(done)
		a.Close()
		b.Close()
	})

	require.NoError(t, a.StartOffer())
	waitFor(t, a.Opened(), "offerer channel")
	waitFor(t, b.Opened(), "answerer channel")

	assert.Equal(t, "A", b.PeerID())
	assert.Equal(t, "B", a.PeerID())

	// Hello frames flip both sides to msgpack framing.
	require.Eventually(t, func() bool {
		return a.Framing() == MsgpackFraming && b.Framing() == MsgpackFraming
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, a.SendText("hello from a"))
	assert.Equal(t, "hello from a", nextLine(t, b))
	require.NoError(t, b.SendText("hello from b"))
	assert.Equal(t, "hello from b", nextLine(t, a))

	sent, received := a.Counts()
	assert.Equal(t, int64(1), sent)
	assert.Equal(t, int64(1), received)

	require.NoError(t, a.Close())
	waitFor(t, a.Closed(), "local close")
	assert.ErrorIs(t, a.SendText("gone"), ErrChannelClosed)
}

func TestSession_QueuesEarlyCandidates(t *testing.T) {
	s, err := NewSession(&config.Config{}, &pipe{out: make(chan *signalclient.Signal, 64)}, "r1")
	require.NoError(t, err)
	defer s.Close()

	cand := pion.ICECandidateInit{Candidate: "candidate:1 1 udp 2130706431 127.0.0.1 5000 typ host"}
	raw, err := json.Marshal(cand)
	require.NoError(t, err)

	require.NoError(t, s.HandleSignal(&signalclient.Signal{Type: signalclient.TypeICECandidate, Candidate: raw, Sender: "X"}))
	s.mu.Lock()
	assert.Len(t, s.pending, 1)
	s.mu.Unlock()
	assert.Equal(t, "X", s.PeerID())
}

func TestSession_SendBeforeOpen(t *testing.T) {
	s, err := NewSession(&config.Config{}, &pipe{out: make(chan *signalclient.Signal, 64)}, "r1")
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.SendText("too early"), ErrChannelNotOpen)
}

func TestSession_DropsLinesAfterClose(t *testing.T) {
	s, err := NewSession(&config.Config{}, &pipe{out: make(chan *signalclient.Signal, 64)}, "r1")
	require.NoError(t, err)

	s.deliver("kept", time.Now())
	require.NoError(t, s.Close())
	for i := 0; i < 100; i++ {
		s.deliver("dropped", time.Now())
	}

	_, received := s.Counts()
	assert.Equal(t, int64(1), received)
	assert.Len(t, s.messages, 1)
	assert.Equal(t, "kept", (<-s.Messages()).Text)
	assert.ErrorIs(t, s.SendText("late"), ErrChannelClosed)
}

func TestSession_RejectsWrongDescription(t *testing.T) {
	s, err := NewSession(&config.Config{}, &pipe{out: make(chan *signalclient.Signal, 64)}, "r1")
	require.NoError(t, err)
	defer s.Close()

	err = s.HandleSignal(&signalclient.Signal{Type: signalclient.TypeOffer, SDP: json.RawMessage(`{"type":"answer","sdp":"v=0"}`)})
	assert.ErrorIs(t, err, ErrUnexpectedSignal)
	err = s.HandleSignal(&signalclient.Signal{Type: "bogus"})
	assert.ErrorIs(t, err, ErrUnexpectedSignal)
}
