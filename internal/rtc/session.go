package rtc

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/signalclient"
	"github.com/duet-rtc/duet/internal/version"
)

// Signaler forwards session descriptions and candidates to the relay.
type Signaler interface {
	Send(msgType string, payload any) error
}

// Incoming is a chat line received from the peer.
type Incoming struct {
	Text string
	At   time.Time
}

// Session is one peer-to-peer chat over a single data channel.
type Session struct {
	pc       *pion.PeerConnection
	signaler Signaler
	room     string

	mu        sync.Mutex
	dc        *pion.DataChannel
	remoteSet bool
	pending   []pion.ICECandidateInit
	framing   Framing
	peerID    string

	opened    chan struct{}
	openOnce  sync.Once
	closed    chan struct{}
	closeOnce sync.Once
	messages  chan Incoming

	sent     atomic.Int64
	received atomic.Int64
}

// NewSession creates the peer connection and wires its callbacks. Local ICE
// candidates are trickled through signaler as they are gathered.
func NewSession(cfg *config.Config, signaler Signaler, room string) (*Session, error) {
	pc, err := NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		pc:       pc,
		signaler: signaler,
		room:     room,
		framing:  PlainFraming,
		opened:   make(chan struct{}),
		closed:   make(chan struct{}),
		messages: make(chan Incoming, 64),
	}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		err := signaler.Send(signalclient.TypeICECandidate, signalclient.RelayRequest{
			Room:      room,
			Candidate: c.ToJSON(),
		})
		if err != nil {
			slog.Warn("failed to send ICE candidate", "error", err)
		}
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		slog.Debug("peer connection state", "state", state.String())
		if state == pion.PeerConnectionStateFailed || state == pion.PeerConnectionStateClosed {
			s.markClosed()
		}
	})

	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() != ChatLabel {
			slog.Debug("ignoring data channel", "label", dc.Label())
			return
		}
		s.attach(dc)
	})

	return s, nil
}

// StartOffer opens the chat channel and sends the offer. Only the first
// member of the room calls it.
func (s *Session) StartOffer() error {
	dc, err := createChatChannel(s.pc)
	if err != nil {
		return err
	}
	s.attach(dc)

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return NewError("create offer", err)
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return NewError("set local description", err)
	}

	return s.sendDescription(signalclient.TypeOffer)
}

// HandleSignal applies a relayed offer, answer or ICE candidate.
func (s *Session) HandleSignal(sig *signalclient.Signal) error {
	s.mu.Lock()
	if sig.Sender != "" {
		s.peerID = sig.Sender
	}
	s.mu.Unlock()

	switch sig.Type {
	case signalclient.TypeOffer:
		desc, err := decodeDescription(sig.SDP, pion.SDPTypeOffer)
		if err != nil {
			return err
		}
		if err := s.setRemote(desc); err != nil {
			return err
		}
		answer, err := s.pc.CreateAnswer(nil)
		if err != nil {
			return NewError("create answer", err)
		}
		if err := s.pc.SetLocalDescription(answer); err != nil {
			return NewError("set local description", err)
		}
		return s.sendDescription(signalclient.TypeAnswer)

	case signalclient.TypeAnswer:
		desc, err := decodeDescription(sig.SDP, pion.SDPTypeAnswer)
		if err != nil {
			return err
		}
		return s.setRemote(desc)

	case signalclient.TypeICECandidate:
		return s.addCandidate(sig.Candidate)

	default:
		return WrapError("handle signal", ErrUnexpectedSignal, sig.Type)
	}
}

func decodeDescription(raw json.RawMessage, want pion.SDPType) (pion.SessionDescription, error) {
	var desc pion.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return desc, NewError("parse session description", err)
	}
	if desc.Type != want {
		return desc, WrapError("parse session description", ErrUnexpectedSignal, desc.Type.String())
	}
	return desc, nil
}

func (s *Session) sendDescription(msgType string) error {
	err := s.signaler.Send(msgType, signalclient.RelayRequest{
		Room: s.room,
		SDP:  s.pc.LocalDescription(),
	})
	if err != nil {
		return WrapError("send "+msgType, ErrSignaling, err.Error())
	}
	return nil
}

// setRemote applies the remote description and flushes candidates that
// arrived before it.
func (s *Session) setRemote(desc pion.SessionDescription) error {
	if err := s.pc.SetRemoteDescription(desc); err != nil {
		return NewError("set remote description", err)
	}

	s.mu.Lock()
	s.remoteSet = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, c := range pending {
		if err := s.pc.AddICECandidate(c); err != nil {
			slog.Warn("failed to add queued ICE candidate", "error", err)
		}
	}
	return nil
}

func (s *Session) addCandidate(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var ice pion.ICECandidateInit
	if err := json.Unmarshal(raw, &ice); err != nil {
		return NewError("parse ICE candidate", err)
	}

	s.mu.Lock()
	if !s.remoteSet {
		s.pending = append(s.pending, ice)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.pc.AddICECandidate(ice); err != nil {
		return NewError("add ICE candidate", err)
	}
	return nil
}

func (s *Session) attach(dc *pion.DataChannel) {
	s.mu.Lock()
	s.dc = dc
	s.mu.Unlock()

	dc.OnOpen(func() {
		s.sendHello(dc)
		s.openOnce.Do(func() { close(s.opened) })
	})
	dc.OnClose(s.markClosed)
	dc.OnMessage(s.onMessage)
}

func (s *Session) sendHello(dc *pion.DataChannel) {
	msg, err := NewMessage(TypeHello, HelloPayload{Client: "duet", Version: version.Version})
	if err != nil {
		return
	}
	b, err := msg.Encode()
	if err != nil {
		return
	}
	if err := dc.Send(b); err != nil {
		slog.Debug("failed to send hello", "error", err)
	}
}

func (s *Session) onMessage(msg pion.DataChannelMessage) {
	if msg.IsString {
		s.deliver(string(msg.Data), time.Now())
		return
	}

	m, err := DecodeMessage(msg.Data)
	if err != nil {
		slog.Warn("dropping undecodable frame", "error", err)
		return
	}

	switch m.Type {
	case TypeHello:
		var hello HelloPayload
		if err := m.DecodePayload(&hello); err == nil {
			slog.Debug("peer hello", "client", hello.Client, "version", hello.Version)
		}
		s.mu.Lock()
		s.framing = SelectFraming(true)
		s.mu.Unlock()

	case TypeText:
		var text TextPayload
		if err := m.DecodePayload(&text); err != nil {
			slog.Warn("dropping bad text frame", "error", err)
			return
		}
		at := time.Now()
		if text.SentAt > 0 {
			at = time.UnixMilli(text.SentAt)
		}
		s.deliver(text.Text, at)

	default:
		slog.Debug("ignoring frame", "type", m.Type)
	}
}

// deliver hands a line to Messages. Lines arriving after close are dropped
// and not counted.
func (s *Session) deliver(text string, at time.Time) {
	select {
	case <-s.closed:
		return
	default:
	}

	select {
	case s.messages <- Incoming{Text: text, At: at}:
		s.received.Add(1)
	case <-s.closed:
	}
}

// SendText writes one chat line using the framing the peer understands.
func (s *Session) SendText(text string) error {
	s.mu.Lock()
	dc, framing := s.dc, s.framing
	s.mu.Unlock()

	select {
	case <-s.closed:
		return ErrChannelClosed
	default:
	}
	if dc == nil || dc.ReadyState() != pion.DataChannelStateOpen {
		return ErrChannelNotOpen
	}

	var err error
	if framing == MsgpackFraming {
		var msg Message
		msg, err = NewMessage(TypeText, TextPayload{Text: text, SentAt: time.Now().UnixMilli()})
		if err != nil {
			return NewError("encode text", err)
		}
		var b []byte
		if b, err = msg.Encode(); err != nil {
			return NewError("encode text", err)
		}
		err = dc.Send(b)
	} else {
		err = dc.SendText(text)
	}
	if err != nil {
		return NewError("send text", err)
	}
	s.sent.Add(1)
	return nil
}

func (s *Session) markClosed() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Opened is closed once the chat channel is open.
func (s *Session) Opened() <-chan struct{} { return s.opened }

// Closed is closed when the channel or the peer connection goes away.
func (s *Session) Closed() <-chan struct{} { return s.closed }

// Messages delivers chat lines from the peer.
func (s *Session) Messages() <-chan Incoming { return s.messages }

// PeerID is the relay connection id of the other member, once known.
func (s *Session) PeerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerID
}

// Framing reports the framing currently used for outgoing lines.
func (s *Session) Framing() Framing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framing
}

// Counts returns the number of lines sent and received.
func (s *Session) Counts() (sent, received int64) {
	return s.sent.Load(), s.received.Load()
}

// Close tears down the data channel and the peer connection.
func (s *Session) Close() error {
	s.markClosed()

	s.mu.Lock()
	dc := s.dc
	s.mu.Unlock()
	if dc != nil {
		dc.Close()
	}
	if err := s.pc.Close(); err != nil {
		return NewError("close peer connection", err)
	}
	return nil
}
