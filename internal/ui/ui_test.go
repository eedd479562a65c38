package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m *ChatModel, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestChatModel_SendLine(t *testing.T) {
	var sent []string
	m := NewChatModel("r1", "peer-1", func(s string) error {
		sent = append(sent, s)
		return nil
	})

	typeText(m, "  hello  ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"hello"}, sent)
	require.Len(t, m.lines, 1)
	assert.True(t, m.lines[0].self)
	assert.Empty(t, m.input.Value())

	// Blank lines are not sent.
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Len(t, sent, 1)
}

func TestChatModel_SendFailureShowsSystemLine(t *testing.T) {
	m := NewChatModel("r1", "p", func(string) error { return errors.New("channel not open") })
	typeText(m, "hi")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, m.lines, 1)
	assert.True(t, m.lines[0].system)
	assert.Contains(t, m.View(), "not sent: channel not open")
}

func TestChatModel_IncomingAndEnd(t *testing.T) {
	m := NewChatModel("r1", "p", func(string) error { return nil })
	m.Update(IncomingMsg{Text: "from peer", At: time.Now()})
	assert.Contains(t, m.View(), "from peer")

	_, cmd := m.Update(EndMsg{Reason: "Peer left the chat"})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, "Peer left the chat", m.EndReason())
	assert.Empty(t, m.View())
}

func TestChatModel_Escape(t *testing.T) {
	m := NewChatModel("r1", "p", func(string) error { return nil })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, "You left the chat", m.EndReason())
}

func TestChatModel_KeepsBoundedHistory(t *testing.T) {
	m := NewChatModel("r1", "p", func(string) error { return nil })
	for i := 0; i < maxVisibleLines+10; i++ {
		m.Update(IncomingMsg{Text: "x", At: time.Now()})
	}
	assert.Len(t, m.lines, maxVisibleLines)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "4.2s", FormatDuration(4200*time.Millisecond))
	assert.Equal(t, "2m03s", FormatDuration(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h02m03s", FormatDuration(time.Hour+2*time.Minute+3*time.Second))
}

func TestSessionSummaryView(t *testing.T) {
	out := SessionSummaryView(SessionSummary{Room: "r1", Status: "Peer left", Sent: 3, Received: 5})
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "Peer left")
	assert.Contains(t, out, "Received")
	assert.Contains(t, out, IconTime+" 0.0s")
}

func TestRenderRelayStats(t *testing.T) {
	var buf bytes.Buffer
	RenderRelayStats(&buf, "http://localhost:8080/stats", RelayStats{
		Rooms:       1,
		Connections: 2,
		RoomList:    []RelayRoom{{ID: "lobby", Members: []string{"a", "b"}}},
		Counters:    map[string]uint64{"join": 2, "ready": 1},
	})
	out := buf.String()
	assert.Contains(t, out, "lobby")
	assert.Contains(t, out, "2/2")
	assert.Contains(t, out, "ready")
}
