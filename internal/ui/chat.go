package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const maxVisibleLines = 200

// IncomingMsg carries a line from the peer into the chat program.
type IncomingMsg struct {
	Text string
	At   time.Time
}

// EndMsg stops the chat program, e.g. when the peer leaves.
type EndMsg struct {
	Reason string
}

type chatLine struct {
	at     time.Time
	from   string
	text   string
	self   bool
	system bool
}

// ChatModel is the bubbletea model of an open chat.
type ChatModel struct {
	room  string
	peer  string
	send  func(string) error
	input textinput.Model
	lines []chatLine

	height    int
	quitting  bool
	endReason string
}

// NewChatModel creates a chat model. send is called for every submitted line.
func NewChatModel(room, peer string, send func(string) error) *ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message and press enter"
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Focus()

	return &ChatModel{
		room:  room,
		peer:  peer,
		send:  send,
		input: ti,
	}
}

func (m *ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.endReason = "You left the chat"
			return m, tea.Quit

		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			if err := m.send(text); err != nil {
				m.addLine(chatLine{at: time.Now(), text: "not sent: " + err.Error(), system: true})
				return m, nil
			}
			m.addLine(chatLine{at: time.Now(), from: "You", text: text, self: true})
			return m, nil
		}

	case IncomingMsg:
		m.addLine(chatLine{at: msg.At, from: "Peer", text: msg.Text})
		return m, nil

	case EndMsg:
		m.quitting = true
		m.endReason = msg.Reason
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ChatModel) addLine(l chatLine) {
	m.lines = append(m.lines, l)
	if len(m.lines) > maxVisibleLines {
		m.lines = m.lines[len(m.lines)-maxVisibleLines:]
	}
}

func (m *ChatModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s %s  %s %s", IconChat, m.room, IconPeer, m.peer)))
	b.WriteString("\n")

	lines := m.lines
	// Header, input and footer take about six rows.
	if m.height > 6 && len(lines) > m.height-6 {
		lines = lines[len(lines)-(m.height-6):]
	}
	for _, l := range lines {
		b.WriteString(renderLine(l))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("enter to send, esc to leave"))
	return b.String()
}

func renderLine(l chatLine) string {
	ts := TimestampStyle.Render(l.at.Format("15:04"))
	if l.system {
		return fmt.Sprintf("%s %s", ts, SystemLineStyle.Render(l.text))
	}
	name := PeerNameStyle.Render(l.from)
	if l.self {
		name = SelfNameStyle.Render(l.from)
	}
	return fmt.Sprintf("%s %s: %s", ts, name, l.text)
}

// EndReason is why the chat stopped.
func (m *ChatModel) EndReason() string {
	return m.endReason
}

// ChatUI runs a ChatModel and lets other goroutines feed it.
type ChatUI struct {
	program *tea.Program
	model   *ChatModel
}

func NewChatUI(room, peer string, send func(string) error) *ChatUI {
	model := NewChatModel(room, peer, send)
	return &ChatUI{
		model:   model,
		program: tea.NewProgram(model),
	}
}

// Run blocks until the user leaves or End is called, and returns the reason.
func (c *ChatUI) Run() (string, error) {
	if _, err := c.program.Run(); err != nil {
		return "", err
	}
	return c.model.EndReason(), nil
}

// Receive shows a line from the peer.
func (c *ChatUI) Receive(text string, at time.Time) {
	c.program.Send(IncomingMsg{Text: text, At: at})
}

// End stops the program with the given reason.
func (c *ChatUI) End(reason string) {
	c.program.Send(EndMsg{Reason: reason})
}
