package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// SessionSummary is printed once a chat ends.
type SessionSummary struct {
	Room     string
	Peer     string
	Status   string
	Duration time.Duration
	Sent     int64
	Received int64
}

func styledTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})
}

func SessionSummaryView(summary SessionSummary) string {
	peer := summary.Peer
	if peer == "" {
		peer = "-"
	}
	rows := [][]string{
		{"Status", summary.Status},
		{"Room", summary.Room},
		{"Peer", peer},
		{"Duration", IconTime + " " + FormatDuration(summary.Duration)},
		{"Sent", fmt.Sprintf("%d", summary.Sent)},
		{"Received", fmt.Sprintf("%d", summary.Received)},
	}
	return styledTable([]string{"Metric", "Value"}, rows).Render()
}

func RenderSessionSummary(summary SessionSummary) {
	fmt.Println(SessionSummaryView(summary))
}

// FormatDuration renders d as 1h02m03s, 2m03s or 4.2s.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm%02ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}
}

// RoomInfo is shown after the relay confirms a join.
type RoomInfo struct {
	Room    string
	SID     string
	Members int
}

func (r RoomInfo) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Success).
		Padding(0, 2)

	role := "waiting for a peer"
	if r.Members > 1 {
		role = "peer already here"
	}

	content := fmt.Sprintf("%s Room:   %s\n%s You:    %s\n%s Status: %s",
		IconRoom, BoldStyle.Foreground(Primary).Render(r.Room),
		IconPeer, MutedStyle.Render(r.SID),
		IconWaiting, role,
	)

	return boxStyle.Render(content)
}
