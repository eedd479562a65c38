package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RelayRoom is one row of the relay's room list.
type RelayRoom struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

// RelayStats mirrors the relay's /stats response.
type RelayStats struct {
	Rooms       int               `json:"rooms"`
	Connections int               `json:"connections"`
	RoomList    []RelayRoom       `json:"room_list"`
	Counters    map[string]uint64 `json:"counters"`
}

// RenderRelayStats writes the room and counter tables to w.
func RenderRelayStats(w io.Writer, server string, stats RelayStats) {
	fmt.Fprintf(w, "%s %s  %d connection(s), %d room(s)\n\n",
		TitleStyle.Render("Relay"), server, stats.Connections, stats.Rooms)

	rooms := table.NewWriter()
	rooms.SetOutputMirror(w)
	rooms.SetStyle(table.StyleRounded)
	rooms.SetTitle("Rooms")
	rooms.AppendHeader(table.Row{"Room", "Members", "Connections"})
	for _, r := range stats.RoomList {
		rooms.AppendRow(table.Row{r.ID, fmt.Sprintf("%d/2", len(r.Members)), strings.Join(r.Members, "\n")})
	}
	if len(stats.RoomList) == 0 {
		rooms.AppendRow(table.Row{"-", "0/2", "-"})
	}
	rooms.Render()

	if len(stats.Counters) == 0 {
		return
	}

	names := make([]string, 0, len(stats.Counters))
	for name := range stats.Counters {
		names = append(names, name)
	}
	sort.Strings(names)

	counters := table.NewWriter()
	counters.SetOutputMirror(w)
	counters.SetStyle(table.StyleRounded)
	counters.SetTitle("Counters")
	counters.AppendHeader(table.Row{"Event", "Count"})
	counters.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	for _, name := range names {
		counters.AppendRow(table.Row{name, stats.Counters[name]})
	}
	fmt.Fprintln(w)
	counters.Render()
}
