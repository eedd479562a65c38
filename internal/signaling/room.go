package signaling

import (
	"slices"
	"sort"
)

// RoomCapacity is the maximum number of members a room may hold.
const RoomCapacity = 2

// Room is a two-party rendezvous point.
type Room struct {
	// ID is chosen by the clients.
	ID string

	// Members in join order. Never longer than RoomCapacity.
	Members []ConnID
}

// Full reports whether the room cannot accept another member.
func (r *Room) Full() bool {
	return len(r.Members) >= RoomCapacity
}

// Has reports whether id is a member.
func (r *Room) Has(id ConnID) bool {
	return slices.Contains(r.Members, id)
}

func (r *Room) add(id ConnID) {
	r.Members = append(r.Members, id)
}

// remove drops id and reports whether it was a member.
func (r *Room) remove(id ConnID) bool {
	i := slices.Index(r.Members, id)
	if i < 0 {
		return false
	}
	r.Members = slices.Delete(r.Members, i, i+1)
	return true
}

// RoomInfo is a read-only view of a room.
type RoomInfo struct {
	ID      string   `json:"id"`
	Members []ConnID `json:"members"`
}

// RoomTable maps room ids to rooms. Empty rooms are never kept.
type RoomTable struct {
	rooms map[string]*Room
}

// NewRoomTable creates an empty RoomTable.
func NewRoomTable() *RoomTable {
	return &RoomTable{rooms: make(map[string]*Room)}
}

// Get returns the room with the given id, if present.
func (t *RoomTable) Get(id string) (*Room, bool) {
	room, ok := t.rooms[id]
	return room, ok
}

// GetOrCreate returns the room with the given id, creating an empty one
// if needed. The second result reports whether the room was created.
// Callers must add a member before giving up control.
func (t *RoomTable) GetOrCreate(id string) (*Room, bool) {
	if room, ok := t.rooms[id]; ok {
		return room, false
	}
	room := &Room{ID: id}
	t.rooms[id] = room
	return room, true
}

// Delete removes the room with the given id.
func (t *RoomTable) Delete(id string) {
	delete(t.rooms, id)
}

// Len returns the number of rooms.
func (t *RoomTable) Len() int {
	return len(t.rooms)
}

// Snapshot returns copies of all rooms sorted by id.
func (t *RoomTable) Snapshot() []RoomInfo {
	out := make([]RoomInfo, 0, len(t.rooms))
	for _, room := range t.rooms {
		out = append(out, RoomInfo{
			ID:      room.ID,
			Members: slices.Clone(room.Members),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
