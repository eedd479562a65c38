package signaling

// Registry maps a connection to the room it currently occupies.
// It is a back-reference only; the Room Table owns membership.
type Registry struct {
	rooms map[ConnID]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[ConnID]string)}
}

// Set records that id now occupies room, replacing any previous entry.
func (r *Registry) Set(id ConnID, room string) {
	r.rooms[id] = room
}

// Lookup returns the room id occupies, if any.
func (r *Registry) Lookup(id ConnID) (string, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

// Clear forgets id.
func (r *Registry) Clear(id ConnID) {
	delete(r.rooms, id)
}

// Len returns the number of connections currently in a room.
func (r *Registry) Len() int {
	return len(r.rooms)
}
