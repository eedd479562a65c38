package signaling

import "github.com/google/uuid"

// ConnID identifies one websocket connection for its whole lifetime.
// It is opaque: compare for equality, never parse or order it.
type ConnID string

// NewConnID returns a fresh random connection id.
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}
