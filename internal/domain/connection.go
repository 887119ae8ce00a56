// Package domain contains entity without logic, just meta-data
package domain

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionID string

// Connection is one live client channel. RoomID is empty until the client
// creates or joins a room.
type Connection struct {
	ID          ConnectionID `json:"id"`
	RoomID      RoomID       `json:"room_id,omitempty"`
	ClientToken string       `json:"-"`
	ConnectedAt time.Time    `json:"connected_at"`
}

// NewConnectionID is a tiny helper so adapters don't pick their own id scheme.
func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

func NewConnection(id ConnectionID, clientToken string) *Connection {
	return &Connection{ID: id, ClientToken: clientToken, ConnectedAt: time.Now()}
}

func (c *Connection) InRoom() bool { return c.RoomID != "" }
