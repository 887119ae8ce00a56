package core

import (
	"time"

	"github.com/dkeye/pairsignal/internal/domain"
)

// RoomInfo is a read-only view of a room for APIs and logs.
type RoomInfo struct {
	ID           domain.RoomID `json:"id"`
	Phase        domain.Phase  `json:"phase"`
	Participants int           `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
}

// JoinResult reports what a successful join changed.
// Paired is set when the join filled the room; Others then lists the
// participants that were already present.
type JoinResult struct {
	Room   RoomInfo
	Paired bool
	Others []domain.ConnectionID
}

// LeaveResult reports what a leave changed.
// Removed: the room had no participants left and is gone.
// Closing: one participant remains (listed in Remaining) and must be told.
type LeaveResult struct {
	Room      RoomInfo
	Removed   bool
	Closing   bool
	Remaining []domain.ConnectionID
}

// RoomService is the state machine of a single room.
// It owns the membership list but never touches transport resources.
type RoomService interface {
	Info() RoomInfo
	Empty() bool
	Has(conn domain.ConnectionID) bool

	Add(conn domain.ConnectionID) (JoinResult, error)
	Remove(conn domain.ConnectionID) (LeaveResult, error)
	Peers(excluding domain.ConnectionID) ([]domain.ConnectionID, error)
}

// RoomTable owns every room, keyed by id.
type RoomTable interface {
	CreateRoom(id domain.RoomID, creator domain.ConnectionID) (RoomInfo, error)
	JoinRoom(id domain.RoomID, conn domain.ConnectionID) (JoinResult, error)
	LeaveRoom(id domain.RoomID, conn domain.ConnectionID) (LeaveResult, error)
	GetPeers(id domain.RoomID, excluding domain.ConnectionID) ([]domain.ConnectionID, error)

	Get(id domain.RoomID) (RoomInfo, bool)
	List() []RoomInfo
	Len() int
}
