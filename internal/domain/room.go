package domain

import "time"

type RoomID string

// MaxParticipants is the pairwise cap: a room is a 1:1 call.
const MaxParticipants = 2

// Phase is the lifecycle of a room.
//
//	Empty -> Forming -> Paired -> Closing -> (removed)
//
// Closing goes back to Paired when a new peer joins.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseForming
	PhasePaired
	PhaseClosing
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseForming:
		return "forming"
	case PhasePaired:
		return "paired"
	case PhaseClosing:
		return "closing"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type Room struct {
	ID        RoomID
	CreatedAt time.Time
}
