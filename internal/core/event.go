package core

import (
	"encoding/json"

	"github.com/dkeye/pairsignal/internal/domain"
)

// Inbound event types.
const (
	EventCreate       = "create"
	EventJoin         = "join"
	EventLeave        = "leave"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
	EventPing         = "ping"
)

// Outbound-only event types.
const (
	EventRoomCreated = "room_created"
	EventRoomJoined  = "room_joined"
	EventRoomLeft    = "room_left"
	EventStartCall   = "start_call"
	EventPeerLeft    = "peer_left"
	EventError       = "error"
	EventPong        = "pong"
)

// Inbound is a validated client event.
// Payload holds the offer, answer or candidate for relay events.
type Inbound struct {
	Type    string
	RoomID  domain.RoomID
	Payload json.RawMessage
}

// IsRelay reports events forwarded verbatim to the other peer.
func (in Inbound) IsRelay() bool {
	switch in.Type {
	case EventOffer, EventAnswer, EventICECandidate:
		return true
	}
	return false
}

// Outbound is one event addressed to one connection.
type Outbound struct {
	To   domain.ConnectionID
	Type string
	// Data is either a value marshalled on encode or, for relays, the
	// sender's json.RawMessage passed through untouched.
	Data any
}

type RoomPayload struct {
	RoomID domain.RoomID `json:"room_id"`
}

type ErrorPayload struct {
	Msg  string `json:"msg"`
	Code string `json:"code"`
}

// Empty marshals to {} for events without a payload.
type Empty struct{}

func RoomEvent(to domain.ConnectionID, typ string, room domain.RoomID) Outbound {
	return Outbound{To: to, Type: typ, Data: RoomPayload{RoomID: room}}
}

func ErrorEvent(to domain.ConnectionID, err error) Outbound {
	return Outbound{To: to, Type: EventError, Data: ErrorPayload{Msg: err.Error(), Code: domain.Kind(err)}}
}
