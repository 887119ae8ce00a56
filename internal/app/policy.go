package app

import "github.com/dkeye/pairsignal/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

func (a BackpressureAction) String() string {
	switch a {
	case KickMember:
		return "kick"
	case DropFrame:
		return "drop"
	default:
		return "none"
	}
}

// Policy decides what happens to a connection whose outbound queue is full.
type Policy interface {
	OnBackPressure(conn domain.ConnectionID, eventType string) BackpressureAction
}

// SimplePolicy kicks a client that can't keep up with signaling. Signaling
// is low volume, so a full queue means the client is stuck.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.ConnectionID, string) BackpressureAction {
	return KickMember
}

// LenientPolicy drops the event but keeps the connection, except for events
// the peer can't recover from missing.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(_ domain.ConnectionID, eventType string) BackpressureAction {
	switch eventType {
	case "start_call", "peer_left", "offer", "answer":
		return KickMember
	default:
		return DropFrame
	}
}

// PolicyByName maps the config value to a policy.
func PolicyByName(name string) Policy {
	if name == "lenient" {
		return LenientPolicy{}
	}
	return SimplePolicy{}
}
