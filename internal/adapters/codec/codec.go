// Package codec defines the wire shape of signaling events.
//
// Every frame is a JSON envelope {"type": <event>, "data": <payload>}.
// Session descriptions and candidates travel as opaque JSON values: they are
// kept as json.RawMessage and emitted byte-for-byte.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
)

// DefaultMaxRoomIDLen bounds caller-supplied room ids.
const DefaultMaxRoomIDLen = 64

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// relayField names the blob each relay event carries.
var relayField = map[string]string{
	core.EventOffer:        "offer",
	core.EventAnswer:       "answer",
	core.EventICECandidate: "candidate",
}

type Codec struct {
	MaxRoomIDLen int
}

func New(maxRoomIDLen int) *Codec {
	if maxRoomIDLen <= 0 {
		maxRoomIDLen = DefaultMaxRoomIDLen
	}
	return &Codec{MaxRoomIDLen: maxRoomIDLen}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedEvent, fmt.Sprintf(format, args...))
}

// Decode parses and validates one inbound frame. Every failure wraps
// domain.ErrMalformedEvent.
func (c *Codec) Decode(frame []byte) (core.Inbound, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return core.Inbound{}, malformed("invalid json")
	}
	if env.Type == "" {
		return core.Inbound{}, malformed("missing type")
	}

	switch env.Type {
	case core.EventPing:
		return core.Inbound{Type: core.EventPing}, nil
	case core.EventCreate, core.EventJoin, core.EventLeave:
		fields, err := c.object(env)
		if err != nil {
			return core.Inbound{}, err
		}
		room, err := c.roomID(fields)
		if err != nil {
			return core.Inbound{}, err
		}
		return core.Inbound{Type: env.Type, RoomID: room}, nil
	case core.EventOffer, core.EventAnswer, core.EventICECandidate:
		fields, err := c.object(env)
		if err != nil {
			return core.Inbound{}, err
		}
		room, err := c.roomID(fields)
		if err != nil {
			return core.Inbound{}, err
		}
		name := relayField[env.Type]
		blob, ok := fields[name]
		if !ok || isNull(blob) {
			return core.Inbound{}, malformed("missing %s", name)
		}
		return core.Inbound{Type: env.Type, RoomID: room, Payload: blob}, nil
	default:
		return core.Inbound{}, malformed("unknown event type %q", env.Type)
	}
}

func (c *Codec) object(env envelope) (map[string]json.RawMessage, error) {
	if isNull(env.Data) {
		return nil, malformed("missing data")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return nil, malformed("data must be an object")
	}
	return fields, nil
}

func (c *Codec) roomID(fields map[string]json.RawMessage) (domain.RoomID, error) {
	raw, ok := fields["room_id"]
	if !ok || isNull(raw) {
		return "", malformed("missing room_id")
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", malformed("room_id must be a string")
	}
	if id == "" {
		return "", malformed("room_id must not be empty")
	}
	if utf8.RuneCountInString(id) > c.MaxRoomIDLen {
		return "", malformed("room_id longer than %d characters", c.MaxRoomIDLen)
	}
	return domain.RoomID(id), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
