package orch

import (
	"github.com/dkeye/pairsignal/internal/app"
	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/dkeye/pairsignal/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the signaling router. It applies one event to the room
// table and registry and returns what has to be sent where; it never
// touches the transport itself.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomTable
	Metrics  *metrics.Metrics
}

func New(reg *app.Registry, rooms core.RoomTable, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{Registry: reg, Rooms: rooms, Metrics: m}
}

// OnConnect registers a new transport connection with no room.
func (o *Orchestrator) OnConnect(id domain.ConnectionID, sig core.SignalConnection, clientToken string) error {
	if err := o.Registry.Register(id, sig, clientToken); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("conn", string(id)).Msg("transport contract violation")
		return err
	}
	o.observe()
	return nil
}

// Handle routes one validated event from id.
func (o *Orchestrator) Handle(id domain.ConnectionID, in core.Inbound) []core.Outbound {
	if _, ok := o.Registry.Lookup(id); !ok {
		return o.fail(id, in.Type, domain.ErrUnknownConnection)
	}
	o.Metrics.Event(in.Type)

	switch in.Type {
	case core.EventCreate:
		return o.create(id, in.RoomID)
	case core.EventJoin:
		return o.join(id, in.RoomID)
	case core.EventLeave:
		return o.leave(id, in.RoomID)
	case core.EventOffer, core.EventAnswer, core.EventICECandidate:
		return o.relay(id, in)
	case core.EventPing:
		return []core.Outbound{{To: id, Type: core.EventPong}}
	default:
		// The codec only lets known types through.
		log.Warn().Str("module", "orch").Str("type", in.Type).Msg("unknown event")
		return nil
	}
}

// Reject reports an event that never reached the router (bad frame, rate
// limit) back to its sender.
func (o *Orchestrator) Reject(id domain.ConnectionID, err error) []core.Outbound {
	return o.fail(id, "", err)
}

func (o *Orchestrator) fail(id domain.ConnectionID, eventType string, err error) []core.Outbound {
	kind := domain.Kind(err)
	o.Metrics.Error(kind)

	var ev *zerolog.Event
	if domain.IsInternalFault(err) {
		ev = log.Error()
	} else {
		ev = log.Info()
	}
	ev.Err(err).Str("module", "orch").Str("conn", string(id)).Str("type", eventType).Str("kind", kind).Msg("event rejected")

	return []core.Outbound{core.ErrorEvent(id, err)}
}

func (o *Orchestrator) observe() {
	o.Metrics.SetGauges(o.Registry.Count(), o.Rooms.Len())
}
