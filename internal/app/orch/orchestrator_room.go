package orch

import (
	"fmt"

	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) create(id domain.ConnectionID, room domain.RoomID) []core.Outbound {
	if cur, ok := o.Registry.RoomOf(id); ok {
		return o.fail(id, core.EventCreate, fmt.Errorf("create %q: %w %q", room, domain.ErrAlreadyInRoom, cur))
	}
	if _, err := o.Rooms.CreateRoom(room, id); err != nil {
		return o.fail(id, core.EventCreate, err)
	}
	if err := o.Registry.SetRoom(id, room); err != nil {
		// Disconnected mid-event; don't leave a room nobody owns.
		_, _ = o.Rooms.LeaveRoom(room, id)
		return o.fail(id, core.EventCreate, err)
	}
	o.observe()
	log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(room)).Msg("room created")
	return []core.Outbound{core.RoomEvent(id, core.EventRoomCreated, room)}
}

func (o *Orchestrator) join(id domain.ConnectionID, room domain.RoomID) []core.Outbound {
	if cur, ok := o.Registry.RoomOf(id); ok {
		return o.fail(id, core.EventJoin, fmt.Errorf("join %q: %w %q", room, domain.ErrAlreadyInRoom, cur))
	}
	res, err := o.Rooms.JoinRoom(room, id)
	if err != nil {
		return o.fail(id, core.EventJoin, err)
	}
	if err := o.Registry.SetRoom(id, room); err != nil {
		_, _ = o.Rooms.LeaveRoom(room, id)
		return o.fail(id, core.EventJoin, err)
	}
	log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(room)).Bool("paired", res.Paired).Msg("joined room")

	out := []core.Outbound{core.RoomEvent(id, core.EventRoomJoined, room)}
	if res.Paired {
		o.Metrics.Paired()
		// The participant already waiting makes the offer.
		for _, peer := range res.Others {
			out = append(out, core.Outbound{To: peer, Type: core.EventStartCall})
		}
	}
	return out
}

func (o *Orchestrator) leave(id domain.ConnectionID, room domain.RoomID) []core.Outbound {
	if cur, ok := o.Registry.RoomOf(id); !ok || cur != room {
		return o.fail(id, core.EventLeave, fmt.Errorf("leave %q: %w", room, domain.ErrNotInRoom))
	}
	res, err := o.Rooms.LeaveRoom(room, id)
	if err != nil {
		return o.fail(id, core.EventLeave, err)
	}
	o.Registry.ClearRoom(id)
	o.observe()

	out := []core.Outbound{core.RoomEvent(id, core.EventRoomLeft, room)}
	return append(out, o.peerLeft(room, res)...)
}

// OnDisconnect tears down everything the connection owned. Repeated calls
// for the same id are no-ops.
func (o *Orchestrator) OnDisconnect(id domain.ConnectionID) []core.Outbound {
	room, err := o.Registry.Unregister(id)
	if err != nil {
		log.Debug().Str("module", "orch").Str("conn", string(id)).Msg("disconnect for unknown connection ignored")
		return nil
	}
	defer o.observe()
	if room == "" {
		return nil
	}

	res, err := o.Rooms.LeaveRoom(room, id)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(id)).Str("room", string(room)).Msg("disconnect cleanup")
		return nil
	}
	log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(room)).
		Bool("removed", res.Removed).Msg("left room on disconnect")
	return o.peerLeft(room, res)
}

func (o *Orchestrator) peerLeft(room domain.RoomID, res core.LeaveResult) []core.Outbound {
	if !res.Closing {
		return nil
	}
	out := make([]core.Outbound, 0, len(res.Remaining))
	for _, peer := range res.Remaining {
		log.Info().Str("module", "orch").Str("conn", string(peer)).Str("room", string(room)).Msg("notifying peer_left")
		out = append(out, core.Outbound{To: peer, Type: core.EventPeerLeft})
	}
	return out
}
