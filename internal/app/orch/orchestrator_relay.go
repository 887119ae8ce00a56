package orch

import (
	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

// relay forwards offer/answer/ice-candidate payloads to the other participant.
// The payload is never inspected and never echoed back to the sender.
func (o *Orchestrator) relay(id domain.ConnectionID, in core.Inbound) []core.Outbound {
	peers, err := o.Rooms.GetPeers(in.RoomID, id)
	if err != nil {
		return o.fail(id, in.Type, err)
	}
	if len(peers) == 0 {
		// Expected while the room is forming or closing.
		o.Metrics.Dropped(in.Type)
		log.Debug().Str("module", "orch").Str("conn", string(id)).Str("room", string(in.RoomID)).
			Str("type", in.Type).Msg("no peer, relay dropped")
		return nil
	}

	out := make([]core.Outbound, 0, len(peers))
	for _, peer := range peers {
		out = append(out, core.Outbound{To: peer, Type: in.Type, Data: in.Payload})
	}
	log.Debug().Str("module", "orch").Str("conn", string(id)).Str("room", string(in.RoomID)).
		Str("type", in.Type).Int("peers", len(peers)).Msg("relayed")
	return out
}
