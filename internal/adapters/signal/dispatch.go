package signal

import (
	"errors"

	"github.com/dkeye/pairsignal/internal/adapters/codec"
	"github.com/dkeye/pairsignal/internal/app"
	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Dispatcher encodes router output and queues it on the target connections.
// It never blocks; a full queue is resolved by the backpressure policy.
type Dispatcher struct {
	Registry *app.Registry
	Policy   app.Policy
	Metrics  *metrics.Metrics
}

func NewDispatcher(reg *app.Registry, policy app.Policy, m *metrics.Metrics) *Dispatcher {
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	return &Dispatcher{Registry: reg, Policy: policy, Metrics: m}
}

func (d *Dispatcher) Deliver(out []core.Outbound) {
	for _, o := range out {
		d.deliver(o)
	}
}

func (d *Dispatcher) deliver(o core.Outbound) {
	sig, ok := d.Registry.Signal(o.To)
	if !ok {
		d.Metrics.SendDrop("gone")
		log.Debug().Str("module", "signal").Str("conn", string(o.To)).Str("type", o.Type).Msg("target gone, event dropped")
		return
	}

	frame, err := codec.Encode(o)
	if err != nil {
		d.Metrics.SendDrop("encode")
		log.Error().Err(err).Str("module", "signal").Str("conn", string(o.To)).Msg("encode failed")
		return
	}

	err = sig.TrySend(frame)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrBackpressure):
		d.Metrics.SendDrop("backpressure")
		action := d.Policy.OnBackPressure(o.To, o.Type)
		log.Warn().Str("module", "signal").Str("conn", string(o.To)).Str("type", o.Type).
			Str("action", action.String()).Msg("send queue full")
		if action == app.KickMember {
			sig.Close()
		}
	case errors.Is(err, core.ErrConnectionClosed):
		d.Metrics.SendDrop("closed")
	default:
		d.Metrics.SendDrop("error")
		log.Error().Err(err).Str("module", "signal").Str("conn", string(o.To)).Msg("send failed")
	}
}
