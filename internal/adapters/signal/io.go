package signal

import (
	"context"
	"time"

	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	defaultPongWait  = 60 * time.Second
	defaultWriteWait = 10 * time.Second
)

func (o Options) withDefaults() Options {
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 1
	}
	return o
}

func (ctl *SignalWSController) writePump(ctx context.Context, id domain.ConnectionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("writePump ctx done")
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump ping failed")
				return
			}
		}
	}
}

// readPump owns the connection lifetime: when it returns the connection
// leaves its room and is unregistered.
func (ctl *SignalWSController) readPump(id domain.ConnectionID, c *WsSignalConn) {
	defer func() {
		ctl.Dispatch.Deliver(ctl.Orch.OnDisconnect(id))
		ctl.Limiter.Forget(id)
		c.Close()
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("connection closed")
	}()

	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		ctl.handleFrame(id, data)
	}
}

func (ctl *SignalWSController) handleFrame(id domain.ConnectionID, data []byte) {
	in, err := ctl.Codec.Decode(data)
	if err != nil {
		ctl.Dispatch.Deliver(ctl.Orch.Reject(id, err))
		return
	}
	if (in.Type == core.EventCreate || in.Type == core.EventJoin) && !ctl.Limiter.Allow(id) {
		ctl.Dispatch.Deliver(ctl.Orch.Reject(id, domain.ErrRateLimited))
		return
	}
	ctl.Dispatch.Deliver(ctl.Orch.Handle(id, in))
}
