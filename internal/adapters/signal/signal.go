package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/pairsignal/internal/adapters/codec"
	"github.com/dkeye/pairsignal/internal/app"
	"github.com/dkeye/pairsignal/internal/app/orch"
	"github.com/dkeye/pairsignal/internal/config"
	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/dkeye/pairsignal/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Options are the per-connection transport limits.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	}
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Codec    *codec.Codec
	Dispatch *Dispatcher
	Limiter  *RoomRateLimiter
	opts     Options
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config, policy app.Policy, m *metrics.Metrics) *SignalWSController {
	return &SignalWSController{
		Orch:     o,
		Codec:    codec.New(cfg.MaxRoomIDLen),
		Dispatch: NewDispatcher(o.Registry, policy, m),
		Limiter:  NewRoomRateLimiter(cfg.RateLimit.Count, cfg.RateLimit.Interval),
		opts:     OptionsFromConfig(cfg).withDefaults(),
	}
}

// WsSignalConn is the core.SignalConnection for one websocket. Only the
// write pump writes to conn.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close stops accepting frames. The write pump flushes what is queued,
// sends a close frame and closes the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	id := domain.NewConnectionID()
	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	if err := ctl.Orch.OnConnect(id, conn, token); err != nil {
		_ = ws.Close()
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("remote", c.ClientIP()).Msg("new WS connection")

	go ctl.writePump(ctx, id, conn)
	go ctl.readPump(id, conn)
}
