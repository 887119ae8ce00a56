package app

import (
	"fmt"
	"sync"

	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn   *domain.Connection
	Signal core.SignalConnection
}

// Registry tracks live connections and the room each one is in.
// It keeps the transport handle for lookups but never sends on it.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnectionID]*connEntry),
	}
}

func (r *Registry) Register(id domain.ConnectionID, sig core.SignalConnection, clientToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return fmt.Errorf("register %s: %w", id, domain.ErrDuplicateConnection)
	}
	r.conns[id] = &connEntry{
		Conn:   domain.NewConnection(id, clientToken),
		Signal: sig,
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("registered connection")
	return nil
}

// Unregister drops the connection and returns the room it was in, if any.
func (r *Registry) Unregister(id domain.ConnectionID) (domain.RoomID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return "", fmt.Errorf("unregister %s: %w", id, domain.ErrUnknownConnection)
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unregistered connection")
	return e.Conn.RoomID, nil
}

func (r *Registry) SetRoom(id domain.ConnectionID, roomID domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("set room %s: %w", id, domain.ErrUnknownConnection)
	}
	e.Conn.RoomID = roomID
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(roomID)).Msg("updated room")
	return nil
}

func (r *Registry) ClearRoom(id domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Conn.RoomID = ""
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("removed room association")
}

// Lookup returns a copy of the connection record.
func (r *Registry) Lookup(id domain.ConnectionID) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.Connection{}, false
	}
	return *e.Conn, true
}

func (r *Registry) RoomOf(id domain.ConnectionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Conn.RoomID == "" {
		return "", false
	}
	return e.Conn.RoomID, true
}

func (r *Registry) Signal(id domain.ConnectionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.Signal, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
