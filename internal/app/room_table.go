package app

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomTableImpl maps room ids to rooms.
//
// The table lock only guards the map; membership changes take the room's own
// lock. Lock order is always table then room. A room that drops to zero
// participants is marked empty under its lock first and deleted from the map
// afterwards, so a join racing with the last leave sees either the live room
// or a room that reports ErrRoomNotFound.
type RoomTableImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRoomTable() *RoomTableImpl {
	return &RoomTableImpl{rooms: make(map[domain.RoomID]core.RoomService)}
}

var _ core.RoomTable = (*RoomTableImpl)(nil)

func (t *RoomTableImpl) lookup(id domain.RoomID) (core.RoomService, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rooms[id]
	return r, ok
}

func (t *RoomTableImpl) CreateRoom(id domain.RoomID, creator domain.ConnectionID) (core.RoomInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.rooms[id]; ok {
		if !existing.Empty() {
			return core.RoomInfo{}, fmt.Errorf("create %q: %w", id, domain.ErrRoomAlreadyExists)
		}
		log.Debug().Str("module", "app.rooms").Str("room", string(id)).Msg("replacing empty room")
	}
	room := core.NewRoomService(id, creator)
	t.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("conn", string(creator)).Msg("room created")
	return room.Info(), nil
}

func (t *RoomTableImpl) JoinRoom(id domain.RoomID, conn domain.ConnectionID) (core.JoinResult, error) {
	room, ok := t.lookup(id)
	if !ok {
		return core.JoinResult{}, fmt.Errorf("join %q: %w", id, domain.ErrRoomNotFound)
	}
	res, err := room.Add(conn)
	if err != nil {
		return core.JoinResult{}, fmt.Errorf("join %q: %w", id, err)
	}
	return res, nil
}

func (t *RoomTableImpl) LeaveRoom(id domain.RoomID, conn domain.ConnectionID) (core.LeaveResult, error) {
	room, ok := t.lookup(id)
	if !ok {
		return core.LeaveResult{}, fmt.Errorf("leave %q: %w", id, domain.ErrRoomNotFound)
	}
	res, err := room.Remove(conn)
	if err != nil {
		return core.LeaveResult{}, fmt.Errorf("leave %q: %w", id, err)
	}
	if res.Removed {
		t.mu.Lock()
		// CreateRoom may already have replaced the relic.
		if cur, ok := t.rooms[id]; ok && cur == room && cur.Empty() {
			delete(t.rooms, id)
			log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room removed")
		}
		t.mu.Unlock()
	}
	return res, nil
}

func (t *RoomTableImpl) GetPeers(id domain.RoomID, excluding domain.ConnectionID) ([]domain.ConnectionID, error) {
	room, ok := t.lookup(id)
	if !ok {
		return nil, fmt.Errorf("peers %q: %w", id, domain.ErrNotInRoom)
	}
	peers, err := room.Peers(excluding)
	if err != nil {
		return nil, fmt.Errorf("peers %q: %w", id, err)
	}
	return peers, nil
}

func (t *RoomTableImpl) Get(id domain.RoomID) (core.RoomInfo, bool) {
	room, ok := t.lookup(id)
	if !ok || room.Empty() {
		return core.RoomInfo{}, false
	}
	return room.Info(), true
}

func (t *RoomTableImpl) List() []core.RoomInfo {
	t.mu.RLock()
	out := make([]core.RoomInfo, 0, len(t.rooms))
	for _, r := range t.rooms {
		if info := r.Info(); info.Participants > 0 {
			out = append(out, info)
		}
	}
	t.mu.RUnlock()
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

func (t *RoomTableImpl) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}
