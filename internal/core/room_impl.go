package core

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room         domain.Room
	mu           sync.Mutex
	phase        domain.Phase
	participants []domain.ConnectionID
}

// NewRoomService returns a Forming room with the creator as its only participant.
func NewRoomService(id domain.RoomID, creator domain.ConnectionID) RoomService {
	return &roomImpl{
		room:         domain.Room{ID: id, CreatedAt: time.Now()},
		phase:        domain.PhaseForming,
		participants: []domain.ConnectionID{creator},
	}
}

func (r *roomImpl) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *roomImpl) infoLocked() RoomInfo {
	return RoomInfo{
		ID:           r.room.ID,
		Phase:        r.phase,
		Participants: len(r.participants),
		CreatedAt:    r.room.CreatedAt,
	}
}

func (r *roomImpl) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants) == 0
}

func (r *roomImpl) Has(conn domain.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.participants, conn)
}

func (r *roomImpl) Add(conn domain.ConnectionID) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// An emptied room is only waiting for the table to drop it.
	if r.phase == domain.PhaseEmpty {
		return JoinResult{}, domain.ErrRoomNotFound
	}
	if slices.Contains(r.participants, conn) {
		return JoinResult{}, domain.ErrAlreadyMember
	}
	if len(r.participants) >= domain.MaxParticipants {
		return JoinResult{}, domain.ErrRoomFull
	}

	others := slices.Clone(r.participants)
	r.participants = append(r.participants, conn)

	res := JoinResult{}
	if len(r.participants) == domain.MaxParticipants {
		r.phase = domain.PhasePaired
		res.Paired = true
		res.Others = others
	}
	res.Room = r.infoLocked()
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("conn", string(conn)).
		Stringer("phase", r.phase).Msg("participant added")
	return res, nil
}

func (r *roomImpl) Remove(conn domain.ConnectionID) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.Index(r.participants, conn)
	if idx < 0 {
		return LeaveResult{}, domain.ErrNotInRoom
	}
	r.participants = slices.Delete(r.participants, idx, idx+1)

	res := LeaveResult{}
	switch len(r.participants) {
	case 0:
		// Forming -> Closing on zero participants collapses to removal.
		r.phase = domain.PhaseEmpty
		res.Removed = true
	default:
		r.phase = domain.PhaseClosing
		res.Closing = true
		res.Remaining = slices.Clone(r.participants)
	}
	res.Room = r.infoLocked()
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("conn", string(conn)).
		Stringer("phase", r.phase).Msg("participant removed")
	return res, nil
}

func (r *roomImpl) Peers(excluding domain.ConnectionID) ([]domain.ConnectionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.participants, excluding) {
		return nil, domain.ErrNotInRoom
	}
	out := make([]domain.ConnectionID, 0, len(r.participants)-1)
	for _, p := range r.participants {
		if p != excluding {
			out = append(out, p)
		}
	}
	return out, nil
}
