package core

import (
	"testing"

	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService_Lifecycle(t *testing.T) {
	r := NewRoomService("r1", "a")

	info := r.Info()
	assert.Equal(t, domain.RoomID("r1"), info.ID)
	assert.Equal(t, domain.PhaseForming, info.Phase)
	assert.Equal(t, 1, info.Participants)
	assert.False(t, info.CreatedAt.IsZero())

	res, err := r.Add("b")
	require.NoError(t, err)
	assert.True(t, res.Paired)
	assert.Equal(t, []domain.ConnectionID{"a"}, res.Others)
	assert.Equal(t, domain.PhasePaired, res.Room.Phase)

	_, err = r.Add("c")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	left, err := r.Remove("a")
	require.NoError(t, err)
	assert.True(t, left.Closing)
	assert.False(t, left.Removed)
	assert.Equal(t, []domain.ConnectionID{"b"}, left.Remaining)
	assert.Equal(t, domain.PhaseClosing, r.Info().Phase)

	// A new peer re-pairs a closing room.
	res, err = r.Add("c")
	require.NoError(t, err)
	assert.True(t, res.Paired)
	assert.Equal(t, []domain.ConnectionID{"b"}, res.Others)

	_, err = r.Remove("b")
	require.NoError(t, err)
	left, err = r.Remove("c")
	require.NoError(t, err)
	assert.True(t, left.Removed)
	assert.True(t, r.Empty())
	assert.Equal(t, domain.PhaseEmpty, r.Info().Phase)
}

func TestRoomService_FormingLeaveRemoves(t *testing.T) {
	r := NewRoomService("r1", "a")
	left, err := r.Remove("a")
	require.NoError(t, err)
	assert.True(t, left.Removed)
	assert.False(t, left.Closing)
	assert.Empty(t, left.Remaining)

	_, err = r.Add("b")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomService_AddErrors(t *testing.T) {
	r := NewRoomService("r1", "a")
	_, err := r.Add("a")
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	res, err := r.Add("b")
	require.NoError(t, err)
	assert.True(t, res.Paired)
}

func TestRoomService_Peers(t *testing.T) {
	r := NewRoomService("r1", "a")

	peers, err := r.Peers("a")
	require.NoError(t, err)
	assert.Empty(t, peers)

	_, err = r.Peers("x")
	assert.ErrorIs(t, err, domain.ErrNotInRoom)

	_, err = r.Add("b")
	require.NoError(t, err)

	peers, err = r.Peers("a")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectionID{"b"}, peers)

	peers, err = r.Peers("b")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConnectionID{"a"}, peers)

	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("x"))
}

func TestRoomService_RemoveUnknown(t *testing.T) {
	r := NewRoomService("r1", "a")
	_, err := r.Remove("x")
	assert.ErrorIs(t, err, domain.ErrNotInRoom)
	assert.Equal(t, 1, r.Info().Participants)
}
