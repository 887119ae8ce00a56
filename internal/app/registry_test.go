package app

import (
	"testing"

	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSignal struct{}

func (nopSignal) TrySend(core.Frame) error { return nil }
func (nopSignal) Close()                   {}

func TestRegistry_RegisterUnregister(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register("c1", nopSignal{}, "token"))
	assert.ErrorIs(t, reg.Register("c1", nopSignal{}, "token"), domain.ErrDuplicateConnection)
	assert.Equal(t, 1, reg.Count())

	conn, ok := reg.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "token", conn.ClientToken)
	assert.False(t, conn.InRoom())

	_, ok = reg.RoomOf("c1")
	assert.False(t, ok)

	room, err := reg.Unregister("c1")
	require.NoError(t, err)
	assert.Empty(t, room)
	assert.Equal(t, 0, reg.Count())

	_, err = reg.Unregister("c1")
	assert.ErrorIs(t, err, domain.ErrUnknownConnection)
}

func TestRegistry_SetRoom(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.SetRoom("ghost", "r1"), domain.ErrUnknownConnection)

	require.NoError(t, reg.Register("c1", nopSignal{}, ""))
	require.NoError(t, reg.SetRoom("c1", "r1"))

	room, ok := reg.RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r1"), room)

	reg.ClearRoom("c1")
	_, ok = reg.RoomOf("c1")
	assert.False(t, ok)

	require.NoError(t, reg.SetRoom("c1", "r2"))
	room, err := reg.Unregister("c1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("r2"), room)
}

func TestRegistry_Signal(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Signal("c1")
	assert.False(t, ok)

	require.NoError(t, reg.Register("c1", nopSignal{}, ""))
	sig, ok := reg.Signal("c1")
	require.True(t, ok)
	assert.NoError(t, sig.TrySend(core.Frame("x")))
}

func TestPolicyByName(t *testing.T) {
	assert.Equal(t, KickMember, PolicyByName("kick").OnBackPressure("c1", "ice-candidate"))
	assert.Equal(t, KickMember, PolicyByName("").OnBackPressure("c1", "offer"))

	lenient := PolicyByName("lenient")
	assert.Equal(t, DropFrame, lenient.OnBackPressure("c1", "ice-candidate"))
	assert.Equal(t, KickMember, lenient.OnBackPressure("c1", "peer_left"))
	assert.Equal(t, "drop", DropFrame.String())
}
