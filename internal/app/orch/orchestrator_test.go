package orch

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/pairsignal/internal/app"
	"github.com/dkeye/pairsignal/internal/core"
	"github.com/dkeye/pairsignal/internal/domain"
	"github.com/dkeye/pairsignal/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSignal struct{}

func (nopSignal) TrySend(core.Frame) error { return nil }
func (nopSignal) Close()                   {}

func newTestOrchestrator(t *testing.T, conns ...domain.ConnectionID) *Orchestrator {
	t.Helper()
	o := New(app.NewRegistry(), app.NewRoomTable(), metrics.New())
	for _, c := range conns {
		require.NoError(t, o.OnConnect(c, nopSignal{}, ""))
	}
	return o
}

func ev(typ string, room domain.RoomID) core.Inbound {
	return core.Inbound{Type: typ, RoomID: room}
}

func relayEv(typ string, room domain.RoomID, payload string) core.Inbound {
	return core.Inbound{Type: typ, RoomID: room, Payload: json.RawMessage(payload)}
}

func errorCode(t *testing.T, out core.Outbound) string {
	t.Helper()
	require.Equal(t, core.EventError, out.Type)
	p, ok := out.Data.(core.ErrorPayload)
	require.True(t, ok)
	assert.NotEmpty(t, p.Msg)
	return p.Code
}

func TestCreate(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b")

	out := o.Handle("a", ev(core.EventCreate, "r1"))
	require.Len(t, out, 1)
	assert.Equal(t, core.RoomEvent("a", core.EventRoomCreated, "r1"), out[0])

	room, ok := o.Registry.RoomOf("a")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r1"), room)

	out = o.Handle("b", ev(core.EventCreate, "r1"))
	require.Len(t, out, 1)
	assert.Equal(t, domain.ConnectionID("b"), out[0].To)
	assert.Equal(t, "room_already_exists", errorCode(t, out[0]))

	_, ok = o.Registry.RoomOf("b")
	assert.False(t, ok)
	info, _ := o.Rooms.Get("r1")
	assert.Equal(t, 1, info.Participants)
}

func TestJoin_PairsAndStartsCall(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b")
	o.Handle("a", ev(core.EventCreate, "r1"))

	out := o.Handle("b", ev(core.EventJoin, "r1"))
	require.Len(t, out, 2)
	assert.Equal(t, core.RoomEvent("b", core.EventRoomJoined, "r1"), out[0])
	assert.Equal(t, core.Outbound{To: "a", Type: core.EventStartCall}, out[1])

	info, ok := o.Rooms.Get("r1")
	require.True(t, ok)
	assert.Equal(t, domain.PhasePaired, info.Phase)
	assert.Equal(t, 1.0, testutil.ToFloat64(o.Metrics.Pairings))
}

func TestJoin_NotFound(t *testing.T) {
	o := newTestOrchestrator(t, "a")

	out := o.Handle("a", ev(core.EventJoin, "nope"))
	require.Len(t, out, 1)
	assert.Equal(t, "room_not_found", errorCode(t, out[0]))
	assert.Equal(t, 0, o.Rooms.Len())
	_, ok := o.Registry.RoomOf("a")
	assert.False(t, ok)
}

func TestJoin_ThirdIsRejected(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b", "c")
	o.Handle("a", ev(core.EventCreate, "r1"))
	o.Handle("b", ev(core.EventJoin, "r1"))

	out := o.Handle("c", ev(core.EventJoin, "r1"))
	require.Len(t, out, 1)
	assert.Equal(t, domain.ConnectionID("c"), out[0].To)
	assert.Equal(t, "room_full", errorCode(t, out[0]))

	info, _ := o.Rooms.Get("r1")
	assert.Equal(t, 2, info.Participants)
	_, ok := o.Registry.RoomOf("c")
	assert.False(t, ok)
}

func TestCreateOrJoin_AlreadyInRoom(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b")
	o.Handle("a", ev(core.EventCreate, "r1"))
	o.Handle("b", ev(core.EventCreate, "r2"))

	out := o.Handle("a", ev(core.EventCreate, "r3"))
	assert.Equal(t, "already_in_room", errorCode(t, out[0]))

	out = o.Handle("a", ev(core.EventJoin, "r2"))
	assert.Equal(t, "already_in_room", errorCode(t, out[0]))

	info, _ := o.Rooms.Get("r2")
	assert.Equal(t, 1, info.Participants)
}

func TestRelay_DeliveredToPeerOnly(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b")
	o.Handle("a", ev(core.EventCreate, "r1"))
	o.Handle("b", ev(core.EventJoin, "r1"))

	for _, typ := range []string{core.EventOffer, core.EventAnswer, core.EventICECandidate} {
		t.Run(typ, func(t *testing.T) {
			payload := `{"sdp":"v=0","n":1}`
			out := o.Handle("a", relayEv(typ, "r1", payload))
			require.Len(t, out, 1)
			assert.Equal(t, domain.ConnectionID("b"), out[0].To)
			assert.Equal(t, typ, out[0].Type)
			assert.Equal(t, json.RawMessage(payload), out[0].Data)
		})
	}

	out := o.Handle("b", relayEv(core.EventAnswer, "r1", `"x"`))
	require.Len(t, out, 1)
	assert.Equal(t, domain.ConnectionID("a"), out[0].To)
}

func TestRelay_NoPeerIsDropped(t *testing.T) {
	o := newTestOrchestrator(t, "a")
	o.Handle("a", ev(core.EventCreate, "r1"))

	out := o.Handle("a", relayEv(core.EventOffer, "r1", `{}`))
	assert.Empty(t, out)
	assert.Equal(t, 1.0, testutil.ToFloat64(o.Metrics.RelayDropped.WithLabelValues(core.EventOffer)))
}

func TestRelay_NotInRoom(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b", "c")
	o.Handle("a", ev(core.EventCreate, "r1"))
	o.Handle("b", ev(core.EventJoin, "r1"))

	out := o.Handle("c", relayEv(core.EventOffer, "r1", `{}`))
	require.Len(t, out, 1)
	assert.Equal(t, domain.ConnectionID("c"), out[0].To)
	assert.Equal(t, "not_in_room", errorCode(t, out[0]))

	out = o.Handle("c", relayEv(core.EventICECandidate, "ghost", `{}`))
	require.Len(t, out, 1)
	assert.Equal(t, "not_in_room", errorCode(t, out[0]))
}

func TestDisconnect_FormingRoomIsRemoved(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b")
	o.Handle("a", ev(core.EventCreate, "r1"))

	out := o.OnDisconnect("a")
	assert.Empty(t, out)
	assert.Equal(t, 0, o.Rooms.Len())

	out = o.Handle("b", ev(core.EventJoin, "r1"))
	assert.Equal(t, "room_not_found", errorCode(t, out[0]))
}

func TestDisconnect_PairedRoomClosesThenRemoved(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b")
	o.Handle("a", ev(core.EventCreate, "r1"))
	o.Handle("b", ev(core.EventJoin, "r1"))

	out := o.OnDisconnect("a")
	require.Len(t, out, 1)
	assert.Equal(t, core.Outbound{To: "b", Type: core.EventPeerLeft}, out[0])

	info, ok := o.Rooms.Get("r1")
	require.True(t, ok)
	assert.Equal(t, domain.PhaseClosing, info.Phase)

	// Duplicate notification is a no-op.
	assert.Empty(t, o.OnDisconnect("a"))

	assert.Empty(t, o.OnDisconnect("b"))
	assert.Equal(t, 0, o.Rooms.Len())
	assert.Equal(t, 0, o.Registry.Count())
}

func TestClosingRoomAcceptsNewPeer(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b", "c")
	o.Handle("a", ev(core.EventCreate, "r1"))
	o.Handle("b", ev(core.EventJoin, "r1"))
	o.OnDisconnect("a")

	out := o.Handle("c", ev(core.EventJoin, "r1"))
	require.Len(t, out, 2)
	assert.Equal(t, core.Outbound{To: "b", Type: core.EventStartCall}, out[1])
}

func TestLeave(t *testing.T) {
	o := newTestOrchestrator(t, "a", "b")
	o.Handle("a", ev(core.EventCreate, "r1"))
	o.Handle("b", ev(core.EventJoin, "r1"))

	out := o.Handle("b", ev(core.EventLeave, "r2"))
	assert.Equal(t, "not_in_room", errorCode(t, out[0]))

	out = o.Handle("b", ev(core.EventLeave, "r1"))
	require.Len(t, out, 2)
	assert.Equal(t, core.RoomEvent("b", core.EventRoomLeft, "r1"), out[0])
	assert.Equal(t, core.Outbound{To: "a", Type: core.EventPeerLeft}, out[1])

	_, ok := o.Registry.RoomOf("b")
	assert.False(t, ok)

	// b may create a fresh room afterwards.
	out = o.Handle("b", ev(core.EventCreate, "r2"))
	assert.Equal(t, core.EventRoomCreated, out[0].Type)
}

func TestUnknownConnection(t *testing.T) {
	o := newTestOrchestrator(t)
	out := o.Handle("ghost", ev(core.EventCreate, "r1"))
	require.Len(t, out, 1)
	assert.Equal(t, "unknown_connection", errorCode(t, out[0]))
	assert.Equal(t, 0, o.Rooms.Len())
}

func TestOnConnect_Duplicate(t *testing.T) {
	o := newTestOrchestrator(t, "a")
	err := o.OnConnect("a", nopSignal{}, "")
	assert.ErrorIs(t, err, domain.ErrDuplicateConnection)
}

func TestPingAndReject(t *testing.T) {
	o := newTestOrchestrator(t, "a")
	out := o.Handle("a", core.Inbound{Type: core.EventPing})
	assert.Equal(t, []core.Outbound{{To: "a", Type: core.EventPong}}, out)

	out = o.Reject("a", fmt.Errorf("%w: missing room_id", domain.ErrMalformedEvent))
	assert.Equal(t, "malformed_event", errorCode(t, out[0]))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.Metrics.Errors.WithLabelValues("malformed_event")))
}

func TestConcurrentJoin_ExactlyOneWins(t *testing.T) {
	for i := 0; i < 50; i++ {
		o := newTestOrchestrator(t, "a", "b", "c")
		o.Handle("a", ev(core.EventCreate, "r1"))

		results := make(map[domain.ConnectionID][]core.Outbound)
		var mu sync.Mutex
		var wg sync.WaitGroup
		start := make(chan struct{})
		for _, c := range []domain.ConnectionID{"b", "c"} {
			wg.Add(1)
			go func(c domain.ConnectionID) {
				defer wg.Done()
				<-start
				out := o.Handle(c, ev(core.EventJoin, "r1"))
				mu.Lock()
				results[c] = out
				mu.Unlock()
			}(c)
		}
		close(start)
		wg.Wait()

		var joined, full int
		for _, out := range results {
			switch out[0].Type {
			case core.EventRoomJoined:
				joined++
			case core.EventError:
				if errorCode(t, out[0]) == "room_full" {
					full++
				}
			}
		}
		assert.Equal(t, 1, joined)
		assert.Equal(t, 1, full)
	}
}

func TestMembershipNeverExceedsTwo(t *testing.T) {
	o := newTestOrchestrator(t)
	var ids []domain.ConnectionID
	for i := 0; i < 10; i++ {
		id := domain.ConnectionID(fmt.Sprintf("c%d", i))
		require.NoError(t, o.OnConnect(id, nopSignal{}, ""))
		ids = append(ids, id)
	}
	o.Handle(ids[0], ev(core.EventCreate, "r1"))

	var wg sync.WaitGroup
	for _, id := range ids[1:] {
		wg.Add(1)
		go func(id domain.ConnectionID) {
			defer wg.Done()
			o.Handle(id, ev(core.EventJoin, "r1"))
		}(id)
	}
	wg.Wait()

	info, ok := o.Rooms.Get("r1")
	require.True(t, ok)
	assert.Equal(t, 2, info.Participants)

	var members int
	for _, id := range ids {
		if room, ok := o.Registry.RoomOf(id); ok && room == "r1" {
			members++
		}
	}
	assert.Equal(t, 2, members)
}
