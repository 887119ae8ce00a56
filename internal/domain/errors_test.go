package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", ErrRoomFull, "room_full"},
		{"wrapped", fmt.Errorf("join r1: %w", ErrRoomNotFound), "room_not_found"},
		{"malformed", fmt.Errorf("%w: missing room_id", ErrMalformedEvent), "malformed_event"},
		{"unknown", errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestIsInternalFault(t *testing.T) {
	assert.True(t, IsInternalFault(ErrUnknownConnection))
	assert.True(t, IsInternalFault(fmt.Errorf("register c1: %w", ErrDuplicateConnection)))
	assert.False(t, IsInternalFault(ErrRoomFull))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "forming", PhaseForming.String())
	assert.Equal(t, "paired", PhasePaired.String())
	assert.Equal(t, "closing", PhaseClosing.String())
	assert.Equal(t, "empty", PhaseEmpty.String())
	assert.Equal(t, "unknown", Phase(42).String())

	b, err := PhasePaired.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "paired", string(b))
}
