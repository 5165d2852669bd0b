package callproto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"riichicore/internal/hand"
	"riichicore/internal/tiles"
)

func TestRecordResponseRemovesSeatFromPending(t *testing.T) {
	p := NewPrompt(CallMeld, tiles.Tile(0), 0, []CallerDescriptor{
		{Seat: 1, Detail: ActionPon},
		{Seat: 2, Detail: ActionChi, ChiOptions: []hand.ChiOption{{A: tiles.Tile(4), B: tiles.Tile(8)}}},
	})
	require.False(t, IsComplete(p))

	next, err := RecordResponse(p, 1, ActionPass, nil)
	require.NoError(t, err)
	require.False(t, next.PendingSeats[1])
	require.True(t, next.PendingSeats[2])
	require.False(t, IsComplete(next))
	require.True(t, p.PendingSeats[1], "original prompt must be unmodified")

	final, err := RecordResponse(next, 2, ActionChi, &hand.ChiOption{A: tiles.Tile(4), B: tiles.Tile(8)})
	require.NoError(t, err)
	require.True(t, IsComplete(final))
}

func TestRecordResponseRejectsMismatchedChiTiles(t *testing.T) {
	p := NewPrompt(CallMeld, tiles.Tile(0), 0, []CallerDescriptor{
		{Seat: 2, Detail: ActionChi, ChiOptions: []hand.ChiOption{{A: tiles.Tile(4), B: tiles.Tile(8)}}},
	})
	_, err := RecordResponse(p, 2, ActionChi, &hand.ChiOption{A: tiles.Tile(12), B: tiles.Tile(16)})
	require.Error(t, err)
}

func TestRecordResponseRejectsRonOnMeldOnlyPrompt(t *testing.T) {
	p := NewPrompt(CallMeld, tiles.Tile(0), 0, []CallerDescriptor{{Seat: 1, Detail: ActionPon}})
	_, err := RecordResponse(p, 1, ActionRon, nil)
	require.Error(t, err)
}

func TestResponsePriorityOrdersKanOverPonOverChi(t *testing.T) {
	require.Greater(t, ActionOpenKan.Priority(), ActionPon.Priority())
	require.Greater(t, ActionPon.Priority(), ActionChi.Priority())
	require.Greater(t, ActionChi.Priority(), ActionPass.Priority())
}

func TestCCWDistanceWrapsAround(t *testing.T) {
	require.Equal(t, 0, CCWDistance(2, 2))
	require.Equal(t, 1, CCWDistance(2, 3))
	require.Equal(t, 3, CCWDistance(2, 1))
}
