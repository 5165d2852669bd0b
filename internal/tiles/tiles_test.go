package tiles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWallConservesTotalTileCount(t *testing.T) {
	w := NewWall(12345, 1, true)
	require.Equal(t, DeadWallSize, len(w.dead))
	require.Equal(t, TotalTiles, w.Remaining()+DeadWallSize)
}

func TestDrawRinshanKeepsDeadWallAtFourteen(t *testing.T) {
	w := NewWall(12345, 1, true)
	before := w.Remaining()

	_, ok := w.DrawRinshan()
	require.True(t, ok)
	require.Equal(t, before-1, w.Remaining())
	require.Equal(t, 1, w.rinshanDrawn)
}

func TestDeterministicShuffleSameSeed(t *testing.T) {
	a := NewWall(999, 1, true)
	b := NewWall(999, 1, true)
	for i := 0; i < 20; i++ {
		ta, _ := a.Draw()
		tb, _ := b.Draw()
		require.Equal(t, ta, tb)
	}
}

func TestDeferredDoraReleasedInOrder(t *testing.T) {
	w := NewWall(1, 1, true)
	require.Len(t, w.DoraIndicators(), 1)
	w.DeferDoraReveal()
	released := w.ReleaseDeferredDora()
	require.Len(t, released, 1)
	require.Len(t, w.DoraIndicators(), 2)
}

func TestIsTerminalOrHonor(t *testing.T) {
	require.True(t, Tile(0).IsTerminal())     // man1
	require.False(t, Tile(16).IsTerminal())   // man5 (type34=4)
	require.True(t, Tile(4*27).IsHonor())     // east wind
	require.True(t, Tile(4*33).IsTerminalOrHonor())
}
