package hand

import (
	"testing"

	"github.com/stretchr/testify/require"

	"riichicore/internal/tiles"
)

func countsFromTypes(types ...int) [tiles.DistinctTypes]int {
	var c [tiles.DistinctTypes]int
	for _, t := range types {
		c[t]++
	}
	return c
}

func TestStandardWinningShapeFourSetsAndPair(t *testing.T) {
	// 123m 456m 789m 111p 11s
	counts := countsFromTypes(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 18, 18)
	require.True(t, IsStandardWinningShape(counts, 0))
}

func TestChiitoiShape(t *testing.T) {
	counts := countsFromTypes(0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6)
	require.True(t, IsChiitoiShape(counts, 0))
	require.False(t, IsStandardWinningShape(counts, 0))
}

func TestKokushiShape(t *testing.T) {
	ts := kokushiTypes()
	counts := countsFromTypes(ts...)
	counts[ts[0]]++ // duplicate one for the pair
	require.True(t, IsKokushiShape(counts, 0))
}

func TestIsTenpaiOneAwayFromStandardHand(t *testing.T) {
	// 123m 456m 789m 111p, waiting on pair for 1s (single 1s in hand).
	s := NewSeat(0, "p0", 25000)
	for _, t34 := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 18} {
		s.Concealed = append(s.Concealed, tiles.Tile(t34*4))
	}
	require.True(t, IsTenpai(s))
	waits := WaitingTiles(s.Counts34(), 0)
	require.Contains(t, waits, 18)
}

func TestCanRonRejectsFuritenOwnDiscard(t *testing.T) {
	s := NewSeat(1, "p1", 25000)
	for _, t34 := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 18} {
		s.Concealed = append(s.Concealed, tiles.Tile(t34*4))
	}
	s.Discards = append(s.Discards, Discard{Tile: tiles.Tile(18 * 4)})
	always := func(ProbeContext) bool { return true }
	require.False(t, CanRon(s, tiles.Tile(18*4+1), always))
}

func TestCanRonAllowsWhenNotFuritenAndYakuExists(t *testing.T) {
	s := NewSeat(1, "p1", 25000)
	for _, t34 := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 18} {
		s.Concealed = append(s.Concealed, tiles.Tile(t34*4))
	}
	always := func(ProbeContext) bool { return true }
	require.True(t, CanRon(s, tiles.Tile(18*4+1), always))
	never := func(ProbeContext) bool { return false }
	require.False(t, CanRon(s, tiles.Tile(18*4+1), never))
}

func TestChiOptionsOnlyWithinSuit(t *testing.T) {
	s := NewSeat(2, "p2", 25000)
	s.Concealed = []tiles.Tile{tiles.Tile(0 * 4), tiles.Tile(1 * 4)} // man1, man2
	opts := ChiOptions(s, tiles.Tile(2*4))                          // man3
	require.Len(t, opts, 1)
}

func TestCanPonRequiresTwoMatches(t *testing.T) {
	s := NewSeat(0, "p0", 25000)
	s.Concealed = []tiles.Tile{tiles.Tile(5 * 4), tiles.Tile(5*4 + 1)}
	require.True(t, CanPon(s, tiles.Tile(5*4+2)))
	require.False(t, CanPon(s, tiles.Tile(6*4)))
}
