package roundfsm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"riichicore/internal/callproto"
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/tiles"
)

func tt(type34 int) tiles.Tile { return tiles.Tile(type34 * 4) }

// baseState builds a round with every seat holding an unremarkable
// 13-tile hand (four honor pairs' worth of filler, no waits, no
// melds), ready for each test to override the seat(s) it cares about.
func baseState() RoundState {
	rs := RoundState{
		DealerSeat:  0,
		CurrentSeat: 0,
		RoundWind:   0,
		Wall:        tiles.NewWall(1, 1, true),
		Phase:       AwaitingDraw,
		OpenedHands: make(map[int]bool),
		Config:      DefaultRoundConfig(),
	}
	for i := 0; i < 4; i++ {
		s := hand.NewSeat(i, "p", 25000)
		for _, t34 := range []int{27, 27, 28, 28, 29, 29, 30, 30, 31, 31, 32, 32, 33} {
			s.Concealed = append(s.Concealed, tt(t34))
		}
		rs.Seats[i] = s
	}
	return rs
}

func TestProcessDrawFillsDrawnTileAndAdvancesPhase(t *testing.T) {
	rs := baseState()
	next, ev, action := ProcessDraw(rs)

	require.Equal(t, AwaitingDiscard, next.Phase)
	require.NotNil(t, next.DrawnTile)
	require.Len(t, next.Seats[0].Concealed, 14)
	require.Len(t, rs.Seats[0].Concealed, 13, "original state must not be mutated")
	require.Len(t, ev, 2)
	require.Equal(t, events.KindDraw, ev[0].Kind)
	require.True(t, action.Discard)
}

func TestApplyDiscardWithNoCallersAdvancesTurn(t *testing.T) {
	rs := baseState()
	rs.Phase = AwaitingDiscard
	rs.DrawnTile = new(tiles.Tile)
	*rs.DrawnTile = tt(33)
	rs.Seats[0].Concealed = append(rs.Seats[0].Concealed, tt(33))

	next, ev, err := ApplyDiscard(rs, tt(33), false)
	require.NoError(t, err)
	require.Equal(t, AwaitingDraw, next.Phase)
	require.Equal(t, 1, next.CurrentSeat)
	require.Len(t, next.Seats[0].Concealed, 13)
	require.Len(t, ev, 1)
	require.Equal(t, events.KindDiscard, ev[0].Kind)
}

func TestApplyDiscardRejectsTileNotInHand(t *testing.T) {
	rs := baseState()
	rs.Phase = AwaitingDiscard
	rs.DrawnTile = new(tiles.Tile)
	*rs.DrawnTile = tt(33)
	rs.Seats[0].Concealed = append(rs.Seats[0].Concealed, tt(33))

	_, _, err := ApplyDiscard(rs, tt(0), false)
	require.Error(t, err)
}

func TestApplyDiscardPostsPonPromptAndResolves(t *testing.T) {
	rs := baseState()
	rs.Phase = AwaitingDiscard
	rs.DrawnTile = new(tiles.Tile)
	*rs.DrawnTile = tt(0)
	rs.Seats[0].Concealed = append(rs.Seats[0].Concealed, tt(0))
	// seat 2 holds a pair of man-1 to pon the discard
	rs.Seats[2].Concealed[0] = tt(0)
	rs.Seats[2].Concealed[1] = tt(0)

	next, ev, err := ApplyDiscard(rs, tt(0), false)
	require.NoError(t, err)
	require.Equal(t, AwaitingCallResponses, next.Phase)
	require.NotNil(t, next.Prompt)
	require.True(t, next.Prompt.PendingSeats[2])
	require.Equal(t, events.KindCallPrompt, ev[len(ev)-1].Kind)

	resolved, ev2, err := ApplyCallResponse(next, 2, callproto.ActionPon, nil)
	require.NoError(t, err)
	require.Equal(t, AwaitingDiscard, resolved.Phase)
	require.Equal(t, 2, resolved.CurrentSeat)
	require.True(t, resolved.IsAfterMeldCall)
	require.Len(t, resolved.Seats[2].Melds, 1)
	require.Equal(t, hand.MeldPon, resolved.Seats[2].Melds[0].Type)
	require.True(t, resolved.OpenedHands[2])
	require.Equal(t, events.KindMeld, ev2[0].Kind)
}

func TestApplyCallResponseRejectsUnknownSeat(t *testing.T) {
	rs := baseState()
	rs.Prompt = callproto.NewPrompt(callproto.CallMeld, tt(0), 0, []callproto.CallerDescriptor{{Seat: 2, Detail: callproto.ActionPon}})
	rs.Phase = AwaitingCallResponses

	_, _, err := ApplyCallResponse(rs, 1, callproto.ActionPon, nil)
	require.Error(t, err)
}

func TestKuikaeForbidsCalledTileAfterChi(t *testing.T) {
	rs := baseState()
	rs.Phase = AwaitingDiscard
	// seat 3 discards 3m; seat 0, whose kamicha is seat 3, holds 4m5m to chi it
	rs.CurrentSeat = 3
	rs.DrawnTile = new(tiles.Tile)
	*rs.DrawnTile = tt(2)
	rs.Seats[3].Concealed = append(rs.Seats[3].Concealed, tt(2))
	rs.Seats[0].Concealed[0] = tt(3)
	rs.Seats[0].Concealed[1] = tt(4)
	rs.Seats[0].Concealed = append(rs.Seats[0].Concealed, tt(2))

	next, ev, err := ApplyDiscard(rs, tt(2), false)
	require.NoError(t, err)
	require.Equal(t, AwaitingCallResponses, next.Phase)
	require.NotEmpty(t, ev)

	resolved, _, err := ApplyCallResponse(next, 0, callproto.ActionChi, &hand.ChiOption{A: tt(3), B: tt(4)})
	require.NoError(t, err)
	require.Equal(t, AwaitingDiscard, resolved.Phase)
	require.True(t, resolved.Seats[0].ForbiddenDiscards[2])

	_, _, err = ApplyDiscard(resolved, tt(2), false)
	require.Error(t, err, "kuikae must forbid re-discarding the called tile")
}

func TestDeclareTsumoWithRiichiSettlesAndEndsRound(t *testing.T) {
	rs := baseState()
	rs.Phase = AwaitingDiscard
	rs.CurrentSeat = 0
	rs.Seats[0].IsRiichi = true
	rs.Seats[0].Concealed = []tiles.Tile{
		tt(0), tt(1), tt(2), // 123m
		tt(9), tt(10), tt(11), // 123p
		tt(18), tt(19), tt(20), // 123s
		tt(27), tt(27), tt(27), // east triplet
		tt(31), // single dragon
	}
	winTile := tt(31) // tanki wait on the single dragon, forming the pair
	rs.Seats[0].Concealed = append(rs.Seats[0].Concealed, winTile)
	rs.DrawnTile = &winTile

	next, ev, err := DeclareTsumo(rs, 0)
	require.NoError(t, err)
	require.Equal(t, Finished, next.Phase)
	require.NotNil(t, next.Result)
	require.Equal(t, ResultTsumo, next.Result.Kind)
	require.Equal(t, []int{0}, next.Result.WinnerSeats)
	require.Equal(t, events.KindRoundEnd, ev[0].Kind)
}

func TestDeclareTsumoRejectsWithoutDrawnTile(t *testing.T) {
	rs := baseState()
	rs.Phase = AwaitingDiscard
	rs.CurrentSeat = 0
	rs.DrawnTile = nil

	_, _, err := DeclareTsumo(rs, 0)
	require.Error(t, err)
}

func TestFourWindsAbortiveDraw(t *testing.T) {
	rs := baseState()
	rs.Phase = AwaitingDiscard
	rs.CurrentSeat = 0
	rs.DrawnTile = new(tiles.Tile)
	*rs.DrawnTile = tt(27)
	rs.Seats[0].Concealed = append(rs.Seats[0].Concealed, tt(27))
	rs.AllDiscards = []SeatDiscard{
		{Seat: 1, Tile: tt(27)},
		{Seat: 2, Tile: tt(27)},
		{Seat: 3, Tile: tt(27)},
	}

	next, ev, err := ApplyDiscard(rs, tt(27), false)
	require.NoError(t, err)
	require.Equal(t, Finished, next.Phase)
	require.Equal(t, ResultAbortiveDraw, next.Result.Kind)
	require.Equal(t, AbortFourWinds, next.Result.Abortive)
	last := ev[len(ev)-1]
	require.Equal(t, events.KindRoundEnd, last.Kind)
}

func TestDeclareKyuushuEndsRoundAbortive(t *testing.T) {
	rs := baseState()
	rs.Phase = AwaitingDiscard
	rs.CurrentSeat = 0
	rs.Seats[0].Concealed = []tiles.Tile{
		tt(0), tt(8), tt(9), tt(17), tt(18), tt(26),
		tt(27), tt(28), tt(29), tt(30), tt(31), tt(32),
	}
	drawn := tt(33)
	rs.Seats[0].Concealed = append(rs.Seats[0].Concealed, drawn)
	rs.DrawnTile = &drawn

	next, ev, err := DeclareKyuushu(rs, 0)
	require.NoError(t, err)
	require.Equal(t, Finished, next.Phase)
	require.Equal(t, AbortKyuushu, next.Result.Abortive)
	require.Equal(t, events.KindRoundEnd, ev[0].Kind)
}

func TestWithoutTileRemovesExactlyOneCopy(t *testing.T) {
	s := hand.NewSeat(0, "p", 0)
	s.Concealed = []tiles.Tile{tt(0), tt(0), tt(1)}
	out := withoutTile(s, tt(0))
	require.Equal(t, 2, len(out.Concealed))
	require.Equal(t, 2, s.CountType34(0), "original seat must be unaffected")
}
