// Package roundfsm implements spec §4.1's round state machine as pure
// functions over an immutable RoundState: every transition takes the
// current state and an input and returns a new state plus the events
// it produced, never mutating its receiver in place (spec §9
// "Immutable state threading").
//
// Grounded on the teacher's RiichiMahjong4p engine in
// riichi_mahjong_4p_engine.go, which implements the same phase
// progression and edge cases (four-winds/four-kans/triple-ron abort,
// chankan, kuikae, dora timing) as a mutable actor looping on a
// channel; here the phase logic and edge-case handling are kept but
// re-expressed as copy-on-write functions, with the actor/mutex
// wrapper belonging one layer up in internal/orchestrator.
package roundfsm

import (
	"riichicore/internal/callproto"
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/scoring"
	"riichicore/internal/tiles"
)

// Phase is the round state machine's current state tag (spec §4.1).
type Phase int

const (
	AwaitingDraw Phase = iota
	AwaitingDiscard
	AwaitingCallResponses
	Finished
)

// RoundConfig holds the settings the machine consults at decision
// points (wall-remaining/max-kans guards, abort thresholds, minimum
// riichi points). Copied by value into every RoundState, the way the
// rest of the state is (spec §9: "the states are small... a full copy
// per transition is acceptable").
type RoundConfig struct {
	MaxKans                 int
	TripleRonAbortThreshold int
	FourKansAbortMinPlayers int
	MinRiichiPoints         int
	UseRedFives             bool
	KanDoraImmediateOnClosed bool
}

// DefaultRoundConfig matches the Open Question decisions recorded in
// DESIGN.md.
func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		MaxKans:                 4,
		TripleRonAbortThreshold: 3,
		FourKansAbortMinPlayers: 2,
		MinRiichiPoints:         1000,
		UseRedFives:             true,
		KanDoraImmediateOnClosed: true,
	}
}

// SeatDiscard is one entry in the round-wide discard history used for
// the four-winds abortive check.
type SeatDiscard struct {
	Seat int
	Tile tiles.Tile
}

// RoundState is one deal of a game: dealer/current seat, the wall,
// the four seats, the call-resolution prompt (if any), and the
// bookkeeping the abortive/furiten/kuikae rules need (spec §3
// "RoundState").
type RoundState struct {
	DealerSeat      int
	CurrentSeat     int
	RoundWind       int // 0=East 1=South 2=West 3=North
	Wall            *tiles.Wall
	Seats           [4]hand.Seat
	Phase           Phase
	Prompt          *callproto.PendingCallPrompt
	IsAfterMeldCall bool
	AllDiscards     []SeatDiscard
	OpenedHands     map[int]bool
	DrawnTile       *tiles.Tile // the current seat's undiscarded drawn tile, set only during AwaitingDiscard
	Result          *RoundResult
	Config          RoundConfig
	PendingKan      *PendingKan // set only while a chankan prompt is open
	Honba           int         // table honba sticks, owned by GameState and copied in at Deal time
	RiichiSticks    int         // table riichi sticks, owned by GameState and copied in at Deal time
}

// PendingKan records a closed- or added-kan declaration that has been
// withheld behind a chankan window (spec §4.1 "Closed-kan specifics").
type PendingKan struct {
	Seat      int
	Type34    int
	IsClosed  bool
	AddedTile tiles.Tile // the tile moved from hand onto an existing pon, for added-kan
}

// Clone deep-copies every field so transitions never alias the
// caller's state.
func (rs RoundState) Clone() RoundState {
	cp := rs
	cp.Wall = rs.Wall.Clone()
	for i := range rs.Seats {
		cp.Seats[i] = rs.Seats[i].Clone()
	}
	cp.AllDiscards = append([]SeatDiscard(nil), rs.AllDiscards...)
	cp.OpenedHands = make(map[int]bool, len(rs.OpenedHands))
	for k, v := range rs.OpenedHands {
		cp.OpenedHands[k] = v
	}
	if rs.DrawnTile != nil {
		t := *rs.DrawnTile
		cp.DrawnTile = &t
	}
	if rs.PendingKan != nil {
		pk := *rs.PendingKan
		cp.PendingKan = &pk
	}
	if rs.Prompt != nil {
		cp.Prompt = clonePrompt(rs.Prompt)
	}
	return cp
}

// ResultKind is RoundResult's tag (spec §9 "RoundResult" sum type).
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultTsumo
	ResultRon
	ResultDoubleRon
	ResultExhaustiveDraw
	ResultNagashiMangan
	ResultAbortiveDraw
)

// AbortiveReason tags which abortive draw fired.
type AbortiveReason int

const (
	AbortNone AbortiveReason = iota
	AbortFourWinds
	AbortTripleRon
	AbortFourKans
	AbortFourRiichi
	AbortKyuushu
)

// RoundResult is the closed outcome of a finished round.
type RoundResult struct {
	Kind           ResultKind
	Abortive       AbortiveReason
	WinnerSeats    []int
	LoserSeat      int // -1 on tsumo/draws
	Deltas         [4]int
	DealerRetained bool
}

// Deal builds a fresh RoundState: shuffles via wall, distributes
// thirteen tiles to every seat, and leaves the round in AwaitingDraw
// with the dealer as CurrentSeat; the caller (internal/orchestrator)
// runs ProcessDraw immediately after to fold in the dealer's opening
// fourteenth tile, matching the teacher's handleStartRoundEvent.
func Deal(wall *tiles.Wall, dealerSeat, roundWind int, seatNames [4]string, cfg RoundConfig, honba, riichiSticks int) RoundState {
	rs := RoundState{
		DealerSeat:   dealerSeat,
		CurrentSeat:  dealerSeat,
		RoundWind:    roundWind,
		Wall:         wall,
		Phase:        AwaitingDraw,
		OpenedHands:  make(map[int]bool),
		Config:       cfg,
		Honba:        honba,
		RiichiSticks: riichiSticks,
	}
	for i := 0; i < 4; i++ {
		rs.Seats[i] = hand.NewSeat(i, seatNames[i], 0)
	}
	for i := 0; i < 4; i++ {
		for n := 0; n < 13; n++ {
			t, ok := wall.Draw()
			if !ok {
				break
			}
			rs.Seats[i].Concealed = append(rs.Seats[i].Concealed, t)
		}
	}
	return rs
}

// winOptions carries the situational flags a win context needs beyond
// the bare hand shape (haitei/houtei/chankan), since they depend on
// how the transition reached the win, not on the seat or wall alone.
type winOptions struct {
	isHaitei bool
	isHoutei bool
	isChankan bool
}

// scoreWinContext adapts a RoundState + winner/winTile/tsumo flag into
// the WinContext scoring.Score/HasAnyYaku expect.
func scoreWinContext(rs RoundState, seat int, winTile tiles.Tile, isTsumo bool, opt winOptions) scoring.WinContext {
	s := rs.Seats[seat]
	return scoring.WinContext{
		Winner:            s,
		WinTile:           winTile,
		IsTsumo:           isTsumo,
		IsRiichi:          s.IsRiichi,
		IsIppatsu:         s.IsIppatsu,
		IsHaitei:          opt.isHaitei,
		IsHoutei:          opt.isHoutei,
		IsRinshan:         s.IsRinshan,
		IsChankan:         opt.isChankan,
		SeatWind:          seatWind(rs, seat),
		RoundWind:         tiles.Tile(rs.RoundWind+int(tiles.HonorStart)) * 4,
		DoraIndicators:    rs.Wall.DoraIndicators(),
		UraDoraIndicators: rs.Wall.PeekUraDoraIndicators(),
		RedFiveCount:      redFiveCount(s, winTile, rs.Config.UseRedFives),
	}
}

// seatWind returns the seat's own wind tile type34 (East=27..North=30)
// given the dealer's seat for this round.
func seatWind(rs RoundState, seat int) tiles.Tile {
	return tiles.Tile((int(tiles.HonorStart)+((seat-rs.DealerSeat+4)%4))*4)
}

func redFiveCount(s hand.Seat, winTile tiles.Tile, useRedFives bool) int {
	n := 0
	if winTile.IsRedFive(useRedFives) {
		n++
	}
	for _, t := range s.Concealed {
		if t.IsRedFive(useRedFives) {
			n++
		}
	}
	for _, m := range s.Melds {
		for _, t := range m.Tiles {
			if t.IsRedFive(useRedFives) {
				n++
			}
		}
	}
	return n
}

// withoutTile returns a copy of s with one physical copy of t removed
// from its concealed hand — used to recover the pre-draw/pre-win
// thirteen-tile view that hand.CanTsumo/CanRon/CanCallKyuushu and
// scoring.WinContext.Winner all expect (the candidate tile is always
// passed alongside the hand, never counted as already held).
func withoutTile(s hand.Seat, t tiles.Tile) hand.Seat {
	cp := s.Clone()
	cp.RemoveTile(t)
	return cp
}

// yakuProbe wires internal/scoring into the hand package's YakuProbe
// seam (see internal/hand/predicates.go).
func yakuProbe(rs RoundState, seat int, isTsumo bool, opt winOptions) hand.YakuProbe {
	return func(ctx hand.ProbeContext) bool {
		return scoring.HasAnyYaku(scoreWinContext(rs, seat, ctx.WinTile, isTsumo, opt))
	}
}
