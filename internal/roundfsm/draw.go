package roundfsm

import (
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/scoring"
	"riichicore/internal/tiles"
)

// AvailableAction is the set of options a seat may take after its
// draw. ProcessDraw returns it alongside the events; no event carries
// it, so the Draw payload holds only the drawn tile and wall count.
type AvailableAction struct {
	Discard       bool
	DeclareTsumo  bool
	CallKyuushu   bool
	ClosedKanTypes []int
	AddedKanTypes  []int
	RiichiDiscards []tiles.Tile
}

// ProcessDraw advances AwaitingDraw(seat): either the round ends in an
// exhaustive draw, or the current seat draws the head wall tile and
// the machine reports its available actions (spec §4.1 "AwaitingDraw").
// internal/orchestrator uses the returned AvailableAction only to
// drive AI seats; it is not attached to the Draw event or sent to a
// human seat's connection. It is zero-valued whenever the round ended
// instead.
func ProcessDraw(rs RoundState) (RoundState, []events.ServiceEvent, AvailableAction) {
	next := rs.Clone()
	seat := next.CurrentSeat
	next.Seats[seat].IsTemporaryFuriten = false
	next.Seats[seat].ForbiddenDiscards = make(map[int]bool)

	if next.Wall.IsExhausted() {
		fin, ev := finalizeExhaustiveDraw(next)
		return fin, ev, AvailableAction{}
	}

	drawn, ok := next.Wall.Draw()
	if !ok {
		fin, ev := finalizeExhaustiveDraw(next)
		return fin, ev, AvailableAction{}
	}
	next.Seats[seat].Concealed = append(next.Seats[seat].Concealed, drawn)
	next.DrawnTile = &drawn
	next.Phase = AwaitingDiscard

	isHaitei := next.Wall.IsExhausted()
	preDraw := withoutTile(next.Seats[seat], drawn)
	probeState := next
	probeState.Seats[seat] = preDraw
	action := AvailableAction{Discard: true}
	probe := yakuProbe(probeState, seat, true, winOptions{isHaitei: isHaitei})
	if hand.CanTsumo(preDraw, drawn, probe) {
		action.DeclareTsumo = true
	}
	if hand.CanCallKyuushu(preDraw, drawn) {
		action.CallKyuushu = true
	}
	totalKans := totalKanCount(next)
	for t := 0; t < tiles.DistinctTypes; t++ {
		if hand.CanClosedKan(next.Seats[seat], t, next.Wall.CanDrawRinshan(), totalKans, next.Config.MaxKans) {
			action.ClosedKanTypes = append(action.ClosedKanTypes, t)
		}
		if hand.CanAddedKan(next.Seats[seat], t, next.Wall.CanDrawRinshan(), totalKans, next.Config.MaxKans) {
			action.AddedKanTypes = append(action.AddedKanTypes, t)
		}
	}
	s := next.Seats[seat]
	if !s.IsRiichi && s.IsMenzen() && s.Score >= next.Config.MinRiichiPoints {
		if discards := hand.TenpaiPreservingDiscards(s); len(discards) > 0 {
			action.RiichiDiscards = discards
		}
	}

	ev := []events.ServiceEvent{
		{Kind: events.KindDraw, Target: events.ToSeat(seat), Payload: events.DrawPayload{
			Seat: seat, Tile: drawn, RemainingTiles: next.Wall.Remaining(),
		}},
		{Kind: events.KindDraw, Target: events.Broadcast(), Payload: events.DrawPayload{
			Seat: seat, RemainingTiles: next.Wall.Remaining(),
		}},
	}
	return next, ev, action
}

func totalKanCount(rs RoundState) int {
	n := 0
	for _, s := range rs.Seats {
		n += s.KanCount()
	}
	return n
}

// finalizeExhaustiveDraw computes nagashi-mangan first (it supersedes
// the ordinary tenpai/noten payment schedule), else pays tenpai seats
// from noten seats (spec §4.1 "AwaitingDraw" exhaustive branch).
func finalizeExhaustiveDraw(rs RoundState) (RoundState, []events.ServiceEvent) {
	next := rs
	var nagashiSeats []int
	for i := range next.Seats {
		if isNagashi(next.Seats, i) {
			nagashiSeats = append(nagashiSeats, i)
		}
	}

	var deltas [4]int
	dealerRetained := false
	var kind ResultKind
	if len(nagashiSeats) > 0 {
		kind = ResultNagashiMangan
		for _, seat := range nagashiSeats {
			d := scoring.SettleNagashiMangan(seat, next.DealerSeat)
			for i := range deltas {
				deltas[i] += d[i]
			}
		}
		dealerRetained = isSeatTenpai(next.Seats[next.DealerSeat])
	} else {
		kind = ResultExhaustiveDraw
		var tenpaiSeats [4]bool
		for i, s := range next.Seats {
			tenpaiSeats[i] = isSeatTenpai(s)
		}
		deltas = scoring.SettleExhaustiveDraw(tenpaiSeats)
		dealerRetained = tenpaiSeats[next.DealerSeat]
	}

	for i := range next.Seats {
		next.Seats[i].Score += deltas[i]
	}
	next.Phase = Finished
	next.Result = &RoundResult{Kind: kind, Deltas: deltas, LoserSeat: -1, DealerRetained: dealerRetained}

	ev := []events.ServiceEvent{{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
		Reason: resultReason(kind, AbortNone), PointDeltas: deltas, DealerRetained: dealerRetained,
	}}}
	return next, ev
}

// isNagashi reports the draw-time consolation condition: every
// discard by this seat was a terminal/honor and no opponent ever
// called a meld from it.
func isNagashi(seats [4]hand.Seat, seat int) bool {
	for i, other := range seats {
		if i == seat {
			continue
		}
		for _, m := range other.Melds {
			if m.HasCalled && m.FromSeat == seat {
				return false
			}
		}
	}
	s := seats[seat]
	if len(s.Discards) == 0 {
		return false
	}
	for _, d := range s.Discards {
		if !d.Tile.IsTerminalOrHonor() {
			return false
		}
	}
	return true
}

func isSeatTenpai(s hand.Seat) bool { return hand.IsTenpai(s) }

func resultReason(kind ResultKind, abort AbortiveReason) string {
	switch kind {
	case ResultTsumo:
		return "Tsumo"
	case ResultRon:
		return "Ron"
	case ResultDoubleRon:
		return "DoubleRon"
	case ResultExhaustiveDraw:
		return "ExhaustiveDraw"
	case ResultNagashiMangan:
		return "NagashiMangan"
	case ResultAbortiveDraw:
		switch abort {
		case AbortFourWinds:
			return "AbortiveDraw:FourWinds"
		case AbortTripleRon:
			return "AbortiveDraw:TripleRon"
		case AbortFourKans:
			return "AbortiveDraw:FourKans"
		case AbortFourRiichi:
			return "AbortiveDraw:FourRiichi"
		case AbortKyuushu:
			return "AbortiveDraw:Kyuushu"
		}
	}
	return "Unknown"
}
