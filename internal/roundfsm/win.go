package roundfsm

import (
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/scoring"
)

// DeclareTsumo finalizes a self-draw win on the seat's current drawn
// tile (spec §4.1 "AwaitingDraw" available action DeclareTsumo).
func DeclareTsumo(rs RoundState, seat int) (RoundState, []events.ServiceEvent, error) {
	if rs.Phase != AwaitingDiscard || rs.CurrentSeat != seat || rs.DrawnTile == nil {
		return rs, nil, events.NewInvalidGameAction(seat, "DeclareTsumo", "no drawn tile to declare tsumo on")
	}
	next := rs.Clone()
	drawn := *next.DrawnTile
	isHaitei := next.Wall.IsExhausted()
	preDraw := withoutTile(next.Seats[seat], drawn)
	probeState := next
	probeState.Seats[seat] = preDraw
	probe := yakuProbe(probeState, seat, true, winOptions{isHaitei: isHaitei})
	if !hand.CanTsumo(preDraw, drawn, probe) {
		return rs, nil, events.NewInvalidGameAction(seat, "DeclareTsumo", "hand does not form a yaku-bearing win")
	}

	ctx := scoreWinContext(probeState, seat, drawn, true, winOptions{isHaitei: isHaitei})
	result := scoring.Score(ctx)
	deltas := scoring.SettleTsumo(result, seat, next.DealerSeat, next.Honba)
	if next.RiichiSticks > 0 {
		deltas[seat] += 1000 * next.RiichiSticks
	}
	for i := range next.Seats {
		next.Seats[i].Score += deltas[i]
	}
	next.Phase = Finished
	dealerRetained := seat == next.DealerSeat
	next.Result = &RoundResult{Kind: ResultTsumo, WinnerSeats: []int{seat}, LoserSeat: -1, Deltas: deltas, DealerRetained: dealerRetained}
	next.DrawnTile = nil

	return next, []events.ServiceEvent{{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
		Reason: resultReason(ResultTsumo, AbortNone), WinnerSeats: []int{seat}, LoserSeat: -1, PointDeltas: deltas, DealerRetained: dealerRetained,
	}}}, nil
}

// DeclareKyuushu ends the round in an abortive draw on the nine-
// terminals rule (spec §4.1 "AwaitingDraw" available action CallKyuushu).
func DeclareKyuushu(rs RoundState, seat int) (RoundState, []events.ServiceEvent, error) {
	if rs.Phase != AwaitingDiscard || rs.CurrentSeat != seat || rs.DrawnTile == nil {
		return rs, nil, events.NewInvalidGameAction(seat, "CallKyuushu", "no drawn tile to call kyuushu on")
	}
	if !hand.CanCallKyuushu(withoutTile(rs.Seats[seat], *rs.DrawnTile), *rs.DrawnTile) {
		return rs, nil, events.NewInvalidGameAction(seat, "CallKyuushu", "seat is not eligible for kyuushu kyuuhai")
	}
	next := rs.Clone()
	next.Phase = Finished
	next.Result = &RoundResult{Kind: ResultAbortiveDraw, Abortive: AbortKyuushu, LoserSeat: -1}
	return next, []events.ServiceEvent{{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
		Reason: resultReason(ResultAbortiveDraw, AbortKyuushu),
	}}}, nil
}
