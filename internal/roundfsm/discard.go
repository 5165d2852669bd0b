package roundfsm

import (
	"riichicore/internal/callproto"
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/tiles"
)

// ApplyDiscard advances AwaitingDiscard(seat) on Discard(tile, isRiichi)
// (spec §4.1 "AwaitingDiscard"). Returns InvalidGameAction for any
// protocol violation a well-behaved client could not produce: tile not
// in hand, a riichi flag on a discard that breaks tenpai, or a
// kuikae-forbidden tile.
func ApplyDiscard(rs RoundState, tile tiles.Tile, declareRiichi bool) (RoundState, []events.ServiceEvent, error) {
	next := rs.Clone()
	seat := next.CurrentSeat
	s := next.Seats[seat]

	if !s.HasTile(tile) {
		return rs, nil, events.NewInvalidGameAction(seat, "Discard", "tile not in hand")
	}
	if s.ForbiddenDiscards[tile.Type34()] {
		return rs, nil, events.NewInvalidGameAction(seat, "Discard", "kuikae: cannot discard the called tile or its suji partner this turn")
	}
	if declareRiichi {
		allowed := false
		for _, d := range hand.TenpaiPreservingDiscards(s) {
			if d == tile {
				allowed = true
				break
			}
		}
		afterDiscard := withoutTile(s, tile)
		if !allowed || !hand.RiichiEligible(afterDiscard, next.Config.MinRiichiPoints) {
			return rs, nil, events.NewInvalidGameAction(seat, "Discard", "riichi declaration does not preserve tenpai or is not eligible")
		}
	}

	isTsumogiri := next.DrawnTile != nil && *next.DrawnTile == tile
	s.RemoveTile(tile)
	s.Discards = append(s.Discards, hand.Discard{Tile: tile, IsTsumogiri: isTsumogiri, IsRiichiDeclaration: declareRiichi})
	s.ForbiddenDiscards = make(map[int]bool)
	next.Seats[seat] = s
	next.DrawnTile = nil
	next.AllDiscards = append(next.AllDiscards, SeatDiscard{Seat: seat, Tile: tile})

	ev := []events.ServiceEvent{{Kind: events.KindDiscard, Target: events.Broadcast(), Payload: events.DiscardPayload{
		Seat: seat, Tile: tile, IsTsumogiri: isTsumogiri, IsRiichi: declareRiichi,
	}}}

	if triggersFourWinds(next) {
		next.Phase = Finished
		next.Result = &RoundResult{Kind: ResultAbortiveDraw, Abortive: AbortFourWinds, LoserSeat: -1}
		ev = append(ev, events.ServiceEvent{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
			Reason: resultReason(ResultAbortiveDraw, AbortFourWinds),
		}})
		return next, ev, nil
	}

	isHoutei := next.Wall.IsExhausted()
	var ronCallers []int
	for i := 0; i < 4; i++ {
		if i == seat {
			continue
		}
		probe := yakuProbe(next, i, false, winOptions{isHoutei: isHoutei})
		if hand.CanRon(next.Seats[i], tile, probe) {
			ronCallers = append(ronCallers, i)
		}
	}

	for i := 0; i < 4; i++ {
		if i == seat || !next.Seats[i].IsRiichi {
			continue
		}
		if isWaitingOn(next.Seats[i], tile) && !containsSeat(ronCallers, i) {
			next.Seats[i].IsRiichiFuriten = true
		}
	}

	if len(ronCallers) >= next.Config.TripleRonAbortThreshold {
		next.Phase = Finished
		next.Result = &RoundResult{Kind: ResultAbortiveDraw, Abortive: AbortTripleRon, LoserSeat: -1}
		ev = append(ev, events.ServiceEvent{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
			Reason: resultReason(ResultAbortiveDraw, AbortTripleRon),
		}})
		return next, ev, nil
	}

	var meldCallers []callproto.CallerDescriptor
	if !next.Wall.IsExhausted() {
		kamicha := (seat + 1) % 4
		totalKans := totalKanCount(next)
		for i := 0; i < 4; i++ {
			if i == seat || containsSeat(ronCallers, i) {
				continue
			}
			if i == kamicha {
				if opts := hand.ChiOptions(next.Seats[i], tile); len(opts) > 0 {
					meldCallers = append(meldCallers, callproto.CallerDescriptor{Seat: i, Detail: callproto.ActionChi, ChiOptions: opts})
				}
			}
			if hand.CanOpenKan(next.Seats[i], tile, next.Wall.CanDrawRinshan(), totalKans, next.Config.MaxKans) {
				meldCallers = append(meldCallers, callproto.CallerDescriptor{Seat: i, Detail: callproto.ActionOpenKan})
			} else if hand.CanPon(next.Seats[i], tile) {
				meldCallers = append(meldCallers, callproto.CallerDescriptor{Seat: i, Detail: callproto.ActionPon})
			}
		}
	}

	if len(ronCallers) > 0 || len(meldCallers) > 0 {
		callers := meldCallers
		callType := callproto.CallMeld
		if len(ronCallers) > 0 {
			for _, rc := range ronCallers {
				callers = append(callers, callproto.CallerDescriptor{Seat: rc, Detail: callproto.ActionRon})
			}
			if len(meldCallers) > 0 {
				callType = callproto.CallRonOrMeld
			} else {
				callType = callproto.CallRon
			}
		}
		next.Prompt = callproto.NewPrompt(callType, tile, seat, callers)
		next.Phase = AwaitingCallResponses
		pendingSeats := make([]int, 0, len(callers))
		for s := range next.Prompt.PendingSeats {
			pendingSeats = append(pendingSeats, s)
		}
		ev = append(ev, events.ServiceEvent{Kind: events.KindCallPrompt, Target: events.Broadcast(), Payload: events.CallPromptPayload{
			DiscardedTile: tile, FromSeat: seat, PendingSeats: pendingSeats,
		}})
		return next, ev, nil
	}

	return advanceAfterNoClaim(next, declareRiichi, ev)
}

// advanceAfterNoClaim runs spec §4.1 step 7: release deferred dora,
// finalize a riichi declaration, check four-riichi, advance the turn.
func advanceAfterNoClaim(rs RoundState, wasRiichiDeclared bool, ev []events.ServiceEvent) (RoundState, []events.ServiceEvent, error) {
	next := rs
	seat := next.CurrentSeat

	if released := next.Wall.ReleaseDeferredDora(); len(released) > 0 {
		ev = append(ev, events.ServiceEvent{Kind: events.KindDoraRevealed, Target: events.Broadcast(), Payload: events.DoraRevealedPayload{Indicators: released}})
	}

	if wasRiichiDeclared {
		next.Seats[seat].Score -= 1000
		next.Seats[seat].IsRiichi = true
		next.Seats[seat].IsIppatsu = true
		ev = append(ev, events.ServiceEvent{Kind: events.KindRiichi, Target: events.Broadcast(), Payload: events.RiichiPayload{Seat: seat}})
	} else if next.Seats[seat].IsIppatsu {
		next.Seats[seat].IsIppatsu = false
	}
	for i := range next.Seats {
		if i != seat {
			next.Seats[i].IsIppatsu = false
		}
	}

	if triggersFourRiichi(next) {
		next.Phase = Finished
		next.Result = &RoundResult{Kind: ResultAbortiveDraw, Abortive: AbortFourRiichi, LoserSeat: -1}
		ev = append(ev, events.ServiceEvent{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
			Reason: resultReason(ResultAbortiveDraw, AbortFourRiichi),
		}})
		return next, ev, nil
	}

	next.CurrentSeat = (seat + 1) % 4
	next.Phase = AwaitingDraw
	next.IsAfterMeldCall = false
	return next, ev, nil
}

func isWaitingOn(s hand.Seat, tile tiles.Tile) bool {
	for _, w := range hand.WaitingTiles(s.Counts34(), len(s.Melds)) {
		if w == tile.Type34() {
			return true
		}
	}
	return false
}

func containsSeat(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}

// triggersFourWinds reports the four-winds abortive draw: each seat's
// very first discard, all the same wind tile, before any meld has
// opened a hand (spec §4.1 step 2).
func triggersFourWinds(rs RoundState) bool {
	if len(rs.AllDiscards) != 4 || len(rs.OpenedHands) != 0 {
		return false
	}
	first := rs.AllDiscards[0].Tile
	if !first.IsHonor() || first.Type34() < int(tiles.HonorStart) || first.Type34() > int(tiles.HonorStart)+3 {
		return false
	}
	for _, d := range rs.AllDiscards {
		if d.Tile.Type34() != first.Type34() {
			return false
		}
	}
	return true
}

func triggersFourRiichi(rs RoundState) bool {
	for _, s := range rs.Seats {
		if !s.IsRiichi {
			return false
		}
	}
	return true
}
