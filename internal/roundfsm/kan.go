package roundfsm

import (
	"riichicore/internal/callproto"
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/tiles"
)

// DeclareClosedKan is the acting seat's own closed-kan declaration,
// offered as an available action once ProcessDraw has dealt the seat
// its tile (the round is then in AwaitingDiscard). Only kokushi musou
// can rob a closed kan; if any opponent is eligible, a Chankan prompt
// is posted before the kan completes (spec §4.1 "Closed-kan specifics").
func DeclareClosedKan(rs RoundState, seat, type34 int) (RoundState, []events.ServiceEvent, error) {
	next := rs.Clone()
	s := next.Seats[seat]
	totalKans := totalKanCount(next)
	if !hand.CanClosedKan(s, type34, next.Wall.CanDrawRinshan(), totalKans, next.Config.MaxKans) {
		return rs, nil, events.NewInvalidGameAction(seat, "DeclareClosedKan", "closed kan is not legal")
	}

	robbers := chankanRobbers(next, seat, type34, true)
	if len(robbers) > 0 {
		next.PendingKan = &PendingKan{Seat: seat, Type34: type34, IsClosed: true}
		next.Prompt = callproto.NewPrompt(callproto.CallChankan, tileOfType(type34), seat, robbers)
		next.Phase = AwaitingCallResponses
		return next, []events.ServiceEvent{{Kind: events.KindCallPrompt, Target: events.Broadcast(), Payload: events.CallPromptPayload{
			DiscardedTile: tileOfType(type34), FromSeat: seat, PendingSeats: seatsOf(robbers),
		}}}, nil
	}

	finalized, ev := finalizeClosedKan(next, seat, type34)
	return finalized, ev, nil
}

func finalizeClosedKan(rs RoundState, seat, type34 int) (RoundState, []events.ServiceEvent) {
	next := rs
	s := next.Seats[seat]
	kanTiles := takeNOfType(&s, type34, 4)
	meld := hand.Meld{Type: hand.MeldClosedKan, Owner: seat, Tiles: kanTiles}
	s.Melds = append(s.Melds, meld)
	next.Seats[seat] = s

	var ev []events.ServiceEvent
	ev = append(ev, events.ServiceEvent{Kind: events.KindMeld, Target: events.Broadcast(), Payload: events.MeldPayload{Seat: seat, Type: meld.Type.String(), Tiles: kanTiles}})

	if next.Config.KanDoraImmediateOnClosed {
		if ind, ok := next.Wall.RevealDoraIndicator(); ok {
			ev = append(ev, events.ServiceEvent{Kind: events.KindDoraRevealed, Target: events.Broadcast(), Payload: events.DoraRevealedPayload{Indicators: []tiles.Tile{ind}}})
		}
	} else {
		next.Wall.DeferDoraReveal()
	}

	if rinshan, ok := next.Wall.DrawRinshan(); ok {
		next.Seats[seat].Concealed = append(next.Seats[seat].Concealed, rinshan)
		next.Seats[seat].IsRinshan = true
		t := rinshan
		next.DrawnTile = &t
		ev = append(ev, events.ServiceEvent{Kind: events.KindDraw, Target: events.ToSeat(seat), Payload: events.DrawPayload{Seat: seat, Tile: rinshan, RemainingTiles: next.Wall.Remaining()}})
	}
	next.PendingKan = nil
	next.CurrentSeat = seat
	next.Phase = AwaitingDiscard

	if triggersFourKans(next) {
		next.Phase = Finished
		next.Result = &RoundResult{Kind: ResultAbortiveDraw, Abortive: AbortFourKans, LoserSeat: -1}
		ev = append(ev, events.ServiceEvent{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{Reason: resultReason(ResultAbortiveDraw, AbortFourKans)}})
	}
	return next, ev
}

// DeclareAddedKan upgrades an existing pon with the matching fourth
// tile from hand; any opponent in tenpai on that tile may chankan it
// before the kan completes (spec glossary "Chankan").
func DeclareAddedKan(rs RoundState, seat, type34 int) (RoundState, []events.ServiceEvent, error) {
	next := rs.Clone()
	s := next.Seats[seat]
	totalKans := totalKanCount(next)
	if !hand.CanAddedKan(s, type34, next.Wall.CanDrawRinshan(), totalKans, next.Config.MaxKans) {
		return rs, nil, events.NewInvalidGameAction(seat, "DeclareAddedKan", "added kan is not legal")
	}

	robbers := chankanRobbers(next, seat, type34, false)
	if len(robbers) > 0 {
		next.PendingKan = &PendingKan{Seat: seat, Type34: type34, IsClosed: false, AddedTile: tileOfType(type34)}
		next.Prompt = callproto.NewPrompt(callproto.CallChankan, tileOfType(type34), seat, robbers)
		next.Phase = AwaitingCallResponses
		return next, []events.ServiceEvent{{Kind: events.KindCallPrompt, Target: events.Broadcast(), Payload: events.CallPromptPayload{
			DiscardedTile: tileOfType(type34), FromSeat: seat, PendingSeats: seatsOf(robbers),
		}}}, nil
	}

	finalized, ev := finalizeAddedKan(next, seat, type34)
	return finalized, ev, nil
}

func finalizeAddedKan(rs RoundState, seat, type34 int) (RoundState, []events.ServiceEvent) {
	next := rs
	s := next.Seats[seat]
	added := takeNOfType(&s, type34, 1)
	for i, m := range s.Melds {
		if m.Type == hand.MeldPon && len(m.Tiles) > 0 && m.Tiles[0].Type34() == type34 {
			m.Type = hand.MeldAddedKan
			m.Tiles = append(m.Tiles, added[0])
			s.Melds[i] = m
			break
		}
	}
	next.Seats[seat] = s

	var ev []events.ServiceEvent
	ev = append(ev, events.ServiceEvent{Kind: events.KindMeld, Target: events.Broadcast(), Payload: events.MeldPayload{Seat: seat, Type: hand.MeldAddedKan.String(), Tiles: []tiles.Tile{added[0]}}})
	next.Wall.DeferDoraReveal()

	if rinshan, ok := next.Wall.DrawRinshan(); ok {
		next.Seats[seat].Concealed = append(next.Seats[seat].Concealed, rinshan)
		next.Seats[seat].IsRinshan = true
		t := rinshan
		next.DrawnTile = &t
		ev = append(ev, events.ServiceEvent{Kind: events.KindDraw, Target: events.ToSeat(seat), Payload: events.DrawPayload{Seat: seat, Tile: rinshan, RemainingTiles: next.Wall.Remaining()}})
	}
	next.PendingKan = nil
	next.CurrentSeat = seat
	next.Phase = AwaitingDiscard

	if triggersFourKans(next) {
		next.Phase = Finished
		next.Result = &RoundResult{Kind: ResultAbortiveDraw, Abortive: AbortFourKans, LoserSeat: -1}
		ev = append(ev, events.ServiceEvent{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{Reason: resultReason(ResultAbortiveDraw, AbortFourKans)}})
	}
	return next, ev
}

// chankanRobbers finds every opponent eligible to ron the tile being
// added to a pon (or, for kokushi, being locked into a closed kan).
func chankanRobbers(rs RoundState, actingSeat, type34 int, isClosedKanRob bool) []callproto.CallerDescriptor {
	tile := tileOfType(type34)
	var robbers []callproto.CallerDescriptor
	for i := 0; i < 4; i++ {
		if i == actingSeat {
			continue
		}
		probe := yakuProbe(rs, i, false, winOptions{isChankan: true})
		if hand.ChankanEligible(rs.Seats[i], tile, isClosedKanRob, probe) {
			robbers = append(robbers, callproto.CallerDescriptor{Seat: i, Detail: callproto.ActionRon})
		}
	}
	return robbers
}

func seatsOf(callers []callproto.CallerDescriptor) []int {
	out := make([]int, len(callers))
	for i, c := range callers {
		out[i] = c.Seat
	}
	return out
}

func takeNOfType(s *hand.Seat, type34, n int) []tiles.Tile {
	out := make([]tiles.Tile, 0, n)
	kept := s.Concealed[:0]
	for _, c := range s.Concealed {
		if c.Type34() == type34 && len(out) < n {
			out = append(out, c)
			continue
		}
		kept = append(kept, c)
	}
	s.Concealed = kept
	return out
}

func tileOfType(type34 int) tiles.Tile { return tiles.Tile(type34 * 4) }

// resolveChankanPrompt is invoked from calls.go when every seat has
// responded to a chankan prompt: on any ron, that ron is processed as
// a normal win with the chankan yaku available; on all-pass, the
// withheld kan is finalized.
func resolveChankanPrompt(rs RoundState, prompt *callproto.PendingCallPrompt, ronSeats []int) (RoundState, []events.ServiceEvent, error) {
	next := rs
	if len(ronSeats) > 0 {
		next.PendingKan = nil
		return resolveRon(next, prompt, ronSeats)
	}
	pk := next.PendingKan
	next.PendingKan = nil
	if pk.IsClosed {
		rs2, ev := finalizeClosedKan(next, pk.Seat, pk.Type34)
		return rs2, ev, nil
	}
	rs2, ev := finalizeAddedKan(next, pk.Seat, pk.Type34)
	return rs2, ev, nil
}
