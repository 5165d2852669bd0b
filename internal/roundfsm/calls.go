package roundfsm

import (
	"riichicore/internal/callproto"
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/scoring"
	"riichicore/internal/tiles"
)

// ApplyCallResponse advances AwaitingCallResponses on one seat's
// response, recording it and, once every pending seat has answered,
// resolving the prompt under priority (spec §4.1 "AwaitingCallResponses").
func ApplyCallResponse(rs RoundState, seat int, action callproto.ResponseAction, chiChoice *hand.ChiOption) (RoundState, []events.ServiceEvent, error) {
	if rs.Prompt == nil {
		return rs, nil, events.NewInvalidGameAction(seat, "CallResponse", "no prompt is pending")
	}
	next := rs.Clone()
	prompt, err := callproto.RecordResponse(next.Prompt, seat, action, chiChoice)
	if err != nil {
		return rs, nil, err
	}
	next.Prompt = prompt

	if !callproto.IsComplete(prompt) {
		return next, nil, nil
	}
	return resolvePrompt(next)
}

// clonePrompt copies the prompt fields ApplyCallResponse mutates so
// the caller's original RoundState.Prompt is never aliased.
func clonePrompt(p *callproto.PendingCallPrompt) *callproto.PendingCallPrompt {
	cp := *p
	cp.PendingSeats = make(map[int]bool, len(p.PendingSeats))
	for k, v := range p.PendingSeats {
		cp.PendingSeats[k] = v
	}
	cp.Callers = append([]callproto.CallerDescriptor(nil), p.Callers...)
	cp.Responses = append([]callproto.Response(nil), p.Responses...)
	return &cp
}

// resolvePrompt applies spec §4.1's priority table once every pending
// seat has answered: ron (single/double/triple) beats any meld; kan
// beats pon beats chi.
func resolvePrompt(rs RoundState) (RoundState, []events.ServiceEvent, error) {
	next := rs
	prompt := next.Prompt
	next.Prompt = nil

	var ronSeats []int
	for _, r := range prompt.Responses {
		if r.Action == callproto.ActionRon {
			ronSeats = append(ronSeats, r.Seat)
		}
	}
	if prompt.CallType == callproto.CallChankan {
		orderCCW(ronSeats, prompt.FromSeat)
		return resolveChankanPrompt(next, prompt, ronSeats)
	}
	if len(ronSeats) > 0 {
		orderCCW(ronSeats, prompt.FromSeat)
		return resolveRon(next, prompt, ronSeats)
	}

	var best *callproto.Response
	for i := range prompt.Responses {
		r := &prompt.Responses[i]
		if r.Action == callproto.ActionPass {
			continue
		}
		if best == nil || r.Action.Priority() > best.Action.Priority() {
			best = r
		}
	}
	if best == nil {
		return resolveAllPass(next, prompt)
	}
	return resolveMeld(next, prompt, *best)
}

func orderCCW(seats []int, from int) {
	for i := 1; i < len(seats); i++ {
		for j := i; j > 0 && callproto.CCWDistance(from, seats[j]) < callproto.CCWDistance(from, seats[j-1]); j-- {
			seats[j], seats[j-1] = seats[j-1], seats[j]
		}
	}
}

func resolveRon(rs RoundState, prompt *callproto.PendingCallPrompt, ronSeats []int) (RoundState, []events.ServiceEvent, error) {
	next := rs
	isHoutei := next.Wall.IsExhausted()
	isChankan := prompt.CallType == callproto.CallChankan

	if len(ronSeats) >= next.Config.TripleRonAbortThreshold {
		next.Phase = Finished
		next.Result = &RoundResult{Kind: ResultAbortiveDraw, Abortive: AbortTripleRon, LoserSeat: -1}
		return next, []events.ServiceEvent{{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
			Reason: resultReason(ResultAbortiveDraw, AbortTripleRon),
		}}}, nil
	}

	results := make([]scoring.Result, len(ronSeats))
	for i, seat := range ronSeats {
		ctx := scoreWinContext(next, seat, prompt.DiscardedTile, false, winOptions{isHoutei: isHoutei, isChankan: isChankan})
		results[i] = scoring.Score(ctx)
	}

	var deltas [4]int
	kind := ResultRon
	if len(ronSeats) == 1 {
		d := scoring.SettleRon(results[0], ronSeats[0], prompt.FromSeat, next.DealerSeat, next.Honba, next.RiichiSticks)
		deltas = d
	} else {
		kind = ResultDoubleRon
		d := scoring.SettleDoubleRon([2]scoring.Result{results[0], results[1]}, [2]int{ronSeats[0], ronSeats[1]}, prompt.FromSeat, next.DealerSeat, next.Honba, next.RiichiSticks)
		deltas = d
	}

	for i := range next.Seats {
		next.Seats[i].Score += deltas[i]
	}
	next.Phase = Finished
	dealerRetained := containsSeat(ronSeats, next.DealerSeat)
	next.Result = &RoundResult{Kind: kind, WinnerSeats: ronSeats, LoserSeat: prompt.FromSeat, Deltas: deltas, DealerRetained: dealerRetained}

	return next, []events.ServiceEvent{{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
		Reason: resultReason(kind, AbortNone), WinnerSeats: ronSeats, LoserSeat: prompt.FromSeat, PointDeltas: deltas, DealerRetained: dealerRetained,
	}}}, nil
}

// resolveMeld applies the winning meld response: pon/chi/open-kan
// claims the discard and the claiming seat enters AwaitingDiscard,
// unless an open kan completes a four-kans abortive draw, which
// finishes the round instead.
func resolveMeld(rs RoundState, prompt *callproto.PendingCallPrompt, resp callproto.Response) (RoundState, []events.ServiceEvent, error) {
	next := rs
	seat := resp.Seat
	tile := prompt.DiscardedTile
	var ev []events.ServiceEvent

	s := next.Seats[seat]
	var meld hand.Meld
	switch resp.Action {
	case callproto.ActionChi:
		s.RemoveTile(resp.ChiChoice.A)
		s.RemoveTile(resp.ChiChoice.B)
		meld = hand.Meld{Type: hand.MeldChi, Owner: seat, Tiles: sortedTiles(resp.ChiChoice.A, resp.ChiChoice.B, tile), CalledTile: tile, FromSeat: prompt.FromSeat, HasCalled: true}
		applyKuikaeForbid(&s, resp.ChiChoice.A, resp.ChiChoice.B, tile)
	case callproto.ActionPon:
		t34 := tile.Type34()
		removeTwoOfType(&s, t34)
		meld = hand.Meld{Type: hand.MeldPon, Owner: seat, Tiles: []tiles.Tile{tile, tile, tile}, CalledTile: tile, FromSeat: prompt.FromSeat, HasCalled: true}
		s.ForbiddenDiscards[t34] = true
	case callproto.ActionOpenKan:
		t34 := tile.Type34()
		removeNOfType(&s, t34, 3)
		meld = hand.Meld{Type: hand.MeldOpenKan, Owner: seat, Tiles: []tiles.Tile{tile, tile, tile, tile}, CalledTile: tile, FromSeat: prompt.FromSeat, HasCalled: true}
		next.Wall.DeferDoraReveal()
	}
	s.Melds = append(s.Melds, meld)
	s.HasOpenedHand = true
	s.IsIppatsu = false
	next.Seats[seat] = s
	next.OpenedHands[seat] = true
	for i := range next.Seats {
		if i != seat {
			next.Seats[i].IsIppatsu = false
		}
	}

	ev = append(ev, events.ServiceEvent{Kind: events.KindMeld, Target: events.Broadcast(), Payload: events.MeldPayload{
		Seat: seat, Type: meld.Type.String(), Tiles: meld.Tiles, CalledTile: tile, FromSeat: prompt.FromSeat,
	}})

	if resp.Action == callproto.ActionOpenKan {
		rinshan, ok := next.Wall.DrawRinshan()
		if ok {
			next.Seats[seat].Concealed = append(next.Seats[seat].Concealed, rinshan)
			next.Seats[seat].IsRinshan = true
			t := rinshan
			next.DrawnTile = &t
			ev = append(ev, events.ServiceEvent{Kind: events.KindDraw, Target: events.ToSeat(seat), Payload: events.DrawPayload{
				Seat: seat, Tile: rinshan, RemainingTiles: next.Wall.Remaining(),
			}})
		}
		if triggersFourKans(next) {
			next.Phase = Finished
			next.Result = &RoundResult{Kind: ResultAbortiveDraw, Abortive: AbortFourKans, LoserSeat: -1}
			ev = append(ev, events.ServiceEvent{Kind: events.KindRoundEnd, Target: events.Broadcast(), Payload: events.RoundEndPayload{
				Reason: resultReason(ResultAbortiveDraw, AbortFourKans),
			}})
			return next, ev, nil
		}
	}

	next.CurrentSeat = seat
	next.Phase = AwaitingDiscard
	next.IsAfterMeldCall = true
	return next, ev, nil
}

func sortedTiles(a, b, c tiles.Tile) []tiles.Tile {
	ts := []tiles.Tile{a, b, c}
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && ts[j] < ts[j-1]; j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
	return ts
}

func removeTwoOfType(s *hand.Seat, type34 int) {
	removeNOfType(s, type34, 2)
}

func removeNOfType(s *hand.Seat, type34, n int) {
	removed := 0
	kept := s.Concealed[:0]
	for _, c := range s.Concealed {
		if c.Type34() == type34 && removed < n {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.Concealed = kept
}

// applyKuikaeForbid marks the called tile's type, and for a chi that
// calls an end of the run, the suji tile beyond the run's far end
// (when that rank exists in the same suit), as forbidden for this
// seat's immediate discard (spec §4.2 "Kuikae").
func applyKuikaeForbid(s *hand.Seat, a, b, called tiles.Tile) {
	s.ForbiddenDiscards[called.Type34()] = true
	lo, hi := a.Type34(), b.Type34()
	if lo > hi {
		lo, hi = hi, lo
	}
	c := called.Type34()
	switch {
	case c == lo-1 && c%9 <= 5: // called the low end: a,b = c+1,c+2 -> suji is c+3
		s.ForbiddenDiscards[c+3] = true
	case c == hi+1 && c%9 >= 3: // called the high end: a,b = c-2,c-1 -> suji is c-3
		s.ForbiddenDiscards[c-3] = true
	}
}

func triggersFourKans(rs RoundState) bool {
	total := totalKanCount(rs)
	if total != 4 {
		return false
	}
	holders := 0
	for _, s := range rs.Seats {
		if s.KanCount() > 0 {
			holders++
		}
	}
	return holders >= rs.Config.FourKansAbortMinPlayers
}

// resolveAllPass handles "every response is pass": non-riichi seats
// that had a ron opportunity become temporarily furiten, then the
// round advances exactly as the no-callers branch would (spec §4.1
// step "If every response is pass").
func resolveAllPass(rs RoundState, prompt *callproto.PendingCallPrompt) (RoundState, []events.ServiceEvent, error) {
	next := rs
	for _, c := range prompt.Callers {
		if c.Detail == callproto.ActionRon && !next.Seats[c.Seat].IsRiichi {
			next.Seats[c.Seat].IsTemporaryFuriten = true
		}
	}
	wasRiichiDeclared := next.Seats[next.CurrentSeat].Discards[len(next.Seats[next.CurrentSeat].Discards)-1].IsRiichiDeclaration
	return advanceAfterNoClaim(next, wasRiichiDeclared && !next.Seats[next.CurrentSeat].IsRiichi, nil)
}
