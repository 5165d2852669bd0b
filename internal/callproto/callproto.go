// Package callproto implements spec §4.2's call-resolution protocol:
// validating responses against a posted PendingCallPrompt and resolving
// the accumulated responses under priority once every pending seat has
// answered.
//
// Grounded on the teacher's Reactions/PlayerReaction collection in
// riichi_mahjong_4p_engine.go (waitReaction/recordPlayerResponse/
// isReactionComplete/handleReactionComplete/selectBestReaction), pulled
// out of the engine into its own pure package the way spec.md factors
// it as a distinct component from the round state machine.
package callproto

import (
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/tiles"
)

// CallType is the kind of prompt posted after a discard.
type CallType int

const (
	CallMeld CallType = iota
	CallRon
	CallRonOrMeld
	CallChankan
)

// ResponseAction is what a responding seat chose to do.
type ResponseAction int

const (
	ActionPass ResponseAction = iota
	ActionRon
	ActionPon
	ActionChi
	ActionOpenKan
)

// Priority orders meld responses for resolution: kan beats pon beats
// chi beats pass (spec §4.1 priority table).
func (a ResponseAction) Priority() int {
	switch a {
	case ActionOpenKan:
		return 3
	case ActionPon:
		return 2
	case ActionChi:
		return 1
	default:
		return 0
	}
}

// CallerDescriptor is one seat's eligibility entry on a prompt: a bare
// seat for ron/chankan, or a seat plus the meld detail and (for chi)
// the concrete tile-pair options available to it.
type CallerDescriptor struct {
	Seat       int
	Detail     ResponseAction
	ChiOptions []hand.ChiOption
}

// Response is one seat's recorded answer, together with the caller
// descriptor it was validated against at receipt time. Validation
// happens only at receipt: nothing reads matchedAt or re-checks a
// queued response when the prompt is resolved.
type Response struct {
	Seat      int
	Action    ResponseAction
	ChiChoice *hand.ChiOption
	matchedAt CallerDescriptor
}

// PendingCallPrompt is the unified prompt posted after a discard
// (spec §3 "PendingCallPrompt").
type PendingCallPrompt struct {
	CallType      CallType
	DiscardedTile tiles.Tile
	FromSeat      int
	PendingSeats  map[int]bool
	Callers       []CallerDescriptor
	Responses     []Response
}

// NewPrompt builds a prompt with every caller seat pending.
func NewPrompt(callType CallType, discarded tiles.Tile, fromSeat int, callers []CallerDescriptor) *PendingCallPrompt {
	pending := make(map[int]bool, len(callers))
	for _, c := range callers {
		pending[c.Seat] = true
	}
	return &PendingCallPrompt{
		CallType:      callType,
		DiscardedTile: discarded,
		FromSeat:      fromSeat,
		PendingSeats:  pending,
		Callers:       callers,
	}
}

func (p *PendingCallPrompt) descriptorFor(seat int) (CallerDescriptor, bool) {
	for _, c := range p.Callers {
		if c.Seat == seat {
			return c, true
		}
	}
	return CallerDescriptor{}, false
}

// ValidateResponse applies spec §4.2's fail-closed checks: responder
// membership, call-type-detail match, and (for chi) that the submitted
// pair matches one of the seat's attached options.
func ValidateResponse(p *PendingCallPrompt, seat int, action ResponseAction, chiChoice *hand.ChiOption) error {
	if !p.PendingSeats[seat] {
		return events.NewInvalidGameAction(seat, "CallResponse", "seat is not pending on this prompt")
	}
	if action == ActionPass {
		return nil
	}
	if action == ActionRon {
		if p.CallType != CallRon && p.CallType != CallRonOrMeld && p.CallType != CallChankan {
			return events.NewInvalidGameAction(seat, "CallResponse", "ron response on a meld-only prompt")
		}
		return nil
	}
	if p.CallType == CallRon || p.CallType == CallChankan {
		return events.NewInvalidGameAction(seat, "CallResponse", "meld response on a ron-only prompt")
	}
	desc, ok := p.descriptorFor(seat)
	if !ok || desc.Detail != action {
		return events.NewInvalidGameAction(seat, "CallResponse", "declared call type does not match this seat's caller descriptor")
	}
	if action == ActionChi {
		if chiChoice == nil {
			return events.NewInvalidGameAction(seat, "CallResponse", "chi response missing tile choice")
		}
		matched := false
		for _, opt := range desc.ChiOptions {
			if opt == *chiChoice {
				matched = true
				break
			}
		}
		if !matched {
			return events.NewInvalidGameAction(seat, "CallResponse", "chi tiles do not match an offered option")
		}
	}
	return nil
}

// RecordResponse validates and appends seat's response, removing it
// from pending_seats.
func RecordResponse(p *PendingCallPrompt, seat int, action ResponseAction, chiChoice *hand.ChiOption) (*PendingCallPrompt, error) {
	if err := ValidateResponse(p, seat, action, chiChoice); err != nil {
		return p, err
	}
	desc, _ := p.descriptorFor(seat)
	next := *p
	next.PendingSeats = make(map[int]bool, len(p.PendingSeats))
	for s, v := range p.PendingSeats {
		if s == seat {
			continue
		}
		next.PendingSeats[s] = v
	}
	next.Responses = append(append([]Response(nil), p.Responses...), Response{
		Seat: seat, Action: action, ChiChoice: chiChoice, matchedAt: desc,
	})
	return &next, nil
}

// IsComplete reports whether every caller has responded.
func IsComplete(p *PendingCallPrompt) bool { return len(p.PendingSeats) == 0 }

// CCWDistance is how many seats counter-clockwise from to lie past
// from, used to order simultaneous ron claims by turn order.
func CCWDistance(from, to int) int { return ((to - from) + 4) % 4 }
