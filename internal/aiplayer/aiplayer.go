// Package aiplayer implements spec §4.3's AI substitute: the default
// strategy a disconnected seat falls back to so the round can keep
// advancing. Grounded on spec §7's "Substitute-triggered errors"
// clause (tsumogiri on turn actions, pass on meld prompts, auto-
// confirm on round-advance) rather than on a teacher file, since the
// teacher's engine has no analogous always-on bot seat.
package aiplayer

import (
	"riichicore/internal/callproto"
	"riichicore/internal/hand"
	"riichicore/internal/roundfsm"
)

// Strategy is the decision interface internal/orchestrator calls
// against a substituted seat.
type Strategy interface {
	// ChooseDraw decides what to do once dealt an AvailableAction:
	// tsumogiri (discard the tile just drawn) unless a tsumo win is
	// immediately available, in which case it takes the win.
	ChooseDraw(seat int, action roundfsm.AvailableAction, drawnTile hand.Seat) DrawDecision
	// ChooseCallResponse always passes (spec §7 "for meld prompts it
	// falls back to pass").
	ChooseCallResponse(seat int, prompt *callproto.PendingCallPrompt) callproto.ResponseAction
}

// DrawDecision is ChooseDraw's result.
type DrawDecision struct {
	DeclareTsumo bool
	Discard      bool
}

// DefaultStrategy is spec §7's fallback bot: tsumogiri on draw,
// pass on calls, auto-confirm round advance.
type DefaultStrategy struct{}

// ChooseDraw takes an immediately available tsumo; otherwise
// tsumogiri (discards the tile just drawn, never riichi, never kan).
func (DefaultStrategy) ChooseDraw(seat int, action roundfsm.AvailableAction, _ hand.Seat) DrawDecision {
	if action.DeclareTsumo {
		return DrawDecision{DeclareTsumo: true}
	}
	return DrawDecision{Discard: true}
}

// ChooseCallResponse always passes (spec §7).
func (DefaultStrategy) ChooseCallResponse(seat int, prompt *callproto.PendingCallPrompt) callproto.ResponseAction {
	return callproto.ActionPass
}

// ConfirmRoundAdvance always confirms immediately (spec §7 "for
// round-advance confirmations: auto-confirm").
func (DefaultStrategy) ConfirmRoundAdvance(seat int) bool { return true }
