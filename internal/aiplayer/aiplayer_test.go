package aiplayer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"riichicore/internal/callproto"
	"riichicore/internal/hand"
	"riichicore/internal/roundfsm"
)

func TestChooseDrawTakesAvailableTsumo(t *testing.T) {
	s := DefaultStrategy{}
	d := s.ChooseDraw(0, roundfsm.AvailableAction{DeclareTsumo: true}, hand.Seat{})
	require.True(t, d.DeclareTsumo)
	require.False(t, d.Discard)
}

func TestChooseDrawTsumogirisWithoutAWin(t *testing.T) {
	s := DefaultStrategy{}
	d := s.ChooseDraw(0, roundfsm.AvailableAction{}, hand.Seat{})
	require.False(t, d.DeclareTsumo)
	require.True(t, d.Discard)
}

func TestChooseCallResponseAlwaysPasses(t *testing.T) {
	s := DefaultStrategy{}
	require.Equal(t, callproto.ActionPass, s.ChooseCallResponse(0, &callproto.PendingCallPrompt{}))
}

func TestConfirmRoundAdvanceAlwaysTrue(t *testing.T) {
	s := DefaultStrategy{}
	require.True(t, s.ConfirmRoundAdvance(0))
}
