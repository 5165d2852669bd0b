package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"riichicore/internal/events"
	"riichicore/internal/roundfsm"
)

func allHumanSlots() [4]PlayerSlot {
	var slots [4]PlayerSlot
	for i := range slots {
		slots[i] = PlayerSlot{UserID: "u" + string(rune('0'+i)), Name: "p" + string(rune('0'+i)), Connected: true}
	}
	return slots
}

func allAISlots() [4]PlayerSlot {
	var slots [4]PlayerSlot
	for i := range slots {
		slots[i] = PlayerSlot{UserID: "u" + string(rune('0'+i)), Name: "ai" + string(rune('0'+i)), IsAI: true}
	}
	return slots
}

func TestStartGameDealsOpeningHandAndEmitsRoundStarted(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 42, 1, roundfsm.DefaultRoundConfig())
	ev, err := g.StartGame()
	require.NoError(t, err)
	require.NotEmpty(t, ev)

	var sawGameStarted, sawRoundStarted bool
	for _, e := range ev {
		switch e.Kind {
		case events.KindGameStarted:
			sawGameStarted = true
		case events.KindRoundStarted:
			sawRoundStarted = true
		}
	}
	require.True(t, sawGameStarted)
	require.True(t, sawRoundStarted)
	require.Equal(t, PhaseActive, g.State().Phase)
	require.Equal(t, roundfsm.AwaitingDiscard, g.State().Round.Phase)
}

func TestStartGameTwiceErrors(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 42, 1, roundfsm.DefaultRoundConfig())
	_, err := g.StartGame()
	require.NoError(t, err)
	_, err = g.StartGame()
	require.Error(t, err)
}

func TestHandleActionRejectsUnknownKind(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 1, 1, roundfsm.DefaultRoundConfig())
	_, err := g.StartGame()
	require.NoError(t, err)

	_, err = g.HandleAction(Action{Kind: ActionKind("bogus"), Seat: 0})
	require.Error(t, err)
}

func TestHandleActionRejectsWhenGameNotActive(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 1, 1, roundfsm.DefaultRoundConfig())
	_, err := g.HandleAction(Action{Kind: ActionDiscard, Seat: 0})
	require.Error(t, err)
}

func TestAllAIGameStartsWithoutPanicking(t *testing.T) {
	g := NewGame("g1", allAISlots(), 7, 1, roundfsm.DefaultRoundConfig())
	ev, err := g.StartGame()
	require.NoError(t, err)
	require.NotEmpty(t, ev)
	require.True(t, g.State().Phase == PhaseActive || g.State().Phase == PhaseEnded)
}

func TestReplaceWithAIAndRestoreHuman(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 1, 1, roundfsm.DefaultRoundConfig())
	_, err := g.StartGame()
	require.NoError(t, err)

	g.ReplaceWithAI(2)
	require.True(t, g.State().Players[2].IsAI)
	require.False(t, g.State().Players[2].Connected)

	err = g.RestoreHuman(2, g.State().Players[2].UserID)
	require.NoError(t, err)
	require.False(t, g.State().Players[2].IsAI)
	require.True(t, g.State().Players[2].Connected)
}

func TestRestoreHumanRejectsWrongUser(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 1, 1, roundfsm.DefaultRoundConfig())
	_, err := g.StartGame()
	require.NoError(t, err)
	g.ReplaceWithAI(0)
	require.Error(t, g.RestoreHuman(0, "not-the-owner"))
}

func TestBuildReconnectionSnapshotReflectsSeatHand(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 1, 1, roundfsm.DefaultRoundConfig())
	_, err := g.StartGame()
	require.NoError(t, err)

	snap := g.BuildReconnectionSnapshot(g.State().Round.DealerSeat)
	require.Equal(t, "g1", snap.GameID)
	require.Len(t, snap.Hand, 14)
}

func TestHandleTimeoutTurnDiscardsDrawnTile(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 1, 1, roundfsm.DefaultRoundConfig())
	_, err := g.StartGame()
	require.NoError(t, err)

	dealer := g.State().Round.DealerSeat
	_, err = g.HandleTimeout(dealer, TimeoutTurn)
	require.NoError(t, err)
}

func TestHandleTimeoutUnknownKindErrors(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 1, 1, roundfsm.DefaultRoundConfig())
	_, err := g.StartGame()
	require.NoError(t, err)
	_, err = g.HandleTimeout(0, TimeoutKind(99))
	require.Error(t, err)
}

func TestGetHandDeclarationPointsReflectsSeatScore(t *testing.T) {
	g := NewGame("g1", allHumanSlots(), 1, 1, roundfsm.DefaultRoundConfig())
	_, err := g.StartGame()
	require.NoError(t, err)
	require.Equal(t, g.State().Round.Seats[0].Score, g.GetHandDeclarationPoints(0))
}
