// Package orchestrator implements spec §4.3's Game Orchestrator: the
// layer above internal/roundfsm that owns a game's cross-round state
// (dealer rotation, honba/riichi-stick bookkeeping, AI substitution,
// reconnection snapshots) and drives the round machine forward
// automatically wherever spec §4.1 leaves a transition for the
// caller to pump (most importantly, ProcessDraw after every
// transition that lands in AwaitingDraw).
//
// Grounded on the teacher's monolithic RiichiMahjong4p engine for the
// overall "owns the table, drives the round, reacts to action
// events" shape, generalized the way internal/roundfsm already
// generalized its per-round half into pure functions: here the
// wrapping actor/lock belongs to internal/session, and Game exposes
// plain synchronous methods for it to call under its own per-game lock.
package orchestrator

import (
	"fmt"

	"riichicore/internal/aiplayer"
	"riichicore/internal/callproto"
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/roundfsm"
	"riichicore/internal/tiles"
)

// Phase is the game's own lifecycle stage, distinct from
// roundfsm.Phase which only tracks one round.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseActive
	PhaseEnded
)

// PlayerSlot is one of the four seats' identity and connection state.
type PlayerSlot struct {
	UserID    string
	Name      string
	IsAI      bool
	Connected bool
}

// GameState is the full cross-round state a Game owns (spec §4.3).
type GameState struct {
	GameID        string
	Seed          int64
	RNGVersion    int
	Players       [4]PlayerSlot
	Round         roundfsm.RoundState
	RoundNumber   int
	UniqueDealers int
	Honba         int
	RiichiSticks  int
	Phase         Phase

	// pendingAdvance holds the seats that have not yet confirmed
	// moving on to the next round, once a round ends with the game
	// still running (spec §4.4 "round-advance confirmation").
	pendingAdvance map[int]bool
}

// Game is one running match: GameState plus the config and AI
// strategy it needs to drive itself forward.
type Game struct {
	state    GameState
	config   roundfsm.RoundConfig
	strategy aiplayer.Strategy
}

// NewGame builds a lobby-phase Game for gameID with the four seated
// players, a wall seed/RNG version, and the round rule config.
func NewGame(gameID string, players [4]PlayerSlot, seed int64, rngVersion int, cfg roundfsm.RoundConfig) *Game {
	return &Game{
		state: GameState{
			GameID:     gameID,
			Seed:       seed,
			RNGVersion: rngVersion,
			Players:    players,
			Phase:      PhaseLobby,
		},
		config:   cfg,
		strategy: aiplayer.DefaultStrategy{},
	}
}

// State returns a snapshot of the game's current bookkeeping.
func (g *Game) State() GameState { return g.state }

func seatNames(players [4]PlayerSlot) [4]string {
	var names [4]string
	for i, p := range players {
		names[i] = p.Name
	}
	return names
}

// StartGame deals the first round, drawing the dealer's opening tile
// automatically (spec §4.3 "StartGame"). Returns the events the round
// produced, including the dealer's first Draw.
func (g *Game) StartGame() ([]events.ServiceEvent, error) {
	if g.state.Phase != PhaseLobby {
		return nil, fmt.Errorf("orchestrator: game %s already started", g.state.GameID)
	}
	wall := tiles.NewWall(g.state.Seed, g.state.RNGVersion, g.config.UseRedFives)
	g.state.Round = roundfsm.Deal(wall, 0, 0, seatNames(g.state.Players), g.config, 0, 0)
	g.state.Phase = PhaseActive
	g.state.RoundNumber = 1
	g.state.UniqueDealers = 1

	ev := []events.ServiceEvent{{Kind: events.KindGameStarted, Target: events.Broadcast(), Payload: struct {
		GameID    string
		SeatNames [4]string
	}{GameID: g.state.GameID, SeatNames: seatNames(g.state.Players)}}}
	ev = append(ev, g.roundStartedEvents()...)

	// Deal leaves every seat with thirteen tiles and the round in
	// AwaitingDraw; pump runs the dealer's opening draw (and, if the
	// dealer is AI, its opening discard) before control returns.
	return g.pump(ev)
}

func (g *Game) roundStartedEvents() []events.ServiceEvent {
	var doraIndicator tiles.Tile
	if indicators := g.state.Round.Wall.DoraIndicators(); len(indicators) > 0 {
		doraIndicator = indicators[0]
	}
	ev := make([]events.ServiceEvent, 0, 4)
	for seat := range g.state.Players {
		ev = append(ev, events.ServiceEvent{Kind: events.KindRoundStarted, Target: events.ToSeat(seat), Payload: events.RoundStartedPayload{
			RoundNumber:   g.state.RoundNumber,
			DealerSeat:    g.state.Round.DealerSeat,
			RoundWind:     g.state.Round.RoundWind,
			Honba:         g.state.Honba,
			RiichiSticks:  g.state.RiichiSticks,
			DoraIndicator: doraIndicator,
			OwnHand:       append([]tiles.Tile(nil), g.state.Round.Seats[seat].Concealed...),
		}})
	}
	return ev
}

// ActionKind tags the player-submitted actions HandleAction dispatches.
type ActionKind string

const (
	ActionDiscard             ActionKind = "Discard"
	ActionCallResponse        ActionKind = "CallResponse"
	ActionDeclareTsumo        ActionKind = "DeclareTsumo"
	ActionDeclareKyuushu      ActionKind = "DeclareKyuushu"
	ActionDeclareClosedKan    ActionKind = "DeclareClosedKan"
	ActionDeclareAddedKan     ActionKind = "DeclareAddedKan"
	ActionConfirmRoundAdvance ActionKind = "ConfirmRoundAdvance"
)

// Action is one player-submitted input to HandleAction.
type Action struct {
	Kind          ActionKind
	Seat          int
	Tile          tiles.Tile
	DeclareRiichi bool
	Response      callproto.ResponseAction
	ChiChoice     *hand.ChiOption
	Type34        int
}

// HandleAction applies one player action to the round, pumping the
// machine forward (auto-drawing, finalizing rounds, starting the
// next one) until it lands on a state once again waiting for player
// input (spec §4.3 "HandleAction").
func (g *Game) HandleAction(action Action) ([]events.ServiceEvent, error) {
	if g.state.Phase != PhaseActive {
		return nil, events.NewInvalidGameAction(action.Seat, string(action.Kind), "game is not active")
	}

	if action.Kind == ActionConfirmRoundAdvance {
		return g.confirmRoundAdvance(action.Seat)
	}

	rs := g.state.Round
	var next roundfsm.RoundState
	var ev []events.ServiceEvent
	var err error

	switch action.Kind {
	case ActionDiscard:
		next, ev, err = roundfsm.ApplyDiscard(rs, action.Tile, action.DeclareRiichi)
	case ActionCallResponse:
		next, ev, err = roundfsm.ApplyCallResponse(rs, action.Seat, action.Response, action.ChiChoice)
	case ActionDeclareTsumo:
		next, ev, err = roundfsm.DeclareTsumo(rs, action.Seat)
	case ActionDeclareKyuushu:
		next, ev, err = roundfsm.DeclareKyuushu(rs, action.Seat)
	case ActionDeclareClosedKan:
		next, ev, err = roundfsm.DeclareClosedKan(rs, action.Seat, action.Type34)
	case ActionDeclareAddedKan:
		next, ev, err = roundfsm.DeclareAddedKan(rs, action.Seat, action.Type34)
	default:
		return nil, events.NewInvalidGameAction(action.Seat, string(action.Kind), "unknown action")
	}
	if err != nil {
		return nil, err
	}

	g.state.Round = next
	return g.pump(ev)
}

// pump drives ProcessDraw automatically whenever a transition lands
// the round in AwaitingDraw, and finalizes/advances the game whenever
// a round Finishes, until the round is once again waiting on a
// player (spec §9 "ProcessDraw is not itself a player action").
func (g *Game) pump(ev []events.ServiceEvent) ([]events.ServiceEvent, error) {
	for {
		switch g.state.Round.Phase {
		case roundfsm.AwaitingDraw:
			next, drawEv, action := roundfsm.ProcessDraw(g.state.Round)
			g.state.Round = next
			ev = append(ev, drawEv...)
			if next.Phase == roundfsm.Finished {
				continue
			}
			if slot := g.state.Players[next.CurrentSeat]; slot.IsAI {
				// driveAITurn pumps its own action to completion
				// (through any further draws, a round finish, and a
				// possible next deal), so its result is already
				// terminal; looping back through this switch would
				// re-dispatch on a Phase a nested call already
				// resolved (double-finalizing a round that just
				// ended, for one).
				aiEv, err := g.driveAITurn(action)
				ev = append(ev, aiEv...)
				return ev, err
			}
			return ev, nil
		case roundfsm.Finished:
			finishEv := g.finishRound()
			ev = append(ev, finishEv...)
			return ev, nil
		default:
			return ev, nil
		}
	}
}

// driveAITurn lets the substitute strategy act on an AI-controlled
// seat's just-dealt AvailableAction (spec §7 "tsumogiri on turn
// actions").
func (g *Game) driveAITurn(action roundfsm.AvailableAction) ([]events.ServiceEvent, error) {
	seat := g.state.Round.CurrentSeat
	decision := g.strategy.ChooseDraw(seat, action, g.state.Round.Seats[seat])
	if decision.DeclareTsumo {
		next, ev, err := roundfsm.DeclareTsumo(g.state.Round, seat)
		if err != nil {
			return fallbackDiscard(g, seat), nil
		}
		g.state.Round = next
		return g.pump(ev)
	}
	return fallbackDiscard(g, seat), nil
}

// fallbackDiscard tsumogiris the seat's current drawn tile, the AI's
// last-resort turn action (spec §7 "Substitute-triggered errors").
func fallbackDiscard(g *Game, seat int) []events.ServiceEvent {
	if g.state.Round.DrawnTile == nil {
		return nil
	}
	next, ev, err := roundfsm.ApplyDiscard(g.state.Round, *g.state.Round.DrawnTile, false)
	if err != nil {
		return nil
	}
	g.state.Round = next
	result, _ := g.pump(ev)
	return result
}

// finishRound updates honba/riichi-stick/dealer bookkeeping off a
// finished round's RoundResult, then either ends the game or awaits
// round-advance confirmation before dealing the next one (spec §4.3
// "finalize... unique_dealers rotates... check_game_end").
func (g *Game) finishRound() []events.ServiceEvent {
	result := g.state.Round.Result
	if result == nil {
		return nil
	}

	if result.DealerRetained {
		g.state.Honba++
	} else {
		g.state.Honba = 0
		g.state.UniqueDealers++
		g.state.Round.DealerSeat = (g.state.Round.DealerSeat + 1) % 4
	}
	switch result.Kind {
	case roundfsm.ResultRon, roundfsm.ResultDoubleRon, roundfsm.ResultAbortiveDraw:
		if result.Kind != roundfsm.ResultAbortiveDraw {
			g.state.RiichiSticks = 0
		}
	case roundfsm.ResultTsumo:
		g.state.RiichiSticks = 0
	}
	for _, s := range g.state.Round.Seats {
		if s.IsRiichi {
			g.state.RiichiSticks++
		}
	}

	if g.gameShouldEnd() {
		g.state.Phase = PhaseEnded
		return []events.ServiceEvent{{Kind: events.KindGameEnded, Target: events.Broadcast(), Payload: events.GameEndedPayload{
			FinalScores: finalScores(g.state.Round),
		}}}
	}

	g.state.pendingAdvance = make(map[int]bool, 4)
	for seat, p := range g.state.Players {
		if !p.IsAI {
			g.state.pendingAdvance[seat] = true
		}
	}
	if len(g.state.pendingAdvance) == 0 {
		return g.advanceRound()
	}
	return nil
}

// gameShouldEnd reports spec §4.3's default end condition: the game
// ends once the unique-dealer count passes maxUniqueDealers, i.e. after
// the eight dealer turns of an east+south (hanchan-style) game.
func (g *Game) gameShouldEnd() bool {
	const maxUniqueDealers = 8 // east+south rounds, one full hanchan
	return g.state.UniqueDealers > maxUniqueDealers
}

func finalScores(rs roundfsm.RoundState) [4]int {
	var out [4]int
	for i, s := range rs.Seats {
		out[i] = s.Score
	}
	return out
}

// IsRoundAdvancePending reports whether the game is waiting on one or
// more human seats to confirm moving to the next round.
func (g *Game) IsRoundAdvancePending() bool {
	return len(g.state.pendingAdvance) > 0
}

// GetPendingRoundAdvancePlayerNames lists the names still pending
// confirmation, for the lobby-facing "waiting on..." display.
func (g *Game) GetPendingRoundAdvancePlayerNames() []string {
	names := make([]string, 0, len(g.state.pendingAdvance))
	for seat := range g.state.pendingAdvance {
		names = append(names, g.state.Players[seat].Name)
	}
	return names
}

// confirmRoundAdvance records seat's confirmation and, once every
// pending seat has confirmed, deals the next round.
func (g *Game) confirmRoundAdvance(seat int) ([]events.ServiceEvent, error) {
	if !g.state.pendingAdvance[seat] {
		return nil, nil
	}
	delete(g.state.pendingAdvance, seat)
	if len(g.state.pendingAdvance) > 0 {
		return nil, nil
	}
	return g.advanceRound(), nil
}

// advanceRound deals the next round using the game's running
// honba/riichi-stick/dealer state (closing the integration this
// module's internal/roundfsm fix made possible: Deal and RoundState
// now carry Honba/RiichiSticks end to end).
func (g *Game) advanceRound() []events.ServiceEvent {
	wall := tiles.NewWall(g.state.Seed+int64(g.state.RoundNumber), g.state.RNGVersion, g.config.UseRedFives)
	roundWind := (g.state.UniqueDealers - 1) / 4
	g.state.RoundNumber++
	scores := finalScores(g.state.Round)
	g.state.Round = roundfsm.Deal(wall, g.state.Round.DealerSeat, roundWind, seatNames(g.state.Players), g.config, g.state.Honba, g.state.RiichiSticks)
	for i := range g.state.Round.Seats {
		g.state.Round.Seats[i].Score = scores[i]
	}
	ev := g.roundStartedEvents()
	pumped, err := g.pump(ev)
	if err != nil {
		return ev
	}
	return pumped
}

// HandleTimeout applies spec §4.5's timeout fallback for seat: a
// pending draw-phase timeout resolves identically to a Discard of the
// seat's last drawn tile (spec §8 "process_timeout(TURN) ... must
// equal handle_action(Discard, last_drawn_tile)"); a pending
// call-response timeout resolves as Pass.
func (g *Game) HandleTimeout(seat int, kind TimeoutKind) ([]events.ServiceEvent, error) {
	switch kind {
	case TimeoutTurn:
		if g.state.Round.DrawnTile == nil {
			return nil, fmt.Errorf("orchestrator: turn timeout with no drawn tile for seat %d", seat)
		}
		return g.HandleAction(Action{Kind: ActionDiscard, Seat: seat, Tile: *g.state.Round.DrawnTile})
	case TimeoutCallResponse:
		return g.HandleAction(Action{Kind: ActionCallResponse, Seat: seat, Response: callproto.ActionPass})
	case TimeoutRoundAdvance:
		return g.HandleAction(Action{Kind: ActionConfirmRoundAdvance, Seat: seat})
	}
	return nil, fmt.Errorf("orchestrator: unknown timeout kind")
}

// TimeoutKind tags which of internal/timer's three timer kinds fired.
type TimeoutKind int

const (
	TimeoutTurn TimeoutKind = iota
	TimeoutCallResponse
	TimeoutRoundAdvance
)

// ReplaceWithAI marks seat as AI-controlled (spec §4.3
// "ReplaceWithAI"), e.g. after a hard-invalid-action disconnect.
func (g *Game) ReplaceWithAI(seat int) {
	g.state.Players[seat].IsAI = true
	g.state.Players[seat].Connected = false
}

// RestoreHuman reconnects userID into seat, ending its AI substitution.
func (g *Game) RestoreHuman(seat int, userID string) error {
	if g.state.Players[seat].UserID != userID {
		return fmt.Errorf("orchestrator: seat %d does not belong to user %s", seat, userID)
	}
	g.state.Players[seat].IsAI = false
	g.state.Players[seat].Connected = true
	return nil
}

// ReconnectionSnapshot is everything a reconnecting seat needs to
// rebuild its client state (spec §4.4 "BuildReconnectionSnapshot").
type ReconnectionSnapshot struct {
	GameID       string
	RoundNumber  int
	DealerSeat   int
	RoundWind    int
	Honba        int
	RiichiSticks int
	CurrentSeat  int
	Phase        roundfsm.Phase
	Hand         []tiles.Tile
	Discards     [4][]hand.Discard
	Melds        [4][]hand.Meld
	Scores       [4]int
}

// BuildReconnectionSnapshot assembles seat's view of the game as it
// stands right now.
func (g *Game) BuildReconnectionSnapshot(seat int) ReconnectionSnapshot {
	rs := g.state.Round
	snap := ReconnectionSnapshot{
		GameID:       g.state.GameID,
		RoundNumber:  g.state.RoundNumber,
		DealerSeat:   rs.DealerSeat,
		RoundWind:    rs.RoundWind,
		Honba:        g.state.Honba,
		RiichiSticks: g.state.RiichiSticks,
		CurrentSeat:  rs.CurrentSeat,
		Phase:        rs.Phase,
		Hand:         append([]tiles.Tile(nil), rs.Seats[seat].Concealed...),
	}
	for i, s := range rs.Seats {
		snap.Discards[i] = append([]hand.Discard(nil), s.Discards...)
		snap.Melds[i] = append([]hand.Meld(nil), s.Melds...)
		snap.Scores[i] = s.Score
	}
	return snap
}

// GetHandDeclarationPoints reports seat's current score, the figure
// spec §4.3 calls "hand declaration points" in the lobby-facing
// standings display.
func (g *Game) GetHandDeclarationPoints(seat int) int {
	return g.state.Round.Seats[seat].Score
}
