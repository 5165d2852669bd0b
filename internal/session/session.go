// Package session implements spec §4.4's Session Manager: the
// registries of connections, rooms, pending games, and started games,
// plus the per-game lock under which internal/orchestrator is driven,
// grounded on the teacher's framework/game.RoomManager (sharded
// registries behind one mutex-guarded map-of-maps, players looked up
// by a secondary index) generalized from "one room maps to one
// cloned Engine" to "one gameID maps to one orchestrator.Game plus
// its own timer/replay/AI-substitution state".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"riichicore/internal/cache"
	"riichicore/internal/callproto"
	"riichicore/internal/events"
	"riichicore/internal/hand"
	"riichicore/internal/heartbeat"
	"riichicore/internal/jwt"
	"riichicore/internal/logging"
	"riichicore/internal/orchestrator"
	"riichicore/internal/replay"
	"riichicore/internal/roundfsm"
	"riichicore/internal/tiles"
	"riichicore/internal/timer"
	"riichicore/internal/transport"
)

// PendingPlayer is one seat reservation in a lobby-created game,
// matched against a websocket join by the JWT this package mints for
// it (spec §3 "PendingGame... with expected player tickets").
type PendingPlayer struct {
	Name       string
	UserID     string
	GameTicket string
}

// Settings bundles the tunables internal/config loads (spec §4.5's
// timer constants, §4.7's heartbeat constants, §4.4's join/round-
// advance timeouts) so Manager doesn't import internal/config itself.
type Settings struct {
	TurnBank            time.Duration
	TurnIncrement       time.Duration
	MeldWindow          time.Duration
	RoundAdvanceBonus   time.Duration
	JoinTimeout         time.Duration
	RoundAdvanceTimeout time.Duration
	JwtSecret           string
	JwtLifetime         time.Duration
	RoundConfig         roundfsm.RoundConfig
	MaxGames            int
}

type pendingGame struct {
	gameID    string
	numAI     int
	players   []PendingPlayer
	tokens    map[string]string // userID -> join JWT
	connected map[string]bool
	timeout   *time.Timer
}

// RoomPlayer is one seat in a pre-game Room (spec §3 "Room").
type RoomPlayer struct {
	UserID string
	Name   string
	Ready  bool
}

// Room is a pre-game gathering that flips into a started Game once
// every human seat is ready (spec §3 "Room").
type Room struct {
	mu            sync.Mutex
	id            string
	numAI         int
	players       []RoomPlayer
	transitioning bool
}

type runningGame struct {
	mu         sync.Mutex
	game       *orchestrator.Game
	timers     *timer.Manager
	replay     *replay.Collector
	seatUserID [4]string
	disconnectedAt [4]*time.Time
}

// Manager owns every live Game/Room/PendingGame registry (spec §4.4
// "the Session Manager exclusively owns the live Game, Room,
// PendingGame, and GameState registries").
type Manager struct {
	mu           sync.RWMutex
	pendingGames map[string]*pendingGame
	rooms        map[string]*Room
	games        map[string]*runningGame

	transport *transport.Manager
	heartbeat *heartbeat.Monitor
	store     replay.GameHistoryStore
	redis     *cache.RedisManager
	standings *cache.StandingsCache

	settings Settings
}

// NewManager wires a Manager against the transport layer's inbound
// dispatch and connect/disconnect hooks.
func NewManager(tm *transport.Manager, hb *heartbeat.Monitor, store replay.GameHistoryStore, redis *cache.RedisManager, standings *cache.StandingsCache, settings Settings) *Manager {
	m := &Manager{
		pendingGames: make(map[string]*pendingGame),
		rooms:        make(map[string]*Room),
		games:        make(map[string]*runningGame),
		transport:    tm,
		heartbeat:    hb,
		store:        store,
		redis:        redis,
		standings:    standings,
		settings:     settings,
	}
	tm.OnConnect(m.handleConnect)
	tm.OnDisconnect(m.handleDisconnect)
	tm.OnMessage(m.handleInbound)
	return m
}

// GameExists reports whether gameID names a pending or running game.
func (m *Manager) GameExists(gameID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.pendingGames[gameID]; ok {
		return true
	}
	_, ok := m.games[gameID]
	return ok
}

// AtCapacity reports whether the configured game ceiling is reached.
func (m *Manager) AtCapacity() bool {
	if m.settings.MaxGames <= 0 {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pendingGames)+len(m.games) >= m.settings.MaxGames
}

// GameCount reports the number of in-progress games, for
// internal/stats' load sample (it implements stats.Source).
func (m *Manager) GameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// ConnectionCount delegates to the transport layer, the other half
// of internal/stats.Source.
func (m *Manager) ConnectionCount() int {
	return m.transport.ConnectionCount()
}

// CreatePendingGame reserves gameID for the given human players plus
// numAI AI-filled seats, minting a join token per human player (spec
// §3 "PendingGame... with expected player tickets", spec §4.4's join
// token doubling as the reconnect token format).
func (m *Manager) CreatePendingGame(gameID string, numAI int, players []PendingPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pendingGames[gameID]; ok {
		return fmt.Errorf("session: game %s is already pending", gameID)
	}
	if _, ok := m.games[gameID]; ok {
		return fmt.Errorf("session: game %s already started", gameID)
	}

	tokens := make(map[string]string, len(players))
	for _, p := range players {
		tok, err := jwt.IssueReconnectToken(p.UserID, gameID, m.settings.JwtSecret, m.settings.JwtLifetime)
		if err != nil {
			return fmt.Errorf("session: issue join token: %w", err)
		}
		tokens[p.UserID] = tok
	}

	pg := &pendingGame{
		gameID:    gameID,
		numAI:     numAI,
		players:   players,
		tokens:    tokens,
		connected: make(map[string]bool),
	}
	joinTimeout := m.settings.JoinTimeout
	if joinTimeout <= 0 {
		joinTimeout = 30 * time.Second
	}
	pg.timeout = time.AfterFunc(joinTimeout, func() { m.expirePendingGame(gameID) })
	m.pendingGames[gameID] = pg
	return nil
}

// JoinTokens returns the per-player join tokens CreatePendingGame
// minted, so the lobby HTTP layer can hand them to each client.
func (m *Manager) JoinTokens(gameID string) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pg, ok := m.pendingGames[gameID]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(pg.tokens))
	for k, v := range pg.tokens {
		out[k] = v
	}
	return out, true
}

func (m *Manager) expirePendingGame(gameID string) {
	m.mu.Lock()
	pg, ok := m.pendingGames[gameID]
	if !ok || len(pg.connected) == len(pg.players) {
		m.mu.Unlock()
		return
	}
	delete(m.pendingGames, gameID)
	m.mu.Unlock()
	logging.Warn("session: pending game %s expired with %d/%d joined", gameID, len(pg.connected), len(pg.players))
}

// CreateRoom opens a fresh lobby room with numAI pre-filled AI seats,
// returning its generated id.
func (m *Manager) CreateRoom(numAI int) string {
	id := uuid.NewString()
	room := &Room{id: id, numAI: numAI}
	m.mu.Lock()
	m.rooms[id] = room
	m.mu.Unlock()
	return id
}

// JoinRoom seats userID/name into roomID, failing if the room is full
// or already transitioning into a game.
func (m *Manager) JoinRoom(roomID, userID, name string) error {
	m.mu.RLock()
	room, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session: room %s not found", roomID)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.transitioning {
		return errors.New("session: room is starting")
	}
	if len(room.players)+room.numAI >= 4 {
		return errors.New("session: room is full")
	}
	for _, p := range room.players {
		if p.UserID == userID {
			return errors.New("session: already joined")
		}
	}
	room.players = append(room.players, RoomPlayer{UserID: userID, Name: name})
	return nil
}

// SetReady flips userID's ready flag in roomID, starting the game
// once every human seat is ready.
func (m *Manager) SetReady(roomID, userID string, ready bool) error {
	m.mu.RLock()
	room, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session: room %s not found", roomID)
	}

	room.mu.Lock()
	allReady := true
	found := false
	for i := range room.players {
		if room.players[i].UserID == userID {
			room.players[i].Ready = ready
			found = true
		}
		if !room.players[i].Ready {
			allReady = false
		}
	}
	if !found {
		room.mu.Unlock()
		return errors.New("session: player not in room")
	}
	if len(room.players)+room.numAI != 4 || !allReady || room.transitioning {
		room.mu.Unlock()
		return nil
	}
	room.transitioning = true
	players := append([]RoomPlayer(nil), room.players...)
	numAI := room.numAI
	room.mu.Unlock()

	gameID := roomID
	return m.startGameFromRoom(gameID, players, numAI)
}

func (m *Manager) startGameFromRoom(gameID string, humans []RoomPlayer, numAI int) error {
	var slots [4]orchestrator.PlayerSlot
	for i, p := range humans {
		slots[i] = orchestrator.PlayerSlot{UserID: p.UserID, Name: p.Name, Connected: true}
	}
	for i := len(humans); i < 4; i++ {
		slots[i] = orchestrator.PlayerSlot{UserID: fmt.Sprintf("ai-%s-%d", gameID, i), Name: fmt.Sprintf("AI-%d", i+1), IsAI: true}
	}
	return m.beginGame(gameID, slots)
}

func (m *Manager) beginGame(gameID string, slots [4]orchestrator.PlayerSlot) error {
	seed := time.Now().UnixNano()
	game := orchestrator.NewGame(gameID, slots, seed, 1, m.settings.RoundConfig)

	rg := &runningGame{
		game:   game,
		timers: timer.NewManager(m.settings.TurnBank),
		replay: replay.NewCollector(gameID, seed, 1),
	}
	for i, s := range slots {
		rg.seatUserID[i] = s.UserID
	}

	m.mu.Lock()
	m.games[gameID] = rg
	m.mu.Unlock()

	ev, err := game.StartGame()
	if err != nil {
		m.mu.Lock()
		delete(m.games, gameID)
		m.mu.Unlock()
		return err
	}
	rg.replay.StartRound(game.State().RoundNumber, game.State().Round.RoundWind, game.State().Round.DealerSeat, game.State().Honba)
	m.dispatchEvents(gameID, rg, ev)
	m.armTimersAfter(gameID, rg)
	return nil
}

// handleConnect seats a freshly upgraded connection into its pending
// game, its running game (reconnect), or tracks it for heartbeat,
// whichever applies (spec §4.4 "join" and "reconnect").
func (m *Manager) handleConnect(c transport.Connection) {
	gameID, userID := transport.ParseConnID(c.ConnectionID())
	m.heartbeat.Track(c)

	m.mu.Lock()
	pg, isPending := m.pendingGames[gameID]
	rg, isRunning := m.games[gameID]
	m.mu.Unlock()

	if isPending {
		m.joinPendingGame(gameID, userID, pg)
		return
	}
	if isRunning {
		m.reconnectRunningGame(gameID, userID, rg, c)
		return
	}
	logging.Warn("session: connection for unknown game %s (user %s)", gameID, userID)
	c.Close("game not found")
}

func (m *Manager) joinPendingGame(gameID, userID string, pg *pendingGame) {
	m.mu.Lock()
	pg.connected[userID] = true
	complete := len(pg.connected) == len(pg.players)
	var slots [4]orchestrator.PlayerSlot
	if complete {
		for i, p := range pg.players {
			slots[i] = orchestrator.PlayerSlot{UserID: p.UserID, Name: p.Name, Connected: true}
		}
		for i := len(pg.players); i < 4; i++ {
			slots[i] = orchestrator.PlayerSlot{UserID: fmt.Sprintf("ai-%s-%d", gameID, i), Name: fmt.Sprintf("AI-%d", i+1), IsAI: true}
		}
		delete(m.pendingGames, gameID)
		if pg.timeout != nil {
			pg.timeout.Stop()
		}
	}
	m.mu.Unlock()

	if complete {
		if err := m.beginGame(gameID, slots); err != nil {
			logging.Error("session: starting game %s failed: %v", gameID, err)
		}
	}
}

func (m *Manager) reconnectRunningGame(gameID, userID string, rg *runningGame, c transport.Connection) {
	rg.mu.Lock()
	seat := -1
	for i, u := range rg.seatUserID {
		if u == userID {
			seat = i
			break
		}
	}
	if seat < 0 {
		rg.mu.Unlock()
		c.Close("not a player in this game")
		return
	}
	rg.disconnectedAt[seat] = nil
	if err := rg.game.RestoreHuman(seat, userID); err != nil {
		logging.Warn("session: restore human seat=%d game=%s: %v", seat, gameID, err)
	}
	snapshot := rg.game.BuildReconnectionSnapshot(seat)
	rg.mu.Unlock()

	_ = c.Send(events.ServiceEvent{Kind: events.KindGameReconnected, Target: events.ToSeat(seat), Payload: snapshot})
}

func (m *Manager) handleDisconnect(c transport.Connection) {
	m.heartbeat.Untrack(c.ConnectionID())
	gameID, userID := transport.ParseConnID(c.ConnectionID())

	m.mu.RLock()
	rg, ok := m.games[gameID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	rg.mu.Lock()
	seat := -1
	for i, u := range rg.seatUserID {
		if u == userID {
			seat = i
			break
		}
	}
	if seat < 0 {
		rg.mu.Unlock()
		return
	}
	now := time.Now()
	rg.disconnectedAt[seat] = &now
	rg.mu.Unlock()

	// Grace period before AI substitution, mirroring spec §4.4's
	// reconnect-grace window; the seat is not replaced immediately so
	// a brief network blip doesn't cost the player their hand.
	go func() {
		time.Sleep(m.settings.JoinTimeout)
		rg.mu.Lock()
		stillGone := rg.disconnectedAt[seat] != nil
		if stillGone {
			rg.game.ReplaceWithAI(seat)
		}
		rg.mu.Unlock()
		if stillGone {
			logging.Info("session: seat %d of game %s substituted with AI after disconnect", seat, gameID)
		}
	}()
}

// inboundAction is the wire shape a client frame decodes into; the
// concrete field used depends on Kind.
type inboundAction struct {
	Kind          string        `json:"kind"`
	Tile          tiles.Tile    `json:"tile"`
	DeclareRiichi bool          `json:"declareRiichi"`
	Response      int           `json:"response"`
	ChiA          *tiles.Tile   `json:"chiA"`
	ChiB          *tiles.Tile   `json:"chiB"`
	Type34        int           `json:"type34"`
}

func (m *Manager) handleInbound(msg transport.InboundMessage) {
	gameID, userID := transport.ParseConnID(msg.ConnID)

	m.mu.RLock()
	rg, ok := m.games[gameID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	rg.mu.Lock()
	seat := -1
	for i, u := range rg.seatUserID {
		if u == userID {
			seat = i
			break
		}
	}
	rg.mu.Unlock()
	if seat < 0 {
		return
	}

	var in inboundAction
	if err := json.Unmarshal(msg.Body, &in); err != nil {
		m.sendTo(gameID, seat, events.NewInvalidGameAction(seat, "decode", err.Error()))
		return
	}

	action := orchestrator.Action{Seat: seat, Tile: in.Tile, DeclareRiichi: in.DeclareRiichi, Type34: in.Type34, Response: callproto.ResponseAction(in.Response)}
	switch in.Kind {
	case "Discard":
		action.Kind = orchestrator.ActionDiscard
	case "CallResponse":
		action.Kind = orchestrator.ActionCallResponse
		if in.ChiA != nil && in.ChiB != nil {
			action.ChiChoice = &hand.ChiOption{A: *in.ChiA, B: *in.ChiB}
		}
	case "DeclareTsumo":
		action.Kind = orchestrator.ActionDeclareTsumo
	case "DeclareKyuushu":
		action.Kind = orchestrator.ActionDeclareKyuushu
	case "DeclareClosedKan":
		action.Kind = orchestrator.ActionDeclareClosedKan
	case "DeclareAddedKan":
		action.Kind = orchestrator.ActionDeclareAddedKan
	case "ConfirmRoundAdvance":
		action.Kind = orchestrator.ActionConfirmRoundAdvance
	default:
		m.sendTo(gameID, seat, events.NewInvalidGameAction(seat, in.Kind, "unknown action kind"))
		return
	}

	rg.mu.Lock()
	rg.timers.Stop(seat)
	ev, err := rg.game.HandleAction(action)
	if err == nil {
		for _, e := range ev {
			rg.replay.RecordEvent(e)
		}
	}
	rg.mu.Unlock()

	if err != nil {
		var invalid *events.InvalidGameAction
		if errors.As(err, &invalid) {
			logging.Warn("session: hard-invalid action seat=%d game=%s: %v", seat, gameID, err)
			rg.mu.Lock()
			rg.game.ReplaceWithAI(seat)
			rg.mu.Unlock()
			m.sendTo(gameID, seat, invalid)
		}
		return
	}

	m.dispatchEvents(gameID, rg, ev)
	m.armTimersAfter(gameID, rg)
}

// dispatchEvents fans ev out to connections by target, routes round
// completion into the replay journal, and closes out a finished game.
func (m *Manager) dispatchEvents(gameID string, rg *runningGame, ev []events.ServiceEvent) {
	creditedBonus := false
	for _, e := range ev {
		rg.replay.RecordEvent(e)
		m.broadcast(gameID, rg, e)

		if e.Kind == events.KindRoundStarted && !creditedBonus {
			rg.mu.Lock()
			roundNumber := rg.game.State().RoundNumber
			rg.mu.Unlock()
			if roundNumber > 1 {
				rg.timers.CreditAll(m.settings.RoundAdvanceBonus)
			}
			creditedBonus = true
		}

		if e.Kind == events.KindRoundEnd {
			rg.mu.Lock()
			result := rg.game.State().Round.Result
			var deltas [4]int
			reason := ""
			if result != nil {
				deltas = result.Deltas
				reason = fmt.Sprintf("%d", result.Kind)
			}
			rg.mu.Unlock()
			rg.replay.CompleteRound(deltas, reason)
		}
		if e.Kind == events.KindGameEnded {
			m.finishGame(gameID, rg)
		}
	}
}

func (m *Manager) finishGame(gameID string, rg *runningGame) {
	rg.timers.StopAll()
	if m.store != nil {
		rg.replay.FinalizeGame(m.store)
	}
	if m.standings != nil {
		rg.mu.Lock()
		var names [4]string
		for i, u := range rg.seatUserID {
			names[i] = u
		}
		scores := rg.game.State().Round.Seats
		var final [4]int
		for i, s := range scores {
			final[i] = s.Score
		}
		rg.mu.Unlock()
		m.standings.Put(cache.Standings{GameID: gameID, SeatNames: names, FinalScores: final})
	}
	m.mu.Lock()
	delete(m.games, gameID)
	m.mu.Unlock()
}

func (m *Manager) broadcast(gameID string, rg *runningGame, e events.ServiceEvent) {
	if e.Target.Broadcast {
		rg.mu.Lock()
		userIDs := rg.seatUserID
		rg.mu.Unlock()
		for _, u := range userIDs {
			if u == "" {
				continue
			}
			m.sendRaw(gameID, u, e)
		}
		return
	}
	rg.mu.Lock()
	userID := ""
	if e.Target.Seat >= 0 && e.Target.Seat < 4 {
		userID = rg.seatUserID[e.Target.Seat]
	}
	rg.mu.Unlock()
	if userID != "" {
		m.sendRaw(gameID, userID, e)
	}
}

func (m *Manager) sendRaw(gameID, userID string, v any) {
	connID := gameID + ":" + userID
	conn, ok := m.transport.Lookup(connID)
	if !ok {
		return
	}
	if err := conn.Send(v); err != nil {
		logging.Warn("session: send to %s failed: %v", connID, err)
	}
}

func (m *Manager) sendTo(gameID string, seat int, v any) {
	m.mu.RLock()
	rg, ok := m.games[gameID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	rg.mu.Lock()
	userID := rg.seatUserID[seat]
	rg.mu.Unlock()
	if userID != "" {
		m.sendRaw(gameID, userID, v)
	}
}

// armTimersAfter starts the appropriate timer for whatever the round
// is now waiting on: a turn-discard bank for the acting human seat, a
// meld-response window for every pending caller, or a round-advance
// timer for pending confirmations (spec §4.5).
func (m *Manager) armTimersAfter(gameID string, rg *runningGame) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	state := rg.game.State()
	if state.Phase != orchestrator.PhaseActive {
		return
	}

	if rg.game.IsRoundAdvancePending() {
		for seat := range rg.seatUserID {
			seat := seat
			if state.Players[seat].IsAI {
				continue
			}
			rg.timers.StartFixedFor(seat, timer.KindRoundAdvance, m.settings.RoundAdvanceTimeout, func(seat int, _ timer.Kind) {
				m.handleTimeout(gameID, seat, orchestrator.TimeoutRoundAdvance)
			})
		}
		return
	}

	switch state.Round.Phase {
	case roundfsm.AwaitingDiscard:
		seat := state.Round.CurrentSeat
		if !state.Players[seat].IsAI {
			rg.timers.StartFor(seat, timer.KindTurn, m.settings.TurnIncrement, func(seat int, _ timer.Kind) {
				m.handleTimeout(gameID, seat, orchestrator.TimeoutTurn)
			})
		}
	case roundfsm.AwaitingCallResponses:
		if prompt := state.Round.Prompt; prompt != nil {
			for seat := range prompt.PendingSeats {
				if state.Players[seat].IsAI {
					continue
				}
				seat := seat
				rg.timers.StartFixedFor(seat, timer.KindMeld, m.settings.MeldWindow, func(seat int, _ timer.Kind) {
					m.handleTimeout(gameID, seat, orchestrator.TimeoutCallResponse)
				})
			}
		}
	}
}

func (m *Manager) handleTimeout(gameID string, seat int, kind orchestrator.TimeoutKind) {
	m.mu.RLock()
	rg, ok := m.games[gameID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	rg.mu.Lock()
	ev, err := rg.game.HandleTimeout(seat, kind)
	rg.mu.Unlock()
	if err != nil {
		logging.Warn("session: timeout handling failed seat=%d game=%s: %v", seat, gameID, err)
		return
	}
	m.dispatchEvents(gameID, rg, ev)
	m.armTimersAfter(gameID, rg)
}

// RunHeartbeat drives the heartbeat monitor loop until ctx is
// canceled, meant to be started once at process startup.
func (m *Manager) RunHeartbeat(ctx context.Context) {
	m.heartbeat.Run(ctx)
}

// ErrUnknownGame is returned by lookups against a gameID with no
// pending or running game.
var ErrUnknownGame = errors.New("session: unknown game")
