// Package events defines the server → client event sum type, the two
// closed sets of error codes, the close codes, and the two error
// classes spec §7 separates: InvalidGameAction (a hard Go error that
// disconnects the seat) and the soft Error event (a payload, not a
// raised error).
//
// Grounded on the teacher's share/game_message.go event-tag style
// (runtime/game/share) and transfer/route.go's named route constants
// (core/infrastructure/message/transfer), generalized to the closed
// sum types spec §6/§9 call for.
package events

import (
	"fmt"

	"riichicore/internal/tiles"
)

// Target selects who receives a ServiceEvent.
type Target struct {
	Broadcast bool
	Seat      int // valid only when Broadcast is false
}

func Broadcast() Target     { return Target{Broadcast: true} }
func ToSeat(seat int) Target { return Target{Seat: seat} }

// Kind names every ServiceEvent variant spec §6 lists.
type Kind string

const (
	KindRoomJoined         Kind = "RoomJoined"
	KindPlayerJoined       Kind = "PlayerJoined"
	KindPlayerLeft         Kind = "PlayerLeft"
	KindPlayerReadyChanged Kind = "PlayerReadyChanged"
	KindGameStarting       Kind = "GameStarting"
	KindGameReconnected    Kind = "GameReconnected"
	KindPlayerReconnected  Kind = "PlayerReconnected"
	KindRoomLeft           Kind = "RoomLeft"
	KindGameLeft           Kind = "GameLeft"
	KindPong               Kind = "Pong"
	KindError              Kind = "Error"

	KindGameStarted   Kind = "GameStarted"
	KindRoundStarted  Kind = "RoundStarted"
	KindDraw          Kind = "Draw"
	KindDiscard       Kind = "Discard"
	KindMeld          Kind = "Meld"
	KindCallPrompt    Kind = "CallPrompt"
	KindRiichi        Kind = "RiichiDeclared"
	KindDoraRevealed  Kind = "DoraRevealed"
	KindFuriten       Kind = "Furiten"
	KindRoundEnd      Kind = "RoundEnd"
	KindGameEnded     Kind = "GameEnded"
)

// ServiceEvent is the single outbound event envelope. Payload holds
// one of the *Payload structs below, keyed by Kind.
type ServiceEvent struct {
	Kind    Kind
	Target  Target
	Payload any
}

// GameErrorCode is the closed set of in-game error kinds (spec §6).
type GameErrorCode string

const (
	ErrInvalidDiscard    GameErrorCode = "INVALID_DISCARD"
	ErrInvalidRiichi     GameErrorCode = "INVALID_RIICHI"
	ErrInvalidPon        GameErrorCode = "INVALID_PON"
	ErrInvalidChi        GameErrorCode = "INVALID_CHI"
	ErrInvalidKan        GameErrorCode = "INVALID_KAN"
	ErrInvalidPass       GameErrorCode = "INVALID_PASS"
	ErrInvalidRon        GameErrorCode = "INVALID_RON"
	ErrCannotCallKyuushu GameErrorCode = "CANNOT_CALL_KYUUSHU"
	ErrNotYourTurn       GameErrorCode = "NOT_YOUR_TURN"
	ErrGameError         GameErrorCode = "GAME_ERROR"
)

// SessionErrorCode is the closed set of session-layer error kinds (spec §6).
type SessionErrorCode string

const (
	ErrAlreadyInGame     SessionErrorCode = "ALREADY_IN_GAME"
	ErrNotInGame         SessionErrorCode = "NOT_IN_GAME"
	ErrGameNotStarted    SessionErrorCode = "GAME_NOT_STARTED"
	ErrRoomNotFound      SessionErrorCode = "ROOM_NOT_FOUND"
	ErrRoomFull          SessionErrorCode = "ROOM_FULL"
	ErrRoomTransitioning SessionErrorCode = "ROOM_TRANSITIONING"
	ErrReconnectFailed   SessionErrorCode = "RECONNECT_FAILED"
	ErrReconnectNotFound SessionErrorCode = "RECONNECT_NOT_FOUND"
	ErrJoinGameFailed    SessionErrorCode = "JOIN_GAME_FAILED"
	ErrJoinGameFull      SessionErrorCode = "JOIN_GAME_FULL"
	ErrInvalidTicket     SessionErrorCode = "INVALID_TICKET"
)

// ErrorPayload is the Error event body — a soft failure, never mutates
// state (spec §7 "Soft error").
type ErrorPayload struct {
	Code    string
	Message string
}

// RoundStartedPayload announces a fresh deal. Per spec §4.1 "Round
// Started" the concealed hands of other seats are never included;
// callers merge a per-seat OwnHand view before sending to each socket.
type RoundStartedPayload struct {
	RoundNumber   int
	DealerSeat    int
	RoundWind     int
	Honba         int
	RiichiSticks  int
	DoraIndicator tiles.Tile
	OwnHand       []tiles.Tile `json:",omitempty"`
}

// DrawPayload announces a seat drawing a tile. Only the drawing
// seat's socket receives the tile value; others see only the count.
type DrawPayload struct {
	Seat           int
	Tile           tiles.Tile `json:",omitempty"`
	RemainingTiles int
}

// DiscardPayload announces a discard.
type DiscardPayload struct {
	Seat        int
	Tile        tiles.Tile
	IsTsumogiri bool
	IsRiichi    bool
}

// MeldPayload announces a called or declared meld.
type MeldPayload struct {
	Seat       int
	Type       string
	Tiles      []tiles.Tile
	CalledTile tiles.Tile `json:",omitempty"`
	FromSeat   int        `json:",omitempty"`
}

// CallPromptPayload announces a window for ron/meld responses.
type CallPromptPayload struct {
	DiscardedTile tiles.Tile
	FromSeat      int
	PendingSeats  []int
	TimeoutMillis int
}

// RiichiPayload announces a riichi declaration and the stick it puts
// on the table.
type RiichiPayload struct {
	Seat int
}

// DoraRevealedPayload announces a new dora indicator flip (immediate
// or a batch of deferred reveals, spec §4.1 "Dora timing").
type DoraRevealedPayload struct {
	Indicators []tiles.Tile
}

// FuritenPayload announces a furiten state change for one seat.
type FuritenPayload struct {
	Seat      int
	IsFuriten bool
	Temporary bool
}

// RoundEndPayload announces how a round ended and the resulting point
// deltas, applied honba/riichi-stick bookkeeping.
type RoundEndPayload struct {
	Reason        string
	WinnerSeats   []int `json:",omitempty"`
	LoserSeat     int   `json:",omitempty"`
	PointDeltas   [4]int
	Honba         int
	RiichiSticks  int
	DealerRetained bool
}

// GameEndedPayload announces the game's final standings.
type GameEndedPayload struct {
	FinalScores [4]int
}

// CloseCode is the closed set of websocket close codes spec §6 names.
type CloseCode int

const (
	CloseNormal          CloseCode = 1000
	ClosePolicyViolation CloseCode = 1008
	CloseInternalError   CloseCode = 1011
	CloseAuthTimeout     CloseCode = 4001
)

const (
	ReasonGameEnded        = "game_ended"
	ReasonInvalidAction    = "invalid_game_action"
	ReasonReplacedByReconn = "replaced_by_reconnect"
	ReasonClientIdle       = "client_idle"
	ReasonAuthTimeout      = "auth_timeout_exceeded"
)

// InvalidGameAction is the hard-invalid error class from spec §4.3/§7:
// forged payloads, protocol violations, rule violations a well-behaved
// client could not legitimately produce. Handling it always disconnects
// the offending seat and substitutes an AI player.
type InvalidGameAction struct {
	Seat   int
	Action string
	Reason string
}

func (e *InvalidGameAction) Error() string {
	return fmt.Sprintf("invalid game action: seat=%d action=%s reason=%s", e.Seat, e.Action, e.Reason)
}

func NewInvalidGameAction(seat int, action, reason string) *InvalidGameAction {
	return &InvalidGameAction{Seat: seat, Action: action, Reason: reason}
}
