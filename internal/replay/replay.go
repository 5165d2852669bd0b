// Package replay implements spec §4.6's Replay Collector: an
// in-memory, append-only per-game journal that filters the broadcast
// event stream down to what a later playback needs, flushed to
// storage once the game ends. Grounded on the teacher's GamePersister
// in runtime/game/engines/mahjong/persist.go (mutex-guarded event
// collection, async FinalizeGame write with a bounded context), with
// per-event-type Record* methods generalized into one RecordEvent
// that applies spec §4.6's keep/drop/merge filter to whatever
// events.ServiceEvent the round/game layer emits.
package replay

import (
	"context"
	"sync"
	"time"

	"riichicore/internal/events"

	"riichicore/internal/logging"
)

// Entry is one retained event in a round's journal.
type Entry struct {
	Seq     int
	Kind    events.Kind
	Seat    int // -1 for broadcast events
	Payload any
}

// RoundRecord is one round's filtered journal plus its final outcome.
type RoundRecord struct {
	RoundNumber int
	RoundWind   int
	DealerSeat  int
	Honba       int
	Events      []Entry
	Deltas      [4]int
	EndReason   string
}

// Header is a game's replay-identifying metadata (spec §4.6 "replay
// header records the seed and RNG version so playback reproduces the
// same wall").
type Header struct {
	GameID     string
	Seed       int64
	RNGVersion int
}

// GameRecord is the complete replay for one game, the unit
// GameHistoryStore persists.
type GameRecord struct {
	Header Header
	Rounds []RoundRecord
}

// GameHistoryStore is the persistence seam FinalizeGame writes
// through, mirroring the teacher's GameRecordRepository.
type GameHistoryStore interface {
	SaveGameRecord(ctx context.Context, record *GameRecord) error
	FindGameRecord(ctx context.Context, gameID string) (*GameRecord, error)
	FindGameRecordsByUser(ctx context.Context, userID string, limit, offset int) ([]*GameRecord, error)
}

// roundStartMerge buffers per-seat RoundStarted events so they merge
// into one journal entry instead of four (spec §4.6 "RoundStarted is
// broadcast once to the journal, not once per seat delivery").
type roundStartMerge struct {
	seen    map[int]bool
	payload *[4]any // each seat's RoundStarted payload, indexed by seat
}

// Collector is one game's in-progress journal.
type Collector struct {
	mu         sync.Mutex
	header     Header
	rounds     []RoundRecord
	current    *RoundRecord
	seq        int
	roundStart *roundStartMerge
	closed     bool
}

// NewCollector begins a journal for gameID, sized by the table's seed
// and RNG version (spec §4.6's Header).
func NewCollector(gameID string, seed int64, rngVersion int) *Collector {
	return &Collector{header: Header{GameID: gameID, Seed: seed, RNGVersion: rngVersion}}
}

// StartRound opens a new RoundRecord, closing out tracking state
// carried from any previous round.
func (c *Collector) StartRound(roundNumber, roundWind, dealerSeat, honba int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.current = &RoundRecord{RoundNumber: roundNumber, RoundWind: roundWind, DealerSeat: dealerSeat, Honba: honba}
	c.roundStart = nil
}

// keepKind reports whether kind survives spec §4.6's journal filter:
// broadcast state-changing events are kept; call prompts, errors,
// furiten notices and Pong replies are dropped (they're reconstructable
// from state, and are connection-specific rather than game-historical).
func keepKind(kind events.Kind) bool {
	switch kind {
	case events.KindCallPrompt, events.KindError, events.KindFuriten, events.KindPong:
		return false
	default:
		return true
	}
}

// RecordEvent appends ev to the current round's journal if it passes
// spec §4.6's filter, merging per-seat RoundStarted deliveries into a
// single entry.
func (c *Collector) RecordEvent(ev events.ServiceEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.current == nil || !keepKind(ev.Kind) {
		return
	}

	if ev.Kind == events.KindRoundStarted && !ev.Target.Broadcast {
		if c.roundStart == nil {
			c.roundStart = &roundStartMerge{seen: make(map[int]bool), payload: &[4]any{}}
			c.appendLocked(ev.Kind, -1, c.roundStart.payload)
		}
		if seat := ev.Target.Seat; seat >= 0 && seat < 4 {
			c.roundStart.payload[seat] = ev.Payload
		}
		c.roundStart.seen[ev.Target.Seat] = true
		return
	}

	seat := -1
	if !ev.Target.Broadcast {
		seat = ev.Target.Seat
	}
	c.appendLocked(ev.Kind, seat, ev.Payload)
}

func (c *Collector) appendLocked(kind events.Kind, seat int, payload any) {
	c.seq++
	c.current.Events = append(c.current.Events, Entry{Seq: c.seq, Kind: kind, Seat: seat, Payload: payload})
}

// CompleteRound closes out the current round with its settlement
// outcome and files it into the game's round list.
func (c *Collector) CompleteRound(deltas [4]int, endReason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.current == nil {
		return
	}
	c.current.Deltas = deltas
	c.current.EndReason = endReason
	c.rounds = append(c.rounds, *c.current)
	c.current = nil
}

// FinalizeGame closes the journal and asynchronously flushes it to
// store, mirroring GamePersister.FinalizeGame's bounded-context async
// write pattern.
func (c *Collector) FinalizeGame(store GameHistoryStore) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	record := &GameRecord{Header: c.header, Rounds: append([]RoundRecord(nil), c.rounds...)}
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.SaveGameRecord(ctx, record); err != nil {
			logging.Error("replay: save game record %s failed: %v", c.header.GameID, err)
			return
		}
		logging.Info("replay: saved game record %s (%d rounds)", c.header.GameID, len(record.Rounds))
	}()
}
