// Package timer implements spec §4.5's Timer Manager: one time bank
// per seat that counts down on a context.WithTimeout goroutine,
// mirroring the teacher's PlayerTicker/TurnManager in
// runtime/game/engines/mahjong/turn_manager.go, generalized from a
// single turn-timer kind to the three kinds spec §4.5 names (turn
// discard, meld-response window, round-advance confirmation).
package timer

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Kind tags which of spec §4.5's three timer uses a Timer is running.
type Kind int

const (
	KindTurn Kind = iota
	KindMeld
	KindRoundAdvance
)

// State mirrors the teacher's TickerState.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateTimeout
)

// Timer is one seat's running countdown: a bank of seconds that
// persists across turns, plus a per-turn increment added before each
// start (spec §4.5 "bank plus increment").
type Timer struct {
	mu sync.Mutex

	seat      int
	kind      Kind
	available time.Duration
	startedAt time.Time
	state     State
	running   bool
	cancel    context.CancelFunc

	onTimeout func(seat int, kind Kind)
}

// NewTimer builds a timer for seat with an initial bank.
func NewTimer(seat int, bank time.Duration) *Timer {
	return &Timer{seat: seat, available: bank, state: StateIdle}
}

// Start runs for duration (capped at the timer's available bank plus
// increment), firing onTimeout if it is not stopped first.
func (t *Timer) Start(kind Kind, increment time.Duration, onTimeout func(seat int, kind Kind)) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return errors.New("timer: already running")
	}
	t.available += increment
	duration := t.available
	t.kind = kind
	t.onTimeout = onTimeout
	t.running = true
	t.state = StateRunning
	t.startedAt = time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	t.cancel = cancel
	t.mu.Unlock()

	go t.wait(ctx)
	return nil
}

func (t *Timer) wait(ctx context.Context) {
	<-ctx.Done()

	t.mu.Lock()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.state = StateTimeout
		t.running = false
		t.available = 0
		cb, seat, kind := t.onTimeout, t.seat, t.kind
		t.mu.Unlock()
		if cb != nil {
			cb(seat, kind)
		}
		return
	}
	used := time.Since(t.startedAt)
	t.available -= used
	if t.available < 0 {
		t.available = 0
	}
	t.state = StateStopped
	t.running = false
	t.mu.Unlock()
}

// Stop cancels a running timer, crediting back the unused remainder
// to the bank. Returns false if the timer was not running.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	if !t.running || t.cancel == nil {
		t.mu.Unlock()
		return false
	}
	cancel := t.cancel
	t.mu.Unlock()
	cancel()
	return true
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) Available() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.available
}

// SetAvailable overwrites the bank outright; used to arm a
// fixed-duration timer (meld window, round-advance confirmation)
// instead of carrying over whatever remained of the turn bank.
func (t *Timer) SetAvailable(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		t.available = d
	}
}

// Manager owns the four per-seat timers for one running game (spec
// §4.5 "one bank per seat, shared across turn/meld/round-advance use").
type Manager struct {
	mu     sync.Mutex
	timers [4]*Timer
	active int // seat currently running a timer, or -1
}

// NewManager builds a Manager with each seat starting at bank.
func NewManager(bank time.Duration) *Manager {
	m := &Manager{active: -1}
	for i := range m.timers {
		m.timers[i] = NewTimer(i, bank)
	}
	return m
}

// StartFor stops whatever timer is currently running, then starts
// seat's timer for kind with the given per-turn increment.
func (m *Manager) StartFor(seat int, kind Kind, increment time.Duration, onTimeout func(seat int, kind Kind)) error {
	m.mu.Lock()
	if m.active >= 0 && m.active != seat {
		m.timers[m.active].Stop()
	}
	m.active = seat
	timer := m.timers[seat]
	m.mu.Unlock()
	return timer.Start(kind, increment, onTimeout)
}

// StartFixedFor arms seat's timer for exactly duration, ignoring
// whatever bank remains (spec §4.5 "fixed-duration meld and
// round-advance timers", distinct from the chess-clock turn bank).
func (m *Manager) StartFixedFor(seat int, kind Kind, duration time.Duration, onTimeout func(seat int, kind Kind)) error {
	m.mu.Lock()
	if m.active >= 0 && m.active != seat {
		m.timers[m.active].Stop()
	}
	m.active = seat
	timer := m.timers[seat]
	m.mu.Unlock()
	timer.SetAvailable(0)
	return timer.Start(kind, duration, onTimeout)
}

// CreditAll adds d to every idle seat's bank, used to hand out spec
// §4.5's round-advance bonus once a new round is dealt.
func (m *Manager) CreditAll(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		t.SetAvailable(t.Available() + d)
	}
}

// StopAll halts every running timer, used on round/game end.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		t.Stop()
	}
	m.active = -1
}

// Stop halts seat's own timer without disturbing the others, used
// once that seat has acted (spec §4.5 "stop on action").
func (m *Manager) Stop(seat int) bool {
	m.mu.Lock()
	timer := m.timers[seat]
	if m.active == seat {
		m.active = -1
	}
	m.mu.Unlock()
	return timer.Stop()
}

// RemainingSeconds reports seat's current bank, for reconnection
// snapshots (spec §4.4 "BuildReconnectionSnapshot").
func (m *Manager) RemainingSeconds(seat int) int {
	return int(m.timers[seat].Available().Seconds())
}
