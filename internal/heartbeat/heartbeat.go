// Package heartbeat implements spec §4.7's Heartbeat Monitor: a
// ticker loop that samples every tracked connection's last-seen time
// and closes the idle ones, grounded on the teacher's Monitor in
// framework/game/monitor.go (same immediate-first-tick, ctx/stopCh/
// ticker select loop, just sampling connection liveness instead of
// process load).
package heartbeat

import (
	"context"
	"sync"
	"time"

	"riichicore/internal/logging"
)

// Pinger is the capability a tracked connection must offer: when it
// was last heard from, and how to close it if it goes idle.
type Pinger interface {
	ConnectionID() string
	LastSeen() time.Time
	Close(reason string) error
}

// Monitor ticks on interval, closing any tracked connection whose
// LastSeen exceeds idleThreshold (spec §4.7 "idle disconnect").
type Monitor struct {
	mu             sync.Mutex
	tracked        map[string]Pinger
	interval       time.Duration
	idleThreshold  time.Duration
	stopCh         chan struct{}
}

// NewMonitor builds a Monitor with the given ping cadence and idle
// threshold (spec §4.7's two configured constants).
func NewMonitor(interval, idleThreshold time.Duration) *Monitor {
	return &Monitor{
		tracked:       make(map[string]Pinger),
		interval:      interval,
		idleThreshold: idleThreshold,
		stopCh:        make(chan struct{}),
	}
}

// Track begins watching a connection for idleness.
func (m *Monitor) Track(p Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked[p.ConnectionID()] = p
}

// Untrack stops watching a connection, e.g. on clean close.
func (m *Monitor) Untrack(connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracked, connectionID)
}

// Run blocks, sweeping for idle connections every interval until ctx
// is canceled or Stop is called.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sweep()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// Stop halts Run.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) sweep() {
	now := time.Now()
	m.mu.Lock()
	idle := make([]Pinger, 0)
	for id, p := range m.tracked {
		if now.Sub(p.LastSeen()) > m.idleThreshold {
			idle = append(idle, p)
			delete(m.tracked, id)
		}
	}
	m.mu.Unlock()

	for _, p := range idle {
		if err := p.Close("idle timeout"); err != nil {
			logging.Warn("heartbeat: closing idle connection %s failed: %v", p.ConnectionID(), err)
		} else {
			logging.Info("heartbeat: closed idle connection %s", p.ConnectionID())
		}
	}
}

// TrackedCount reports how many connections are currently watched,
// used by internal/stats' load snapshot.
func (m *Monitor) TrackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracked)
}
