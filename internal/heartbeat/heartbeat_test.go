package heartbeat

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	id       string
	lastSeen atomic.Value
	closed   atomic.Int32
}

func newFakePinger(id string) *fakePinger {
	p := &fakePinger{id: id}
	p.lastSeen.Store(time.Now())
	return p
}

func (p *fakePinger) ConnectionID() string { return p.id }
func (p *fakePinger) LastSeen() time.Time  { return p.lastSeen.Load().(time.Time) }
func (p *fakePinger) Close(reason string) error {
	p.closed.Add(1)
	return nil
}
func (p *fakePinger) setIdleSince(d time.Duration) {
	p.lastSeen.Store(time.Now().Add(-d))
}

func TestTrackAndTrackedCount(t *testing.T) {
	m := NewMonitor(time.Hour, time.Hour)
	m.Track(newFakePinger("a"))
	m.Track(newFakePinger("b"))
	require.Equal(t, 2, m.TrackedCount())

	m.Untrack("a")
	require.Equal(t, 1, m.TrackedCount())
}

func TestSweepClosesOnlyIdleConnections(t *testing.T) {
	m := NewMonitor(time.Hour, 50*time.Millisecond)
	fresh := newFakePinger("fresh")
	stale := newFakePinger("stale")
	stale.setIdleSince(time.Second)

	m.Track(fresh)
	m.Track(stale)
	m.sweep()

	require.Equal(t, int32(0), fresh.closed.Load())
	require.Equal(t, int32(1), stale.closed.Load())
	require.Equal(t, 1, m.TrackedCount())
}

func TestRunSweepsOnIntervalUntilContextCanceled(t *testing.T) {
	m := NewMonitor(10*time.Millisecond, 5*time.Millisecond)
	stale := newFakePinger("stale")
	stale.setIdleSince(time.Second)
	m.Track(stale)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return stale.closed.Load() == int32(1) }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestStopHaltsRun(t *testing.T) {
	m := NewMonitor(5*time.Millisecond, time.Hour)
	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	m.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
