package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartThenStopCreditsBackRemainder(t *testing.T) {
	tm := NewTimer(0, 5*time.Second)
	require.NoError(t, tm.Start(KindTurn, 0, nil))
	time.Sleep(20 * time.Millisecond)
	require.True(t, tm.Stop())

	time.Sleep(10 * time.Millisecond)
	require.Equal(t, StateStopped, tm.State())
	require.Less(t, tm.Available(), 5*time.Second)
	require.Greater(t, tm.Available(), 4*time.Second)
}

func TestStartWhileRunningErrors(t *testing.T) {
	tm := NewTimer(0, time.Second)
	require.NoError(t, tm.Start(KindTurn, 0, nil))
	require.Error(t, tm.Start(KindTurn, 0, nil))
	tm.Stop()
}

func TestTimeoutFiresCallbackAndZeroesBank(t *testing.T) {
	tm := NewTimer(0, 20*time.Millisecond)
	var fired int32
	done := make(chan struct{})
	require.NoError(t, tm.Start(KindTurn, 0, func(seat int, kind Kind) {
		atomic.StoreInt32(&fired, 1)
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout callback never fired")
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
	require.Equal(t, StateTimeout, tm.State())
	require.Equal(t, time.Duration(0), tm.Available())
}

func TestSetAvailableIgnoredWhileRunning(t *testing.T) {
	tm := NewTimer(0, time.Second)
	require.NoError(t, tm.Start(KindTurn, 0, nil))
	tm.SetAvailable(10 * time.Second)
	require.Less(t, tm.Available(), 2*time.Second)
	tm.Stop()
}

func TestManagerStartForStopsPreviousActiveSeat(t *testing.T) {
	m := NewManager(time.Second)
	require.NoError(t, m.StartFor(0, KindTurn, 0, nil))
	require.Equal(t, StateRunning, m.timers[0].State())

	require.NoError(t, m.StartFor(1, KindTurn, 0, nil))
	time.Sleep(10 * time.Millisecond)
	require.NotEqual(t, StateRunning, m.timers[0].State())
	require.Equal(t, StateRunning, m.timers[1].State())
	m.StopAll()
}

func TestManagerStartFixedForResetsBank(t *testing.T) {
	m := NewManager(5 * time.Second)
	require.NoError(t, m.StartFixedFor(2, KindMeld, 50*time.Millisecond, nil))
	require.Less(t, m.timers[2].Available(), 100*time.Millisecond)
	m.StopAll()
}

func TestManagerCreditAllAddsToEveryIdleSeat(t *testing.T) {
	m := NewManager(0)
	m.CreditAll(3 * time.Second)
	for seat := 0; seat < 4; seat++ {
		require.Equal(t, 3*time.Second, m.timers[seat].Available())
	}
}

func TestManagerStopReturnsFalseWhenIdle(t *testing.T) {
	m := NewManager(time.Second)
	require.False(t, m.Stop(0))
}

func TestRemainingSecondsReflectsBank(t *testing.T) {
	m := NewManager(7 * time.Second)
	require.Equal(t, 7, m.RemainingSeconds(0))
}
