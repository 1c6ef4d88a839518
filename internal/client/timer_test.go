package client

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newFastTimer(seconds int, onDone func()) *Timer {
	t := NewTimer(seconds, false, onDone)
	t.interval = 2 * time.Millisecond
	return t
}

func TestTimerCountsDownAndFiresOnce(t *testing.T) {
	var fired atomic.Int32
	tm := newFastTimer(3, func() { fired.Add(1) })
	tm.Start()

	require.Eventually(t, func() bool {
		return tm.Remaining() == 0
	}, time.Second, time.Millisecond)

	require.False(t, tm.Running(), "timer should stop itself at zero")
	require.Equal(t, int32(1), fired.Load())

	// No further ticks, no second completion.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 0, tm.Remaining())
	require.Equal(t, int32(1), fired.Load())
}

func TestTimerPauseHaltsDecrement(t *testing.T) {
	tm := newFastTimer(100, nil)
	tm.Start()

	require.Eventually(t, func() bool {
		return tm.Remaining() < 100
	}, time.Second, time.Millisecond)

	tm.Pause()
	require.False(t, tm.Running())
	snap := tm.Remaining()

	// A tick scheduled before the pause must not land after it.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, snap, tm.Remaining())

	// Resuming continues from where it paused.
	tm.Start()
	require.Eventually(t, func() bool {
		return tm.Remaining() < snap
	}, time.Second, time.Millisecond)
}

func TestTimerReset(t *testing.T) {
	tm := newFastTimer(50, nil)
	tm.Start()

	require.Eventually(t, func() bool {
		return tm.Remaining() < 50
	}, time.Second, time.Millisecond)

	tm.Reset(7)
	require.Equal(t, 7, tm.Remaining())
	require.False(t, tm.Running(), "reset stops the countdown")

	// No stale tick decrements the fresh value.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 7, tm.Remaining())
}

func TestTimerResetToOriginal(t *testing.T) {
	tm := newFastTimer(9, nil)
	tm.Start()
	require.Eventually(t, func() bool {
		return tm.Remaining() < 9
	}, time.Second, time.Millisecond)

	tm.Reset(0)
	require.Equal(t, 9, tm.Remaining())
}

func TestTimerStartAtZeroDoesNothing(t *testing.T) {
	var fired atomic.Int32
	tm := newFastTimer(1, func() { fired.Add(1) })
	tm.Start()
	require.Eventually(t, func() bool {
		return tm.Remaining() == 0
	}, time.Second, time.Millisecond)

	tm.Start()
	time.Sleep(10 * time.Millisecond)
	require.False(t, tm.Running())
	require.Equal(t, int32(1), fired.Load())
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{3665, "01:01:05"},
		{3600, "01:00:00"},
		{90, "01:30"},
		{5, "00:05"},
		{0, "00:00"},
	}
	for _, tt := range tests {
		tm := NewTimer(tt.seconds, false, nil)
		require.Equal(t, tt.want, tm.FormatTime(), "seconds=%d", tt.seconds)
	}
}
