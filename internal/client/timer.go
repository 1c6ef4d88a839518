package client

import (
	"fmt"
	"sync"
	"time"
)

// Timer counts down wall-clock seconds for a timed exam attempt. Remaining
// time decrements by exactly one per second; when it reaches zero the timer
// stops itself and fires the completion callback exactly once.
type Timer struct {
	mu        sync.Mutex
	initial   int
	remaining int
	running   bool
	fired     bool
	gen       int // bumped on pause/reset so a stale tick cannot land
	pending   *time.Timer
	interval  time.Duration
	onDone    func()
}

// NewTimer creates a countdown over the given number of seconds. The timer
// starts immediately unless autoStart is false. onDone may be nil.
func NewTimer(seconds int, autoStart bool, onDone func()) *Timer {
	t := &Timer{
		initial:   seconds,
		remaining: seconds,
		interval:  time.Second,
		onDone:    onDone,
	}
	if autoStart {
		t.Start()
	}
	return t
}

// Start resumes the countdown if it is not already running.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running || t.remaining <= 0 {
		return
	}
	t.running = true
	t.schedule()
}

// Pause halts the countdown without resetting elapsed time. A tick already
// scheduled is cancelled and can never decrement after the pause.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelPending()
	t.running = false
}

// Reset stops the countdown and reinitializes it to the given duration.
// A non-positive value restores the original duration.
func (t *Timer) Reset(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelPending()
	t.running = false
	t.fired = false
	if seconds > 0 {
		t.initial = seconds
	}
	t.remaining = t.initial
}

// Remaining returns the remaining seconds.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether the countdown is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// FormatTime renders the remaining time as HH:MM:SS when the timer's
// capacity is an hour or more, else MM:SS.
func (t *Timer) FormatTime() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.remaining
	if r < 0 {
		r = 0
	}
	if t.initial >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", r/3600, (r%3600)/60, r%60)
	}
	return fmt.Sprintf("%02d:%02d", r/60, r%60)
}

// schedule arms the next tick. Callers hold t.mu.
func (t *Timer) schedule() {
	gen := t.gen
	t.pending = time.AfterFunc(t.interval, func() { t.tick(gen) })
}

// cancelPending invalidates any armed tick. Callers hold t.mu.
func (t *Timer) cancelPending() {
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *Timer) tick(gen int) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	t.remaining--
	if t.remaining > 0 {
		t.schedule()
		t.mu.Unlock()
		return
	}
	t.remaining = 0
	t.running = false
	t.pending = nil
	fire := !t.fired && t.onDone != nil
	t.fired = true
	t.mu.Unlock()

	// Callback runs outside the lock so it may use the timer freely.
	if fire {
		t.onDone()
	}
}
