package client

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period an edit must survive before its
// remote save fires.
const DefaultDebounce = 2 * time.Second

// SaveFunc persists one answer remotely.
type SaveFunc func(ctx context.Context, questionID int64, text string) error

// Autosave defers remote answer writes until input for a question quiesces.
// Each question has its own debounce window; a new edit cancels the
// previously scheduled write for that question, so at most one remote call
// fires per window per question (last write wins). Save failures surface
// through the error callback and are not retried.
type Autosave struct {
	mu       sync.Mutex
	idle     *sync.Cond // signalled when an in-flight write finishes
	delay    time.Duration
	save     SaveFunc
	onError  func(questionID int64, err error)
	drafts   map[int64]string
	dirty    map[int64]bool
	timers   map[int64]*time.Timer
	saved    map[int64]time.Time
	inflight map[int64]bool
}

// NewAutosave creates a coordinator with the given debounce delay
// (DefaultDebounce if non-positive). onError may be nil.
func NewAutosave(delay time.Duration, save SaveFunc, onError func(int64, error)) *Autosave {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	a := &Autosave{
		delay:    delay,
		save:     save,
		onError:  onError,
		drafts:   make(map[int64]string),
		dirty:    make(map[int64]bool),
		timers:   make(map[int64]*time.Timer),
		saved:    make(map[int64]time.Time),
		inflight: make(map[int64]bool),
	}
	a.idle = sync.NewCond(&a.mu)
	return a
}

// UpdateAnswer stores the draft immediately and (re)schedules the deferred
// remote write for that question, cancelling any write still pending.
func (a *Autosave) UpdateAnswer(questionID int64, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.drafts[questionID] = text
	a.dirty[questionID] = true
	if t, ok := a.timers[questionID]; ok {
		t.Stop()
	}
	a.timers[questionID] = time.AfterFunc(a.delay, func() { a.fire(questionID) })
}

// Answer returns the current in-memory draft, which may not be persisted yet.
func (a *Autosave) Answer(questionID int64) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drafts[questionID]
}

// LastSaved returns when the question's answer last reached the server.
func (a *Autosave) LastSaved(questionID int64) (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ts, ok := a.saved[questionID]
	return ts, ok
}

// Pending returns the questions with an unsaved edit or an in-flight write.
func (a *Autosave) Pending() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ids []int64
	for id := range a.dirty {
		if a.dirty[id] || a.inflight[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// anyInflight reports whether a debounce-triggered write is still running.
// Callers hold a.mu.
func (a *Autosave) anyInflight() bool {
	for _, in := range a.inflight {
		if in {
			return true
		}
	}
	return false
}

// fire is the debounce expiry path for one question.
func (a *Autosave) fire(questionID int64) {
	a.mu.Lock()
	if !a.dirty[questionID] {
		// Superseded by a flush or a cancel; nothing to write.
		delete(a.timers, questionID)
		a.mu.Unlock()
		return
	}
	text := a.drafts[questionID]
	a.dirty[questionID] = false
	a.inflight[questionID] = true
	delete(a.timers, questionID)
	a.mu.Unlock()

	err := a.save(context.Background(), questionID, text)

	a.mu.Lock()
	a.inflight[questionID] = false
	if err == nil {
		a.saved[questionID] = time.Now()
	}
	a.idle.Broadcast()
	a.mu.Unlock()

	if err != nil && a.onError != nil {
		a.onError(questionID, err)
	}
}

// Flush cancels every scheduled write, waits out any write already in
// flight, and saves all unsaved drafts synchronously, in question order.
// It stops at the first failure so the caller can retry before finalizing.
// When Flush returns nil, every draft has reached the server.
func (a *Autosave) Flush(ctx context.Context) error {
	a.mu.Lock()
	var ids []int64
	for id, t := range a.timers {
		t.Stop()
		delete(a.timers, id)
	}
	for a.anyInflight() {
		a.idle.Wait()
	}
	for id, d := range a.dirty {
		if d {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	texts := make(map[int64]string, len(ids))
	for _, id := range ids {
		texts[id] = a.drafts[id]
		a.dirty[id] = false
	}
	a.mu.Unlock()

	for _, id := range ids {
		if err := a.save(ctx, id, texts[id]); err != nil {
			a.mu.Lock()
			a.dirty[id] = true
			a.mu.Unlock()
			return err
		}
		a.mu.Lock()
		a.saved[id] = time.Now()
		a.mu.Unlock()
	}
	return nil
}
