package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// saveRecorder is a SaveFunc that records every remote write.
type saveRecorder struct {
	mu    sync.Mutex
	calls []savedAnswer
	err   error
}

type savedAnswer struct {
	questionID int64
	text       string
}

func (sr *saveRecorder) save(_ context.Context, questionID int64, text string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.err != nil {
		return sr.err
	}
	sr.calls = append(sr.calls, savedAnswer{questionID, text})
	return nil
}

func (sr *saveRecorder) count() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return len(sr.calls)
}

func (sr *saveRecorder) last() savedAnswer {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.calls[len(sr.calls)-1]
}

func TestDebounceCollapsesRapidEdits(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutosave(20*time.Millisecond, rec.save, nil)

	for i := 0; i < 5; i++ {
		a.UpdateAnswer(1, fmt.Sprintf("draft %d", i))
	}
	// Draft is visible immediately even though nothing is persisted yet.
	require.Equal(t, "draft 4", a.Answer(1))
	require.Equal(t, 0, rec.count())
	require.Equal(t, []int64{1}, a.Pending())

	require.Eventually(t, func() bool {
		return rec.count() == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, savedAnswer{1, "draft 4"}, rec.last())

	// Exactly one write per quiet window.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, rec.count())
	require.Empty(t, a.Pending())

	_, saved := a.LastSaved(1)
	require.True(t, saved)
}

func TestEditsToDifferentQuestionsAreIndependent(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutosave(20*time.Millisecond, rec.save, nil)

	a.UpdateAnswer(1, "answer one")
	a.UpdateAnswer(2, "answer two")

	require.Eventually(t, func() bool {
		return rec.count() == 2
	}, time.Second, time.Millisecond)

	got := map[int64]string{}
	rec.mu.Lock()
	for _, c := range rec.calls {
		got[c.questionID] = c.text
	}
	rec.mu.Unlock()
	require.Equal(t, map[int64]string{1: "answer one", 2: "answer two"}, got)
}

func TestFlushWritesPendingBeforeReturning(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutosave(time.Minute, rec.save, nil)

	a.UpdateAnswer(2, "second")
	a.UpdateAnswer(1, "first")

	require.NoError(t, a.Flush(context.Background()))
	require.Equal(t, 2, rec.count())

	// Cancelled debounce timers must not fire a duplicate write later.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 2, rec.count())
	require.Empty(t, a.Pending())
}

func TestFlushWaitsForInflightWrite(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	rec := &saveRecorder{}
	a := NewAutosave(time.Millisecond, func(ctx context.Context, id int64, text string) error {
		started <- struct{}{}
		<-release
		return rec.save(ctx, id, text)
	}, nil)

	a.UpdateAnswer(1, "final")
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("debounced write never started")
	}

	flushed := make(chan error, 1)
	go func() { flushed <- a.Flush(context.Background()) }()

	// Flush must not return while the debounced write is still running;
	// otherwise the caller finalizes with the answer not yet persisted.
	select {
	case <-flushed:
		t.Fatal("Flush returned before the in-flight write landed")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-flushed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Flush did not return after the write landed")
	}
	require.Equal(t, 1, rec.count())
	require.Equal(t, savedAnswer{1, "final"}, rec.last())
	require.Empty(t, a.Pending())
}

func TestFlushNothingPending(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutosave(time.Minute, rec.save, nil)
	require.NoError(t, a.Flush(context.Background()))
	require.Equal(t, 0, rec.count())
}

func TestSaveFailureSurfacesWithoutRetry(t *testing.T) {
	rec := &saveRecorder{err: errors.New("network down")}

	var mu sync.Mutex
	var failures []int64
	a := NewAutosave(10*time.Millisecond, rec.save, func(questionID int64, err error) {
		mu.Lock()
		failures = append(failures, questionID)
		mu.Unlock()
	})

	a.UpdateAnswer(3, "doomed")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failures) == 1 && failures[0] == 3
	}, time.Second, time.Millisecond)

	// No automatic retry and no recorded save timestamp.
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	require.Len(t, failures, 1)
	mu.Unlock()
	_, saved := a.LastSaved(3)
	require.False(t, saved)
}

func TestFlushStopsAtFirstFailure(t *testing.T) {
	rec := &saveRecorder{err: errors.New("store offline")}
	a := NewAutosave(time.Minute, rec.save, nil)

	a.UpdateAnswer(1, "one")
	err := a.Flush(context.Background())
	require.Error(t, err)

	// The failed draft stays pending so a retried flush picks it up.
	require.Equal(t, []int64{1}, a.Pending())

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()
	require.NoError(t, a.Flush(context.Background()))
	require.Equal(t, savedAnswer{1, "one"}, rec.last())
}
