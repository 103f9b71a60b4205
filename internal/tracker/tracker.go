// Package tracker keeps a session's completion map in memory and writes
// changes through to a backend in the background.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var syncWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habits_tracker_sync_writes_total",
		Help: "Completion writes applied to the backend by result",
	},
	[]string{"result"},
)

var ErrClosed = errors.New("tracker closed")

type Backend interface {
	LoadCompletions(ctx context.Context) (habit.CompletionMap, error)
	SetCompletion(ctx context.Context, habitID, dateKey string, done bool) error
}

// Write is one pending completion change.
type Write struct {
	HabitID string
	DateKey string
	Done    bool
}

type Option func(*Tracker)

// WithOnError replaces the default failure notifier, which logs a warning.
func WithOnError(fn func(Write, error)) Option {
	return func(t *Tracker) { t.onError = fn }
}

// Tracker is safe for concurrent use. Local state changes immediately; the
// backend sees writes in call order from a single worker, so the last call
// for a key wins.
type Tracker struct {
	backend Backend
	onError func(Write, error)

	mu      sync.Mutex
	done    habit.CompletionMap
	pending []Write
	closed  bool
	wake    chan struct{}

	stopped chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(backend Backend, opts ...Option) *Tracker {
	t := &Tracker{
		backend: backend,
		done:    habit.CompletionMap{},
		stopped: make(chan struct{}),
	}
	t.onError = func(w Write, err error) {
		logger.Warn("Failed to sync completion", "habit_id", w.HabitID, "date", w.DateKey, "done", w.Done, "error", err)
	}
	for _, opt := range opts {
		opt(t)
	}
	t.wake = make(chan struct{}, 1)
	t.ctx, t.cancel = context.WithCancel(context.Background())

	go t.run()
	return t
}

// BulkLoad replaces local state with the backend's completion map.
func (t *Tracker) BulkLoad(ctx context.Context) error {
	m, err := t.backend.LoadCompletions(ctx)
	if err != nil {
		return fmt.Errorf("load completions: %w", err)
	}
	if m == nil {
		m = habit.CompletionMap{}
	}

	t.mu.Lock()
	t.done = m
	t.mu.Unlock()
	return nil
}

func (t *Tracker) IsDone(habitID, dateKey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done.Done(habitID, dateKey)
}

// SetDone updates local state and queues the backend write. It never waits
// for the backend.
func (t *Tracker) SetDone(habitID, dateKey string, done bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.done.Set(habitID, dateKey, done)
	t.enqueueLocked(Write{HabitID: habitID, DateKey: dateKey, Done: done})
	return nil
}

// Toggle flips a completion and returns the new value.
func (t *Tracker) Toggle(habitID, dateKey string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false, ErrClosed
	}
	next := !t.done.Done(habitID, dateKey)
	t.done.Set(habitID, dateKey, next)
	t.enqueueLocked(Write{HabitID: habitID, DateKey: dateKey, Done: next})
	return next, nil
}

// Snapshot returns a copy that is safe to hand to the stats engine.
func (t *Tracker) Snapshot() habit.CompletionMap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done.Clone()
}

// Close stops accepting writes and waits for queued ones to be applied, or
// for ctx to end, whichever is first.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		t.signal()
	}
	t.mu.Unlock()

	select {
	case <-t.stopped:
		return nil
	case <-ctx.Done():
		t.cancel()
		<-t.stopped
		return ctx.Err()
	}
}

func (t *Tracker) enqueueLocked(w Write) {
	t.pending = append(t.pending, w)
	t.signal()
}

func (t *Tracker) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Tracker) run() {
	defer close(t.stopped)
	for {
		t.mu.Lock()
		if len(t.pending) == 0 {
			if t.closed {
				t.mu.Unlock()
				return
			}
			t.mu.Unlock()
			<-t.wake
			continue
		}
		w := t.pending[0]
		t.pending = t.pending[1:]
		t.mu.Unlock()

		if t.ctx.Err() != nil {
			t.onError(w, t.ctx.Err())
			syncWritesTotal.WithLabelValues("dropped").Inc()
			continue
		}
		if err := t.backend.SetCompletion(t.ctx, w.HabitID, w.DateKey, w.Done); err != nil {
			syncWritesTotal.WithLabelValues("error").Inc()
			t.onError(w, err)
			continue
		}
		syncWritesTotal.WithLabelValues("ok").Inc()
	}
}
