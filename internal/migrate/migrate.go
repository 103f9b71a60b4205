// Package migrate moves a guest profile's data into a signed-in account.
package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var migrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habits_guest_migrations_total",
		Help: "Guest to account migrations by outcome",
	},
	[]string{"outcome"},
)

// ErrRemoteHasData is reported in Result.Reason when the account already
// holds habits and the guest data was discarded instead of merged.
var ErrRemoteHasData = errors.New("account already has habits")

type Source interface {
	ListHabits(ctx context.Context) ([]habit.Habit, error)
	LoadCompletions(ctx context.Context) (habit.CompletionMap, error)
	ListNotes(ctx context.Context) ([]habit.DailyNote, error)
	Clear(ctx context.Context) error
}

type Destination interface {
	ListHabits(ctx context.Context) ([]habit.Habit, error)
	// CreateHabit persists h and returns it with its durable id.
	CreateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error)
	DeleteHabit(ctx context.Context, habitID string) error
	SetCompletion(ctx context.Context, habitID, dateKey string, done bool) error
	ListNotes(ctx context.Context) ([]habit.DailyNote, error)
	PutNote(ctx context.Context, n habit.DailyNote) error
	DeleteNote(ctx context.Context, dateKey string) error
}

type Result struct {
	// Aborted is set when the account already had data; local data was
	// cleared and nothing was copied.
	Aborted bool
	Reason  error

	Habits      int
	Completions int
	Notes       int
	// NotesKept counts guest notes dropped because the account already had
	// a note for that date.
	NotesKept int
	// IDMap maps each local habit id to the id the account assigned.
	IDMap map[string]string

	noteDates []string
}

type Migrator struct {
	Local  Source
	Remote Destination
}

func New(local Source, remote Destination) *Migrator {
	return &Migrator{Local: local, Remote: remote}
}

// Run performs the migration once. Notes the account already has for a date
// are never overwritten. On failure the habits and notes written remotely in
// this run are deleted again (best effort) and local data is left intact.
func (m *Migrator) Run(ctx context.Context) (Result, error) {
	remote, err := m.Remote.ListHabits(ctx)
	if err != nil {
		migrationsTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("list account habits: %w", err)
	}
	if len(remote) > 0 {
		if err := m.Local.Clear(ctx); err != nil {
			migrationsTotal.WithLabelValues("error").Inc()
			return Result{}, fmt.Errorf("clear guest data: %w", err)
		}
		logger.Info("Account already has habits, discarded guest data", "remote_habits", len(remote))
		migrationsTotal.WithLabelValues("aborted").Inc()
		return Result{Aborted: true, Reason: ErrRemoteHasData}, nil
	}

	res, err := m.transfer(ctx)
	if err != nil {
		m.rollback(res)
		migrationsTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}

	if err := m.Local.Clear(ctx); err != nil {
		// Data is already in the account; a leftover guest profile only
		// means the next run takes the aborted path.
		logger.Warn("Migrated guest data but failed to clear it", "error", err)
	}
	logger.Info("Migrated guest data", "habits", res.Habits, "completions", res.Completions, "notes", res.Notes, "notes_kept", res.NotesKept)
	migrationsTotal.WithLabelValues("migrated").Inc()
	return res, nil
}

func (m *Migrator) transfer(ctx context.Context) (Result, error) {
	res := Result{IDMap: map[string]string{}}

	habits, err := m.Local.ListHabits(ctx)
	if err != nil {
		return res, fmt.Errorf("list guest habits: %w", err)
	}
	done, err := m.Local.LoadCompletions(ctx)
	if err != nil {
		return res, fmt.Errorf("load guest completions: %w", err)
	}
	notes, err := m.Local.ListNotes(ctx)
	if err != nil {
		return res, fmt.Errorf("list guest notes: %w", err)
	}
	remoteNotes, err := m.Remote.ListNotes(ctx)
	if err != nil {
		return res, fmt.Errorf("list account notes: %w", err)
	}
	taken := make(map[string]bool, len(remoteNotes))
	for _, n := range remoteNotes {
		taken[n.DateKey] = true
	}

	for _, h := range habits {
		localID := h.ID
		created, err := m.Remote.CreateHabit(ctx, h)
		if err != nil {
			return res, fmt.Errorf("create habit %q: %w", h.DisplayName(), err)
		}
		res.IDMap[localID] = created.ID
		res.Habits++
	}

	for _, h := range habits {
		remoteID := res.IDMap[h.ID]
		for _, key := range done.Keys(h.ID) {
			if err := m.Remote.SetCompletion(ctx, remoteID, key, true); err != nil {
				return res, fmt.Errorf("copy completion %s/%s: %w", h.ID, key, err)
			}
			res.Completions++
		}
	}

	for _, n := range notes {
		if taken[n.DateKey] {
			logger.Debug("Account already has a note, keeping it", "date", n.DateKey)
			res.NotesKept++
			continue
		}
		if err := m.Remote.PutNote(ctx, n); err != nil {
			return res, fmt.Errorf("copy note %s: %w", n.DateKey, err)
		}
		res.noteDates = append(res.noteDates, n.DateKey)
		res.Notes++
	}
	return res, nil
}

func (m *Migrator) rollback(res Result) {
	// the caller's context may already be cancelled
	ctx := context.Background()
	for _, key := range res.noteDates {
		if err := m.Remote.DeleteNote(ctx, key); err != nil {
			logger.Warn("Rollback failed to delete note", "date", key, "error", err)
		}
	}
	for localID, remoteID := range res.IDMap {
		if err := m.Remote.DeleteHabit(ctx, remoteID); err != nil {
			logger.Warn("Rollback failed to delete habit", "local_id", localID, "remote_id", remoteID, "error", err)
		}
	}
}
