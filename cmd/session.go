package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Surya5599/habittracker/internal/apiclient"
	"github.com/Surya5599/habittracker/internal/insights"
	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/internal/storage"
	boltstore "github.com/Surya5599/habittracker/internal/storage/bolt"
	"github.com/Surya5599/habittracker/pkg/habit"
)

// guestUserID owns the data of the local guest profile.
const guestUserID = "guest"

// dataSource is what the commands read and write. The API client and a
// local user store both satisfy it.
type dataSource interface {
	ListHabits(ctx context.Context) ([]habit.Habit, error)
	GetHabit(ctx context.Context, habitID string) (habit.Habit, error)
	CreateHabit(ctx context.Context, h habit.Habit) (habit.Habit, error)
	UpdateHabit(ctx context.Context, h habit.Habit) error
	DeleteHabit(ctx context.Context, habitID string) error
	LoadCompletions(ctx context.Context) (habit.CompletionMap, error)
	SetCompletion(ctx context.Context, habitID, dateKey string, done bool) error
	ListNotes(ctx context.Context) ([]habit.DailyNote, error)
	PutNote(ctx context.Context, n habit.DailyNote) error
}

// statsSource answers the report views. The server computes them for
// signed-in users; the guest profile computes them in process.
type statsSource interface {
	Period(ctx context.Context, kind period.Kind, offset int, today time.Time) (insights.PeriodResponse, error)
	Ranking(ctx context.Context, year int, today time.Time) (insights.RankingResponse, error)
	Signals(ctx context.Context, year int, today time.Time) (insights.SignalsResponse, error)
	Story(ctx context.Context, kind period.Kind, offset int, today time.Time) (insights.StoryResponse, error)
	GetHabitSummary(ctx context.Context, habitID string, today time.Time) (*habit.HabitSummary, error)
}

type session struct {
	data  dataSource
	stats statsSource
	close func() error
}

// Overridable in tests.
var openSession = func() (*session, error) {
	if guestMode {
		return openGuestSession()
	}
	token, err := resolveToken()
	if err != nil {
		return nil, err
	}
	c := apiclient.New(cfg.APIBaseURL, token)
	return &session{data: c, stats: c, close: func() error { return nil }}, nil
}

func openGuestSession() (*session, error) {
	db, err := boltstore.Open(cfg.GuestDBPath)
	if err != nil {
		return nil, fmt.Errorf("open guest profile: %w", err)
	}
	us := storage.ForGuest(db, guestUserID)
	return &session{
		data:  us,
		stats: &localStats{src: us, b: newInsights()},
		close: db.Close,
	}, nil
}

func newInsights() insights.Builder {
	return insights.Builder{
		Thresholds:   cfg.Stats.Thresholds.WithDefaults(),
		WeekStartsOn: cfg.WeekStart(),
	}
}

// localStats builds the report views from a local store.
type localStats struct {
	src dataSource
	b   insights.Builder
}

func (l *localStats) load(ctx context.Context, withNotes bool) (insights.Data, error) {
	var (
		d   insights.Data
		err error
	)
	if d.Habits, err = l.src.ListHabits(ctx); err != nil {
		return d, err
	}
	if d.Done, err = l.src.LoadCompletions(ctx); err != nil {
		return d, err
	}
	if withNotes {
		d.Notes, err = l.src.ListNotes(ctx)
	}
	return d, err
}

func (l *localStats) Period(ctx context.Context, kind period.Kind, offset int, today time.Time) (insights.PeriodResponse, error) {
	d, err := l.load(ctx, false)
	if err != nil {
		return insights.PeriodResponse{}, err
	}
	return l.b.Period(d, kind, offset, today), nil
}

func (l *localStats) Ranking(ctx context.Context, year int, today time.Time) (insights.RankingResponse, error) {
	d, err := l.load(ctx, false)
	if err != nil {
		return insights.RankingResponse{}, err
	}
	if year == 0 {
		year = today.Year()
	}
	return l.b.Ranking(d, year, today), nil
}

func (l *localStats) Signals(ctx context.Context, year int, today time.Time) (insights.SignalsResponse, error) {
	d, err := l.load(ctx, false)
	if err != nil {
		return insights.SignalsResponse{}, err
	}
	if year == 0 {
		year = today.Year()
	}
	return l.b.Signals(d, year, today), nil
}

func (l *localStats) Story(ctx context.Context, kind period.Kind, offset int, today time.Time) (insights.StoryResponse, error) {
	d, err := l.load(ctx, true)
	if err != nil {
		return insights.StoryResponse{}, err
	}
	return l.b.Story(d, kind, offset, today), nil
}

func (l *localStats) GetHabitSummary(ctx context.Context, habitID string, today time.Time) (*habit.HabitSummary, error) {
	h, err := l.src.GetHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	d, err := l.load(ctx, false)
	if err != nil {
		return nil, err
	}
	s := l.b.Summary(d, h, today)
	return &s, nil
}

// withSession opens the selected data source for the duration of fn.
func withSession(fn func(s *session) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()
	err = fn(s)
	if apiclient.IsUnauthorized(err) {
		return fmt.Errorf("%w (run `habits login --api-key ...`, or use --guest)", err)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("habit not found: %w", err)
	}
	return err
}
