package nudge

import (
	"context"
	"fmt"
	"time"

	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/internal/stats"
	"github.com/Surya5599/habittracker/pkg/habit"
)

type AtRisk struct {
	HabitID string
	Name    string
	Streak  int
}

type Reminder struct {
	Date   string
	Habits []AtRisk
	// HoursLeft is how long until the day ends in the user's timezone.
	HoursLeft int
}

type Notifier interface {
	SendNudge(ctx context.Context, r Reminder) error
}

// HabitsAtRisk returns habits due today, not yet done, whose current streak
// would be lost at midnight. Flexible habits are skipped: their weekly
// target can still be met on another day.
func HabitsAtRisk(ctx context.Context, q Querier, today time.Time) ([]AtRisk, error) {
	habits, err := q.ListHabits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	done, err := q.LoadCompletions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	key := habit.DateKey(today)
	var out []AtRisk
	for _, h := range habits {
		if h.Flexible() || !stats.IsDue(h, today) || done.Done(h.ID, key) {
			continue
		}
		// weekStartsOn only matters for flexible habits
		s := stats.Streaks(h, done, today, time.Sunday)
		if s.Current == 0 {
			continue
		}
		out = append(out, AtRisk{HabitID: h.ID, Name: h.DisplayName(), Streak: s.Current})
	}
	return out, nil
}

// Nudge sends one reminder listing the habits at risk today. Nothing is sent
// when no streak is at risk. It returns the number of habits reported.
func Nudge(ctx context.Context, q Querier, n Notifier, today time.Time) (int, error) {
	atRisk, err := HabitsAtRisk(ctx, q, today)
	if err != nil {
		return 0, err
	}
	if len(atRisk) == 0 {
		logger.Debug("No streaks at risk", "date", habit.DateKey(today))
		return 0, nil
	}

	r := Reminder{
		Date:      habit.DateKey(today),
		Habits:    atRisk,
		HoursLeft: HoursLeft(time.Now().In(today.Location())),
	}
	if err := n.SendNudge(ctx, r); err != nil {
		return 0, fmt.Errorf("send nudge: %w", err)
	}
	logger.Info("Sent nudge", "date", r.Date, "habits", len(atRisk))
	return len(atRisk), nil
}

// HoursLeft rounds up the time remaining until midnight.
func HoursLeft(now time.Time) int {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	left := midnight.Sub(now)
	h := int(left / time.Hour)
	if left%time.Hour != 0 {
		h++
	}
	return h
}
