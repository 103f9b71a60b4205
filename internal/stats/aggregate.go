package stats

import (
	"time"

	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/pkg/habit"
)

type HabitStats struct {
	HabitID    string          `json:"habit_id"`
	Name       string          `json:"name"`
	Completed  int             `json:"completed"`
	Missed     int             `json:"missed"`
	DueDays    int             `json:"due_days"`
	Percentage float64         `json:"percentage"`
	Weekly     *WeeklyProgress `json:"weekly,omitempty"`
}

// WeeklyProgress is reported for flexible habits when the period is a week.
type WeeklyProgress struct {
	Count       int  `json:"count"`
	Target      int  `json:"target"`
	GoalReached bool `json:"goal_reached"`
}

type Totals struct {
	Completed  int     `json:"completed"`
	Missed     int     `json:"missed"`
	Due        int     `json:"due"`
	Percentage float64 `json:"percentage"`
}

type Report struct {
	Period   period.Period `json:"period"`
	PerHabit []HabitStats  `json:"per_habit"`
	Totals   Totals        `json:"totals"`
}

// Aggregate counts due, completed and missed days for every habit over p.
// A due day that is not done counts as missed only when it lies strictly
// before today; today and later are still pending. Totals are sums of the
// per-habit counts, never an average of percentages.
func Aggregate(habits []habit.Habit, done habit.CompletionMap, p period.Period, today time.Time) Report {
	days := p.Days()
	r := Report{Period: p, PerHabit: make([]HabitStats, 0, len(habits))}

	for _, h := range habits {
		hs := HabitStats{HabitID: h.ID, Name: h.DisplayName()}
		for _, d := range days {
			if !IsDue(h, d) {
				continue
			}
			hs.DueDays++
			if done.Done(h.ID, habit.DateKey(d)) {
				hs.Completed++
			} else if period.Before(d, today) {
				hs.Missed++
			}
		}
		hs.Percentage = Percentage(hs.Completed, hs.DueDays)

		if p.Kind == period.Week && h.Flexible() {
			hs.Weekly = weeklyProgress(h, done, days)
		}

		r.PerHabit = append(r.PerHabit, hs)
		r.Totals.Completed += hs.Completed
		r.Totals.Missed += hs.Missed
		r.Totals.Due += hs.DueDays
	}
	r.Totals.Percentage = Percentage(r.Totals.Completed, r.Totals.Due)
	return r
}

func weeklyProgress(h habit.Habit, done habit.CompletionMap, week []time.Time) *WeeklyProgress {
	wp := &WeeklyProgress{Target: *h.WeeklyTarget}
	for _, d := range week {
		if done.Done(h.ID, habit.DateKey(d)) {
			wp.Count++
		}
	}
	wp.GoalReached = wp.Count >= wp.Target
	return wp
}

// Percentage returns completed/due as 0-100, and 0 when nothing was due.
func Percentage(completed, due int) float64 {
	if due <= 0 {
		return 0
	}
	p := float64(completed) / float64(due) * 100
	return min(max(p, 0), 100)
}

// ByID returns the stats of one habit from the report.
func (r Report) ByID(habitID string) (HabitStats, bool) {
	for _, hs := range r.PerHabit {
		if hs.HabitID == habitID {
			return hs, true
		}
	}
	return HabitStats{}, false
}
