package stats

import (
	"slices"
	"time"

	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/pkg/habit"
)

type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Streaks counts consecutive completed due days. An undone day before today
// breaks the run; today does not until it is over. Flexible habits count
// consecutive weeks whose target was reached, the current week staying open.
func Streaks(h habit.Habit, done habit.CompletionMap, today time.Time, weekStartsOn time.Weekday) Streak {
	keys := done.Keys(h.ID)
	if len(keys) == 0 {
		return Streak{}
	}
	slices.Sort(keys)

	today = period.Civil(today)
	// malformed keys are skipped, they can never match a calendar day
	var first time.Time
	for _, k := range keys {
		if d, err := habit.ParseDateKeyIn(k, today.Location()); err == nil {
			first = d
			break
		}
	}
	if !h.CreatedAt.IsZero() {
		if c := period.Civil(h.CreatedAt.In(today.Location())); first.IsZero() || c.Before(first) {
			first = c
		}
	}
	if first.IsZero() || first.After(today) {
		return Streak{}
	}

	if h.Flexible() {
		return weeklyStreaks(h, done, first, today, weekStartsOn)
	}

	var s Streak
	run := 0
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		if !IsDue(h, d) {
			continue
		}
		if done.Done(h.ID, habit.DateKey(d)) {
			run++
			s.Longest = max(s.Longest, run)
		} else if d.Before(today) {
			run = 0
		}
	}
	s.Current = run
	return s
}

func weeklyStreaks(h habit.Habit, done habit.CompletionMap, first, today time.Time, weekStartsOn time.Weekday) Streak {
	var s Streak
	run := 0
	current := period.WeekStart(today, weekStartsOn, 0)
	for w := period.WeekStart(first, weekStartsOn, 0); !w.After(current); w = w.AddDate(0, 0, 7) {
		wp := weeklyProgress(h, done, period.WeekOf(w, weekStartsOn, 0).Days())
		if wp.GoalReached {
			run++
			s.Longest = max(s.Longest, run)
		} else if w.Before(current) {
			run = 0
		}
	}
	s.Current = run
	return s
}

// Summary fills the per-habit overview shown next to the grid.
func Summary(h habit.Habit, done habit.CompletionMap, today time.Time, weekStartsOn time.Weekday) habit.HabitSummary {
	streak := Streaks(h, done, today, weekStartsOn)
	keys := done.Keys(h.ID)
	slices.Sort(keys)

	sum := habit.HabitSummary{
		Name:          h.DisplayName(),
		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
		TotalDaysDone: len(keys),
		ThisMonth:     done.CountPrefix(h.ID, habit.DateKey(today)[:7]),
	}
	if len(keys) == 0 {
		return sum
	}
	sum.FirstLogged = keys[0]

	perMonth := make(map[string]int)
	for _, k := range keys {
		if len(k) == len(habit.DateKeyLayout) {
			perMonth[k[:7]]++
		}
	}
	for _, n := range perMonth {
		sum.BestMonth = max(sum.BestMonth, n)
	}
	if last, err := habit.ParseDateKeyIn(keys[len(keys)-1], today.Location()); err == nil {
		sum.LastWrite = last.Unix()
	}
	return sum
}
