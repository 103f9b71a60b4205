package stats

import (
	"time"

	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/pkg/habit"
)

// HabitYear is one habit's activity over a calendar year, split by month.
// Due days after today are not counted.
type HabitYear struct {
	HabitID    string  `json:"habit_id"`
	Name       string  `json:"name"`
	Completed  int     `json:"completed"`
	Due        int     `json:"due"`
	Monthly    [12]int `json:"monthly"`
	MonthlyDue [12]int `json:"monthly_due"`
}

// Quarter sums the monthly completions of quarter q (1-4).
func (y HabitYear) Quarter(q int) int {
	if q < 1 || q > 4 {
		return 0
	}
	start := (q - 1) * 3
	return y.Monthly[start] + y.Monthly[start+1] + y.Monthly[start+2]
}

type MonthRate struct {
	Month     time.Month `json:"month"`
	Completed int        `json:"completed"`
	Due       int        `json:"due"`
	Rate      float64    `json:"rate"`
}

// YearBreakdown walks every day of the year containing ref up to today.
func YearBreakdown(habits []habit.Habit, done habit.CompletionMap, ref, today time.Time) []HabitYear {
	days := period.YearOf(ref, 0).Days()
	out := make([]HabitYear, 0, len(habits))
	for _, h := range habits {
		y := HabitYear{HabitID: h.ID, Name: h.DisplayName()}
		for _, d := range days {
			if period.Before(today, d) {
				break
			}
			if !IsDue(h, d) {
				continue
			}
			m := int(d.Month()) - 1
			y.Due++
			y.MonthlyDue[m]++
			if done.Done(h.ID, habit.DateKey(d)) {
				y.Completed++
				y.Monthly[m]++
			}
		}
		out = append(out, y)
	}
	return out
}

// MonthlyRates combines all habits into one completion rate per month.
func MonthlyRates(years []HabitYear) [12]MonthRate {
	var out [12]MonthRate
	for i := range out {
		out[i].Month = time.Month(i + 1)
	}
	for _, y := range years {
		for i := range 12 {
			out[i].Completed += y.Monthly[i]
			out[i].Due += y.MonthlyDue[i]
		}
	}
	for i := range out {
		out[i].Rate = Percentage(out[i].Completed, out[i].Due)
	}
	return out
}

// FromReport turns period stats into ranking entries. Monthly counts stay
// empty, so growth badges never apply to them.
func FromReport(r Report) []HabitYear {
	out := make([]HabitYear, 0, len(r.PerHabit))
	for _, hs := range r.PerHabit {
		out = append(out, HabitYear{
			HabitID:   hs.HabitID,
			Name:      hs.Name,
			Completed: hs.Completed,
			Due:       hs.DueDays,
		})
	}
	return out
}
