package stats

import (
	"slices"
	"time"

	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/pkg/habit"
)

// IsDue reports whether h is expected to be done on date. Days before the
// habit's creation day are never due. Flexible habits are due every day; their
// weekly target is checked separately by the aggregator.
func IsDue(h habit.Habit, date time.Time) bool {
	if !h.CreatedAt.IsZero() && period.Before(date, h.CreatedAt) {
		return false
	}
	if h.Flexible() {
		return true
	}
	if len(h.Frequency) > 0 {
		return slices.Contains(h.Frequency, date.Weekday())
	}
	return true
}
