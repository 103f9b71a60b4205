package habit

import (
	"fmt"
	"unicode/utf8"
)

const MaxNameLength = 40

// Validate checks the fields a client may set.
func Validate(h Habit) error {
	if utf8.RuneCountInString(h.Name) > MaxNameLength {
		return fmt.Errorf("bad habit name: must be at most %d characters", MaxNameLength)
	}
	if h.Goal < 0 || h.Goal > 100 {
		return fmt.Errorf("bad goal: must be 0-100")
	}
	if h.Frequency != nil {
		if len(h.Frequency) == 0 {
			return fmt.Errorf("bad frequency: list at least one weekday or omit it")
		}
		seen := map[int]bool{}
		for _, d := range h.Frequency {
			if d < 0 || d > 6 {
				return fmt.Errorf("bad frequency: weekdays are 0 (Sunday) to 6 (Saturday)")
			}
			if seen[int(d)] {
				return fmt.Errorf("bad frequency: weekday %d repeated", d)
			}
			seen[int(d)] = true
		}
	}
	if h.WeeklyTarget != nil && (*h.WeeklyTarget < 1 || *h.WeeklyTarget > 7) {
		return fmt.Errorf("bad weekly target: must be 1-7")
	}
	return nil
}
