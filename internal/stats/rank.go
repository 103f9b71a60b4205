package stats

import (
	"cmp"
	"slices"
)

type Badge string

const (
	BadgeNone      Badge = ""
	MostConsistent Badge = "Most Consistent"
	IdentityDriver Badge = "Identity Driver"
	HighestGrowth  Badge = "Highest Growth"
	MostAttempted  Badge = "Most Attempted"
	ActiveHabit    Badge = "Active Habit"
)

// BadgeRule pairs a badge with the condition that earns it. Rules are
// evaluated in order and the first match wins.
type BadgeRule struct {
	Badge Badge
	Match func(y HabitYear, th Thresholds) bool
}

var badgeRules = []BadgeRule{
	{MostConsistent, func(y HabitYear, th Thresholds) bool {
		return y.Due > 0 && float64(y.Completed)/float64(y.Due) > th.ConsistentRate
	}},
	{IdentityDriver, func(y HabitYear, th Thresholds) bool {
		return y.Due > 0 && float64(y.Completed) >= float64(y.Due)*th.IdentityRate
	}},
	{HighestGrowth, func(y HabitYear, th Thresholds) bool {
		q1, q4 := y.Quarter(1), y.Quarter(4)
		return float64(q4) > th.GrowthFactor*float64(q1) && q4 > th.GrowthMinQ4
	}},
	{MostAttempted, func(y HabitYear, th Thresholds) bool {
		return y.Completed > th.AttemptedMin
	}},
	{ActiveHabit, func(HabitYear, Thresholds) bool { return true }},
}

// BadgeRules returns the rule table in evaluation order.
func BadgeRules() []BadgeRule {
	return slices.Clone(badgeRules)
}

// Classify assigns the first matching badge. Habits with no completions get none.
func Classify(y HabitYear, th Thresholds) Badge {
	if y.Completed <= 0 {
		return BadgeNone
	}
	th = th.WithDefaults()
	for _, r := range badgeRules {
		if r.Match(y, th) {
			return r.Badge
		}
	}
	return BadgeNone
}

type Ranked struct {
	HabitYear
	Position int   `json:"position"`
	Badge    Badge `json:"badge,omitempty"`
}

// Compare orders by completions (descending), then name, then id, so no two
// distinct habits compare equal.
func Compare(a, b HabitYear) int {
	if c := cmp.Compare(b.Completed, a.Completed); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.HabitID, b.HabitID)
}

// Rank sorts entries by Compare and badges each one. Positions start at 1.
// The input slice is not modified.
func Rank(entries []HabitYear, th Thresholds) []Ranked {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, Compare)

	out := make([]Ranked, len(sorted))
	for i, y := range sorted {
		out[i] = Ranked{HabitYear: y, Position: i + 1, Badge: Classify(y, th)}
	}
	return out
}
