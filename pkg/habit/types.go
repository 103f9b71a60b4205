package habit

import (
	"slices"
	"strings"
	"time"
)

const untitled = "Untitled"

// LocalIDPrefix marks ids minted on the device before the server has assigned
// a durable one.
const LocalIDPrefix = "local-"

type Habit struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Color        string         `json:"color,omitempty"`
	Goal         int            `json:"goal"`
	Frequency    []time.Weekday `json:"frequency,omitempty"`
	WeeklyTarget *int           `json:"weekly_target,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	SortOrder    int            `json:"sort_order"`
}

// DisplayName returns the name shown to users; empty names read as "Untitled".
func (h Habit) DisplayName() string {
	if strings.TrimSpace(h.Name) == "" {
		return untitled
	}
	return h.Name
}

// Flexible reports whether the habit is measured per week instead of per weekday.
func (h Habit) Flexible() bool {
	return h.WeeklyTarget != nil
}

func (h Habit) IsLocal() bool {
	return strings.HasPrefix(h.ID, LocalIDPrefix)
}

type HabitSummary struct {
	Name          string `json:"name"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	FirstLogged   string `json:"first_logged,omitempty"`
	TotalDaysDone int    `json:"total_days_done"`
	BestMonth     int    `json:"best_month"`
	ThisMonth     int    `json:"this_month"`
	LastWrite     int64  `json:"last_write"`
}

type Task struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// DailyNote is the free-form record kept per day next to the habit grid.
// Mood is 1-5, or 0 when not set.
type DailyNote struct {
	DateKey string `json:"date"`
	Tasks   []Task `json:"tasks,omitempty"`
	Mood    int    `json:"mood,omitempty"`
	Journal string `json:"journal,omitempty"`
}

// SortByOrder orders habits the way lists are presented: explicit sort order,
// then creation time, then id.
func SortByOrder(habits []Habit) {
	slices.SortStableFunc(habits, func(a, b Habit) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
