// Package insights assembles the stats views served by the sync API and shown
// by the CLI from a user's habits, completions and notes.
package insights

import (
	"time"

	"github.com/Surya5599/habittracker/internal/period"
	"github.com/Surya5599/habittracker/internal/stats"
	"github.com/Surya5599/habittracker/pkg/habit"
)

// Data is everything the views are computed from.
type Data struct {
	Habits []habit.Habit
	Done   habit.CompletionMap
	Notes  []habit.DailyNote
}

type Builder struct {
	Thresholds   stats.Thresholds
	WeekStartsOn time.Weekday
}

type PeriodResponse struct {
	Today  string       `json:"today"`
	Offset int          `json:"offset"`
	Report stats.Report `json:"report"`
}

type RankingResponse struct {
	Year    int            `json:"year"`
	Ranking []stats.Ranked `json:"ranking"`
}

type SignalsResponse struct {
	Year   int                   `json:"year"`
	Months [12]stats.MonthSignal `json:"months"`
}

type StoryResponse struct {
	Period period.Period `json:"period"`
	Story  stats.Story   `json:"story"`
}

func (b Builder) Period(d Data, kind period.Kind, offset int, today time.Time) PeriodResponse {
	p := period.Of(kind, today, b.WeekStartsOn, offset)
	return PeriodResponse{
		Today:  habit.DateKey(today),
		Offset: offset,
		Report: stats.Aggregate(d.Habits, d.Done, p, today),
	}
}

// Ranking ranks habits over the given calendar year, counting due days up to
// today.
func (b Builder) Ranking(d Data, year int, today time.Time) RankingResponse {
	years := stats.YearBreakdown(d.Habits, d.Done, yearRef(year, today), today)
	return RankingResponse{Year: year, Ranking: stats.Rank(years, b.Thresholds)}
}

func (b Builder) Signals(d Data, year int, today time.Time) SignalsResponse {
	years := stats.YearBreakdown(d.Habits, d.Done, yearRef(year, today), today)
	return SignalsResponse{Year: year, Months: stats.MonthSignals(stats.MonthlyRates(years), b.Thresholds)}
}

// Story narrates the period and compares it with the one before. Both are
// counted only up to today so a period in progress is not measured against
// days still to come.
func (b Builder) Story(d Data, kind period.Kind, offset int, today time.Time) StoryResponse {
	p := period.Of(kind, today, b.WeekStartsOn, offset)
	prevP := period.Of(kind, today, b.WeekStartsOn, offset-1)
	cur := b.aggregateThrough(d, p, today)
	prev := b.aggregateThrough(d, prevP, today)

	in := stats.StoryInput{
		Current:     cur,
		Habits:      d.Habits,
		DaysElapsed: p.Elapsed(today),
		Notes:       d.Notes,
		Thresholds:  b.Thresholds,
	}
	if prev.Totals.Due > 0 {
		in.Previous = &prev
	}
	return StoryResponse{Period: p, Story: stats.BuildStory(in)}
}

// aggregateThrough reports on p clipped at today. A period that has not
// started yet reports nothing due.
func (b Builder) aggregateThrough(d Data, p period.Period, today time.Time) stats.Report {
	upto, ok := p.Through(today)
	if !ok {
		return stats.Report{Period: p}
	}
	return stats.Aggregate(d.Habits, d.Done, upto, today)
}

func (b Builder) Summary(d Data, h habit.Habit, today time.Time) habit.HabitSummary {
	return stats.Summary(h, d.Done, today, b.WeekStartsOn)
}

func yearRef(year int, today time.Time) time.Time {
	if year == 0 {
		return today
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, today.Location())
}
