// Package period computes calendar windows (day, week, month, year) relative
// to a reference date. All values are calendar days: time-of-day is dropped
// and the reference date's location is kept.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/Surya5599/habittracker/pkg/habit"
)

type Kind int

const (
	Day Kind = iota
	Week
	Month
	Year
)

func (k Kind) String() string {
	switch k {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly", "":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	case "year", "yearly", "annual":
		return Year, nil
	}
	return 0, fmt.Errorf("unknown period kind %q", s)
}

// Period is an inclusive range of calendar days.
type Period struct {
	Kind  Kind      `json:"kind"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Civil truncates t to midnight of its calendar day in t's location.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Before reports whether a falls on an earlier calendar day than b. b is
// converted into a's location first.
func Before(a, b time.Time) bool {
	return Civil(a).Before(Civil(b.In(a.Location())))
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	return Civil(a).Equal(Civil(b.In(a.Location())))
}

func DaysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysInMonthIndex takes a 0-based month index (0 = January).
func DaysInMonthIndex(year, monthIndex int) int {
	return DaysInMonth(year, time.Month(monthIndex+1))
}

// WeekStart returns the first day of the week containing ref+7*offsetWeeks
// days, where weeks begin on weekStartsOn.
func WeekStart(ref time.Time, weekStartsOn time.Weekday, offsetWeeks int) time.Time {
	d := Civil(ref).AddDate(0, 0, 7*offsetWeeks)
	back := (int(d.Weekday()) - int(weekStartsOn) + 7) % 7
	return d.AddDate(0, 0, -back)
}

func DayOf(ref time.Time, offsetDays int) Period {
	d := Civil(ref).AddDate(0, 0, offsetDays)
	return Period{Kind: Day, Start: d, End: d}
}

func WeekOf(ref time.Time, weekStartsOn time.Weekday, offsetWeeks int) Period {
	start := WeekStart(ref, weekStartsOn, offsetWeeks)
	return Period{Kind: Week, Start: start, End: start.AddDate(0, 0, 6)}
}

func MonthOf(ref time.Time, offsetMonths int) Period {
	first := time.Date(ref.Year(), ref.Month()+time.Month(offsetMonths), 1, 0, 0, 0, 0, ref.Location())
	last := time.Date(first.Year(), first.Month(), DaysInMonth(first.Year(), first.Month()), 0, 0, 0, 0, ref.Location())
	return Period{Kind: Month, Start: first, End: last}
}

func YearOf(ref time.Time, offsetYears int) Period {
	y := ref.Year() + offsetYears
	return Period{
		Kind:  Year,
		Start: time.Date(y, time.January, 1, 0, 0, 0, 0, ref.Location()),
		End:   time.Date(y, time.December, 31, 0, 0, 0, 0, ref.Location()),
	}
}

// Of builds the period of the given kind around ref, shifted by offset units
// of that kind.
func Of(kind Kind, ref time.Time, weekStartsOn time.Weekday, offset int) Period {
	switch kind {
	case Day:
		return DayOf(ref, offset)
	case Month:
		return MonthOf(ref, offset)
	case Year:
		return YearOf(ref, offset)
	default:
		return WeekOf(ref, weekStartsOn, offset)
	}
}

func Parse(kind string, ref time.Time, weekStartsOn time.Weekday, offset int) (Period, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Period{}, err
	}
	return Of(k, ref, weekStartsOn, offset), nil
}

// Len is the number of calendar days in the period.
func (p Period) Len() int {
	n := 0
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func (p Period) Days() []time.Time {
	out := make([]time.Time, 0, 31)
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (p Period) Contains(t time.Time) bool {
	d := Civil(t.In(p.Start.Location()))
	return !d.Before(p.Start) && !d.After(p.End)
}

// ContainsKey reports whether a YYYY-MM-DD key falls inside the period.
func (p Period) ContainsKey(key string) bool {
	d, err := habit.ParseDateKeyIn(key, p.Start.Location())
	if err != nil {
		return false
	}
	return p.Contains(d)
}

// Elapsed counts the days of the period up to and including today; 0 for a
// future period and Len() for a past one.
func (p Period) Elapsed(today time.Time) int {
	t := Civil(today.In(p.Start.Location()))
	if t.Before(p.Start) {
		return 0
	}
	if t.After(p.End) {
		return p.Len()
	}
	n := 0
	for d := p.Start; !d.After(t); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Through returns the part of the period up to and including today. It
// reports false when the period starts after today.
func (p Period) Through(today time.Time) (Period, bool) {
	t := Civil(today.In(p.Start.Location()))
	if t.Before(p.Start) {
		return p, false
	}
	if t.Before(p.End) {
		p.End = t
	}
	return p, true
}

func (p Period) String() string {
	return fmt.Sprintf("%s %s..%s", p.Kind, habit.DateKey(p.Start), habit.DateKey(p.End))
}
