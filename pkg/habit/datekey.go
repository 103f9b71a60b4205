package habit

import (
	"fmt"
	"time"
)

// DateKeyLayout is the canonical YYYY-MM-DD key used for completions and notes.
const DateKeyLayout = "2006-01-02"

// FormatDateKey builds a zero-padded key from a 1-based month.
func FormatDateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// DateKey returns the key for the calendar day of t in t's own location.
func DateKey(t time.Time) string {
	return FormatDateKey(t.Year(), t.Month(), t.Day())
}

// ParseDateKey parses a key into midnight UTC of that calendar day.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// ParseDateKeyIn parses a key into midnight of that calendar day in loc.
func ParseDateKeyIn(key string, loc *time.Location) (time.Time, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}
