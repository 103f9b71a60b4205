package stats

import (
	"fmt"
	"math"
	"regexp"
	"slices"

	"github.com/Surya5599/habittracker/pkg/habit"
)

type SectionType string

const (
	SectionOverview  SectionType = "overview"
	SectionBest      SectionType = "best"
	SectionNeglected SectionType = "neglected"
	SectionMomentum  SectionType = "momentum"
	SectionMood      SectionType = "mood"
)

// Section text marks emphasised terms as [[term]]; rendering is left to the
// presentation layer.
type Section struct {
	Type SectionType `json:"type"`
	Text string      `json:"text"`
}

type Story struct {
	Sections []Section `json:"sections"`
}

type StoryInput struct {
	Current     Report
	Previous    *Report
	Habits      []habit.Habit
	DaysElapsed int
	Notes       []habit.DailyNote
	Thresholds  Thresholds
}

var highlightRe = regexp.MustCompile(`\[\[(.+?)\]\]`)

func mark(s string) string {
	return "[[" + s + "]]"
}

// Highlights returns the [[marked]] terms of a section text in order.
func Highlights(text string) []string {
	var out []string
	for _, m := range highlightRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

func roundPct(p float64) int {
	return int(math.Round(p))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// BuildStory writes the templated summary of a period. It returns no sections
// when nothing was due, and the same input always yields the same text.
func BuildStory(in StoryInput) Story {
	cur := in.Current
	story := Story{Sections: []Section{}}
	if cur.Totals.Due == 0 {
		return story
	}
	th := in.Thresholds.WithDefaults()
	unit := cur.Period.Kind.String()

	names := make(map[string]string, len(in.Habits))
	for _, h := range in.Habits {
		names[h.ID] = h.DisplayName()
	}
	nameOf := func(hs HabitStats) string {
		if n, ok := names[hs.HabitID]; ok {
			return n
		}
		return hs.Name
	}

	checkins := mark(fmt.Sprintf("%d of %d", cur.Totals.Completed, cur.Totals.Due))
	pct := mark(fmt.Sprintf("%d%%", roundPct(cur.Totals.Percentage)))
	var overview string
	if in.DaysElapsed > 0 {
		overview = fmt.Sprintf("%s into this %s you have completed %s check-ins (%s).",
			mark(plural(in.DaysElapsed, "day")), unit, checkins, pct)
	} else {
		overview = fmt.Sprintf("This %s you have completed %s check-ins (%s).", unit, checkins, pct)
	}
	story.Sections = append(story.Sections, Section{Type: SectionOverview, Text: overview})

	active := make([]HabitStats, 0, len(cur.PerHabit))
	for _, hs := range cur.PerHabit {
		if hs.DueDays > 0 {
			active = append(active, hs)
		}
	}
	// best first; equal percentages fall back to the ranking order
	slices.SortFunc(active, func(a, b HabitStats) int {
		if a.Percentage != b.Percentage {
			if a.Percentage > b.Percentage {
				return -1
			}
			return 1
		}
		return Compare(
			HabitYear{HabitID: a.HabitID, Name: nameOf(a), Completed: a.Completed},
			HabitYear{HabitID: b.HabitID, Name: nameOf(b), Completed: b.Completed},
		)
	})

	if len(active) > 0 && active[0].Completed > 0 {
		b := active[0]
		story.Sections = append(story.Sections, Section{
			Type: SectionBest,
			Text: fmt.Sprintf("%s is leading the way at %s.", mark(nameOf(b)), mark(fmt.Sprintf("%d%%", roundPct(b.Percentage)))),
		})
	}
	if len(active) > 1 {
		w := active[len(active)-1]
		if w.Percentage < active[0].Percentage {
			story.Sections = append(story.Sections, Section{
				Type: SectionNeglected,
				Text: fmt.Sprintf("%s needs some attention at %s.", mark(nameOf(w)), mark(fmt.Sprintf("%d%%", roundPct(w.Percentage)))),
			})
		}
	}

	if prev := in.Previous; prev != nil && prev.Totals.Due > 0 {
		delta := cur.Totals.Percentage - prev.Totals.Percentage
		var text string
		switch {
		case delta >= th.MomentumPoints:
			text = fmt.Sprintf("Momentum is building: up %s from the previous %s.", mark(plural(roundPct(delta), "point")), unit)
		case delta <= -th.MomentumPoints:
			text = fmt.Sprintf("You are %s below the previous %s.", mark(plural(roundPct(-delta), "point")), unit)
		default:
			text = fmt.Sprintf("You are holding steady compared to the previous %s.", unit)
		}
		story.Sections = append(story.Sections, Section{Type: SectionMomentum, Text: text})
	}

	moodSum, moodDays := 0, 0
	for _, n := range in.Notes {
		if n.Mood < 1 || n.Mood > 5 || !cur.Period.ContainsKey(n.DateKey) {
			continue
		}
		moodSum += n.Mood
		moodDays++
	}
	if moodDays > 0 {
		avg := float64(moodSum) / float64(moodDays)
		story.Sections = append(story.Sections, Section{
			Type: SectionMood,
			Text: fmt.Sprintf("Average mood this %s was %s across %s.", unit, mark(fmt.Sprintf("%.1f / 5", avg)), plural(moodDays, "logged day")),
		})
	}

	return story
}
