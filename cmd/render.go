package cmd

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Surya5599/habittracker/internal/insights"
	"github.com/Surya5599/habittracker/internal/stats"
	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	emphasisStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	signalStyles  = map[stats.Signal]lipgloss.Style{
		stats.BestFocus:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		stats.BurnoutDip: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		stats.Rebound:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

var markPattern = regexp.MustCompile(`\[\[(.+?)\]\]`)

// emphasize renders [[...]] spans of story text in the emphasis style.
func emphasize(s string) string {
	return markPattern.ReplaceAllStringFunc(s, func(m string) string {
		return emphasisStyle.Render(markPattern.FindStringSubmatch(m)[1])
	})
}

func renderHabits(habits []habit.Habit) string {
	if len(habits) == 0 {
		return "No habits yet. Add one with `habits habit add <name>`.\n"
	}
	var b strings.Builder
	for _, h := range habits {
		fmt.Fprintf(&b, "%-36s  %-20s  %s\n", dimStyle.Render(h.ID), h.DisplayName(), scheduleText(h))
	}
	return b.String()
}

func scheduleText(h habit.Habit) string {
	switch {
	case h.Flexible():
		return fmt.Sprintf("%dx per week", *h.WeeklyTarget)
	case len(h.Frequency) == 0 || len(h.Frequency) == 7:
		return "every day"
	}
	days := make([]string, 0, len(h.Frequency))
	for _, d := range h.Frequency {
		days = append(days, d.String()[:3])
	}
	return strings.Join(days, ",")
}

func renderPeriod(resp insights.PeriodResponse) string {
	rep := resp.Report
	var b strings.Builder
	b.WriteString(titleStyle.Render(rep.Period.String()) + "\n")
	if len(rep.PerHabit) == 0 {
		b.WriteString("Nothing tracked in this period.\n")
		return b.String()
	}
	for _, hs := range rep.PerHabit {
		line := fmt.Sprintf("%-20s %3d/%-3d %5.1f%%", hs.Name, hs.Completed, hs.DueDays, hs.Percentage)
		if hs.Weekly != nil {
			line += fmt.Sprintf("  week %d/%d", hs.Weekly.Count, hs.Weekly.Target)
			if hs.Weekly.GoalReached {
				line += " " + badgeStyle.Render("goal reached")
			}
		}
		b.WriteString(line + "\n")
	}
	t := rep.Totals
	fmt.Fprintf(&b, "%-20s %3d/%-3d %5.1f%%  (%d missed)\n", "Total", t.Completed, t.Due, t.Percentage, t.Missed)
	return b.String()
}

func renderRanking(resp insights.RankingResponse) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Habit ranking %d", resp.Year)) + "\n")
	if len(resp.Ranking) == 0 {
		b.WriteString("No habits to rank.\n")
		return b.String()
	}
	for _, r := range resp.Ranking {
		line := fmt.Sprintf("%2d. %-20s %4d/%-4d", r.Position, r.Name, r.Completed, r.Due)
		if r.Badge != stats.BadgeNone {
			line += "  " + badgeStyle.Render(string(r.Badge))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func renderSignals(resp insights.SignalsResponse) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Monthly signals %d", resp.Year)) + "\n")
	for i, m := range resp.Months {
		if m.Signal == stats.SignalNone {
			continue
		}
		name := time.Month(i + 1).String()
		text := string(m.Signal)
		if st, ok := signalStyles[m.Signal]; ok {
			text = st.Render(text)
		}
		if m.Delta != nil {
			text += fmt.Sprintf(" (%+.1f pts)", *m.Delta)
		}
		fmt.Fprintf(&b, "%-10s %s\n", name, text)
	}
	return b.String()
}

func renderStory(resp insights.StoryResponse) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(resp.Period.String()) + "\n")
	if len(resp.Story.Sections) == 0 {
		b.WriteString("Nothing was due in this period yet.\n")
		return b.String()
	}
	for _, sec := range resp.Story.Sections {
		b.WriteString(emphasize(sec.Text) + "\n")
	}
	return b.String()
}

func renderSummary(s *habit.HabitSummary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Name) + "\n")
	fmt.Fprintf(&b, "Current streak: %d\n", s.CurrentStreak)
	fmt.Fprintf(&b, "Longest streak: %d\n", s.LongestStreak)
	fmt.Fprintf(&b, "Days done:      %d\n", s.TotalDaysDone)
	fmt.Fprintf(&b, "This month:     %d\n", s.ThisMonth)
	fmt.Fprintf(&b, "Best month:     %d\n", s.BestMonth)
	if s.FirstLogged != "" {
		fmt.Fprintf(&b, "First logged:   %s\n", s.FirstLogged)
	}
	return b.String()
}
