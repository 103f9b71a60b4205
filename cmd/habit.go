package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/spf13/cobra"
)

var habitFlags struct {
	name   string
	color  string
	goal   int
	days   string
	weekly int
	order  int
}

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Add, list, edit or remove habits",
}

var habitAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a habit",
	Long: `The "add" command creates a habit. Without --days or --weekly it is due
every day. --days takes weekday names (mon,wed,fri); --weekly N makes it a
flexible habit done N times a week on any days.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h := habit.Habit{Name: args[0], Color: habitFlags.color, Goal: habitFlags.goal, SortOrder: habitFlags.order}
		if err := applySchedule(cmd, &h); err != nil {
			return err
		}
		return withSession(func(s *session) error {
			created, err := s.data.CreateHabit(cmd.Context(), h)
			if err != nil {
				return err
			}
			cmd.Printf("Added %s (%s)\n", created.DisplayName(), created.ID)
			return nil
		})
	},
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			habits, err := s.data.ListHabits(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Print(renderHabits(habits))
			return nil
		})
	},
}

var habitEditCmd = &cobra.Command{
	Use:   "edit <habit-id>",
	Short: "Change a habit's name, goal or schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			h, err := s.data.GetHabit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				h.Name = habitFlags.name
			}
			if flags.Changed("color") {
				h.Color = habitFlags.color
			}
			if flags.Changed("goal") {
				h.Goal = habitFlags.goal
			}
			if flags.Changed("order") {
				h.SortOrder = habitFlags.order
			}
			if err := applySchedule(cmd, &h); err != nil {
				return err
			}
			if err := s.data.UpdateHabit(cmd.Context(), h); err != nil {
				return err
			}
			cmd.Printf("Updated %s\n", h.DisplayName())
			return nil
		})
	},
}

var habitRmCmd = &cobra.Command{
	Use:     "rm <habit-id>",
	Aliases: []string{"delete"},
	Short:   "Remove a habit and all of its check-ins",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			if err := s.data.DeleteHabit(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Removed %s\n", args[0])
			return nil
		})
	},
}

// applySchedule sets Frequency and WeeklyTarget from --days and --weekly
// when either was given.
func applySchedule(cmd *cobra.Command, h *habit.Habit) error {
	flags := cmd.Flags()
	if flags.Changed("days") && flags.Changed("weekly") {
		return fmt.Errorf("use either --days or --weekly, not both")
	}
	if flags.Changed("days") {
		days, err := parseWeekdays(habitFlags.days)
		if err != nil {
			return err
		}
		h.Frequency = days
		h.WeeklyTarget = nil
	}
	if flags.Changed("weekly") {
		n := habitFlags.weekly
		if n < 1 || n > 7 {
			return fmt.Errorf("--weekly must be between 1 and 7")
		}
		h.WeeklyTarget = &n
		h.Frequency = nil
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// parseWeekdays accepts comma separated names (mon, Monday) or numbers 0-6.
// An empty list means every day.
func parseWeekdays(s string) ([]time.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	seen := map[time.Weekday]bool{}
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		var d time.Weekday
		if n, err := strconv.Atoi(p); err == nil && n >= 0 && n <= 6 {
			d = time.Weekday(n)
		} else if len(p) >= 3 {
			wd, ok := weekdayNames[p[:3]]
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", part)
			}
			d = wd
		} else {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out, nil
}

func init() {
	for _, c := range []*cobra.Command{habitAddCmd, habitEditCmd} {
		c.Flags().StringVar(&habitFlags.color, "color", "", "display color")
		c.Flags().IntVar(&habitFlags.goal, "goal", 0, "goal (0-100)")
		c.Flags().StringVar(&habitFlags.days, "days", "", "weekdays the habit is due, e.g. mon,wed,fri")
		c.Flags().IntVar(&habitFlags.weekly, "weekly", 0, "times per week for a flexible habit")
		c.Flags().IntVar(&habitFlags.order, "order", 0, "position in lists")
	}
	habitEditCmd.Flags().StringVar(&habitFlags.name, "name", "", "new name")

	habitCmd.AddCommand(habitAddCmd, habitListCmd, habitEditCmd, habitRmCmd)
	rootCmd.AddCommand(habitCmd)
}
