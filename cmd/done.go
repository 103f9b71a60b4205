package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/internal/tracker"
	"github.com/Surya5599/habittracker/pkg/habit"
	"github.com/spf13/cobra"
)

var (
	undoDone   bool
	toggleDone bool
)

var doneCmd = &cobra.Command{
	Use:   "done <habit-id> [YYYY-MM-DD]",
	Short: "Mark a habit done for today or a given day",
	Long: `The "done" command checks a habit in for today, or for the given date.
--undo clears the check-in and --toggle flips it.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		habitID := args[0]
		day := cfg.Today()
		if len(args) == 2 {
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			if day, err = habit.ParseDateKeyIn(args[1], loc); err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
			}
		}
		if day.After(cfg.Today()) {
			return fmt.Errorf("cannot check in on a future day")
		}

		return withSession(func(s *session) error {
			h, err := s.data.GetHabit(cmd.Context(), habitID)
			if err != nil {
				return err
			}
			done, err := markDone(cmd.Context(), s.data, habitID, habit.DateKey(day))
			if err != nil {
				return err
			}
			state := "done"
			if !done {
				state = "not done"
			}
			cmd.Printf("%s: %s on %s\n", h.DisplayName(), state, habit.DateKey(day))
			return nil
		})
	},
}

// markDone applies the check-in through a tracker and waits for the write to
// reach the backend. It returns the resulting state.
func markDone(ctx context.Context, backend tracker.Backend, habitID, dateKey string) (bool, error) {
	var syncErr error
	t := tracker.New(backend, tracker.WithOnError(func(w tracker.Write, err error) {
		logger.Warn("Check-in not saved", "habit_id", w.HabitID, "date", w.DateKey, "error", err)
		syncErr = err
	}))
	if err := t.BulkLoad(ctx); err != nil {
		t.Close(ctx)
		return false, fmt.Errorf("load completions: %w", err)
	}

	var (
		done bool
		err  error
	)
	switch {
	case toggleDone:
		done, err = t.Toggle(habitID, dateKey)
	default:
		done = !undoDone
		err = t.SetDone(habitID, dateKey, done)
	}
	if err != nil {
		t.Close(ctx)
		return false, err
	}

	closeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := t.Close(closeCtx); err != nil {
		return false, err
	}
	// the worker has exited, so syncErr is no longer written concurrently
	if syncErr != nil {
		return false, fmt.Errorf("save check-in: %w", syncErr)
	}
	return done, nil
}

func init() {
	doneCmd.Flags().BoolVar(&undoDone, "undo", false, "clear the check-in")
	doneCmd.Flags().BoolVar(&toggleDone, "toggle", false, "flip the check-in")
	doneCmd.MarkFlagsMutuallyExclusive("undo", "toggle")
	rootCmd.AddCommand(doneCmd)
}
