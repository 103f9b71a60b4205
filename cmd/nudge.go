package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/internal/nudge"
	"github.com/Surya5599/habittracker/internal/nudge/resend"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var nudgeSchedule string

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Email a reminder for habit streaks that end tonight",
	Long: `The "nudge" command emails the habits that are due today, not yet done and
on a streak. With --schedule (a cron expression such as "0 * * * *") it keeps
running and checks on that schedule, sending at most one reminder per day and
only within nudge.hours of midnight.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("HABITS_RESEND_API_KEY") == "" {
			return fmt.Errorf("HABITS_RESEND_API_KEY environment variable is not set")
		}
		if cfg.Nudge.Email == "" {
			return fmt.Errorf("no reminder address: set nudge.email or HABITS_NOTIFY_EMAIL")
		}
		if nudgeSchedule == "" {
			nudgeSchedule = cfg.Nudge.Schedule
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		n := &resend.ResendNotifier{
			APIKey: os.Getenv("HABITS_RESEND_API_KEY"),
			From:   cfg.Nudge.From,
			Email:  cfg.Nudge.Email,
		}
		if nudgeSchedule == "" {
			return withSession(func(s *session) error {
				count, err := nudge.Nudge(cmd.Context(), s.data, n, cfg.Today())
				if err != nil {
					return err
				}
				cmd.Printf("Reminded about %d habits\n", count)
				return nil
			})
		}
		return runNudgeSchedule(cmd, n)
	},
}

// nudger sends at most one reminder per calendar day.
type nudger struct {
	notifier nudge.Notifier
	hours    int

	mu       sync.Mutex
	lastSent string
}

func (d *nudger) tick(ctx context.Context, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := cfg.Today()
	key := today.Format(time.DateOnly)
	if d.lastSent == key {
		return
	}
	if left := nudge.HoursLeft(now); d.hours > 0 && left > d.hours {
		logger.Debug("Too early for a nudge", "hours_left", left)
		return
	}

	err := withSession(func(s *session) error {
		count, err := nudge.Nudge(ctx, s.data, d.notifier, today)
		if err == nil && count > 0 {
			d.lastSent = key
		}
		return err
	})
	if err != nil {
		logger.Error("Scheduled nudge failed", "error", err)
	}
}

func runNudgeSchedule(cmd *cobra.Command, n nudge.Notifier) error {
	ctx := cmd.Context()
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	d := &nudger{notifier: n, hours: cfg.Nudge.Hours}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(nudgeSchedule, func() { d.tick(ctx, time.Now().In(loc)) }); err != nil {
		return fmt.Errorf("bad schedule %q: %w", nudgeSchedule, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Checking streaks on %q (%s), Ctrl-C to stop\n", nudgeSchedule, loc)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func init() {
	nudgeCmd.Flags().StringVar(&nudgeSchedule, "schedule", "", "cron expression; keep running and check on this schedule")
	rootCmd.AddCommand(nudgeCmd)
}
