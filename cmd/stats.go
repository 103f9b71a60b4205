package cmd

import (
	"github.com/Surya5599/habittracker/internal/period"
	"github.com/spf13/cobra"
)

var statsFlags struct {
	kind   string
	offset int
	year   int
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion stats for a day, week, month or year",
	Long: `The "stats" command reports completed, due and missed check-ins per habit.
--offset moves back (negative) or forward through periods of the chosen kind.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := period.ParseKind(statsFlags.kind)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			resp, err := s.stats.Period(cmd.Context(), kind, statsFlags.offset, cfg.Today())
			if err != nil {
				return err
			}
			cmd.Print(renderPeriod(resp))
			return nil
		})
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank habits over a year and show their badges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			today := cfg.Today()
			resp, err := s.stats.Ranking(cmd.Context(), statsFlags.year, today)
			if err != nil {
				return err
			}
			cmd.Print(renderRanking(resp))

			sig, err := s.stats.Signals(cmd.Context(), statsFlags.year, today)
			if err != nil {
				return err
			}
			cmd.Print(renderSignals(sig))
			return nil
		})
	},
}

var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "Tell how the current period is going",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := period.ParseKind(statsFlags.kind)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			resp, err := s.stats.Story(cmd.Context(), kind, statsFlags.offset, cfg.Today())
			if err != nil {
				return err
			}
			cmd.Print(renderStory(resp))
			return nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <habit-id>",
	Short: "Show streaks and totals for one habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			sum, err := s.stats.GetHabitSummary(cmd.Context(), args[0], cfg.Today())
			if err != nil {
				return err
			}
			cmd.Print(renderSummary(sum))
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{statsCmd, storyCmd} {
		c.Flags().StringVar(&statsFlags.kind, "kind", "week", "period kind: day, week, month or year")
		c.Flags().IntVar(&statsFlags.offset, "offset", 0, "periods relative to the current one, e.g. -1 for the previous")
	}
	rankCmd.Flags().IntVar(&statsFlags.year, "year", 0, "calendar year (default: this year)")

	rootCmd.AddCommand(statsCmd, rankCmd, storyCmd, summaryCmd)
}
