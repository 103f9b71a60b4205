package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Surya5599/habittracker/internal/config"
	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	guestMode bool
	verbose   bool

	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "habits",
	Short: "Track daily habits and see how you are doing",
	Long: `
	Habits tracks recurring habits day by day and turns the check-ins into period
	reports, yearly rankings, month-over-month signals and a short written story.
	It talks to a habits server, or with --guest keeps everything in a local file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadOptional(); err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		return setupLogging(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// setupLogging applies the configured log settings. Client commands log to
// stdout alongside their output, so below warn is only shown with --verbose.
func setupLogging(cmd *cobra.Command) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	} else if cmd != serverCmd && cfg.Log.File == "" && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	logCloser = logger.Configure(logger.Options{
		Level:  level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	return nil
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&guestMode, "guest", false, "use the local guest profile instead of the server")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
