package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Surya5599/habittracker/internal/apiclient"
	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/internal/migrate"
	"github.com/Surya5599/habittracker/internal/storage"
	boltstore "github.com/Surya5599/habittracker/internal/storage/bolt"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move the guest profile into your account",
	Long: `The "migrate" command copies habits, check-ins and notes from the local
guest profile to the server and then clears the guest profile. If the account
already has habits nothing is copied and the guest profile is discarded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if guestMode {
			return fmt.Errorf("migrate moves guest data to the server; drop --guest")
		}
		if _, err := os.Stat(cfg.GuestDBPath); errors.Is(err, os.ErrNotExist) {
			cmd.Println("No guest profile to migrate.")
			return nil
		}

		token, err := resolveToken()
		if err != nil {
			return err
		}
		if token == "" {
			return fmt.Errorf("not logged in: run `habits login --api-key ...` first")
		}

		db, err := boltstore.Open(cfg.GuestDBPath)
		if err != nil {
			return fmt.Errorf("open guest profile: %w", err)
		}
		defer db.Close()

		local := storage.ForGuest(db, guestUserID)
		remote := apiclient.New(cfg.APIBaseURL, token)
		res, err := migrate.New(local, remote).Run(cmd.Context())
		if err != nil {
			// the account stays usable; guest data is kept for another try
			logger.Error("Guest migration failed", "error", err)
			return fmt.Errorf("migration failed, guest data kept: %w", err)
		}
		cmd.Print(renderMigration(res))
		return nil
	},
}

func renderMigration(res migrate.Result) string {
	if res.Aborted {
		return "Your account already has habits; the guest profile was cleared without copying.\n"
	}
	out := fmt.Sprintf("Moved %d habits, %d check-ins and %d notes to your account.\n",
		res.Habits, res.Completions, res.Notes)
	if res.NotesKept > 0 {
		out += fmt.Sprintf("Kept %d notes already in your account for the same dates.\n", res.NotesKept)
	}
	return out
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
