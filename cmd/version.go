package cmd

import (
	"github.com/Surya5599/habittracker/internal/apiclient"
	"github.com/Surya5599/habittracker/pkg/versioninfo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `The "version" command displays the current version info for both client
and server if available.`,
	Run: func(cmd *cobra.Command, args []string) {
		version(cmd)
	},
}

func version(cmd *cobra.Command) {
	cmd.Printf("Client Version: %s\n", versioninfo.Version)
	if guestMode {
		return
	}

	serverVersion, err := apiclient.New(cfg.APIBaseURL, "").Version(cmd.Context())
	if err != nil {
		cmd.Println("Error fetching server version:", err)
		return
	}
	cmd.Printf("Server Version: %s\n", serverVersion.Version)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
