package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

const keyringService = "habits"

var loginAPIKey string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API key for the configured server",
	Long: `The "login" command saves an API key (create one at /auth/api_keys on the
server) in the system keyring. It is used for every later command that talks to
the server. HABITS_AUTH_TOKEN takes precedence when set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.TrimSpace(loginAPIKey)
		if !strings.HasPrefix(key, "hab_") {
			return fmt.Errorf("api key must start with hab_")
		}
		if err := keyring.Set(keyringService, cfg.APIBaseURL, key); err != nil {
			return fmt.Errorf("save api key: %w", err)
		}
		cmd.Printf("Saved API key for %s\n", cfg.APIBaseURL)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := keyring.Delete(keyringService, cfg.APIBaseURL)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("delete api key: %w", err)
		}
		cmd.Printf("Logged out of %s\n", cfg.APIBaseURL)
		return nil
	},
}

// resolveToken prefers the configured token over the keyring. No token at all
// is fine when the server runs without auth.
func resolveToken() (string, error) {
	if cfg.AuthToken != "" {
		return cfg.AuthToken, nil
	}
	tok, err := keyring.Get(keyringService, cfg.APIBaseURL)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read api key from keyring: %w", err)
	}
	return tok, nil
}

func init() {
	loginCmd.Flags().StringVar(&loginAPIKey, "api-key", "", "API key issued by the server")
	loginCmd.MarkFlagRequired("api-key")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
