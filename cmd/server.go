package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Surya5599/habittracker/internal/config"
	"github.com/Surya5599/habittracker/internal/logger"
	"github.com/Surya5599/habittracker/internal/server"
	"github.com/Surya5599/habittracker/internal/storage"
	boltstore "github.com/Surya5599/habittracker/internal/storage/bolt"
	"github.com/Surya5599/habittracker/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd.Context())
	},
}

func openStore(sc config.StorageConfig) (storage.Store, error) {
	switch sc.Type {
	case config.StorageSQLite:
		return sqlite.Open(sc.Path)
	case "", config.StorageBolt:
		return boltstore.Open(sc.Path)
	}
	return nil, fmt.Errorf("unknown storage type %q", sc.Type)
}

func startServer(ctx context.Context) error {
	st, err := openStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	srv, err := server.New(cfg, st)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", cfg.ListenAddr, "storage", cfg.Storage.Type, "auth_enabled", cfg.AuthEnabled)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
