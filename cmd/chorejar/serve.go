package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorejar/internal/issues"
	"github.com/dukerupert/chorejar/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, memory)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "keep data in memory instead of SQLite")

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, memory bool) error {
	cfg, logger := opts.cfg, opts.logger

	data, closeStore, err := opts.openClient(ctx, memory)
	if err != nil {
		return err
	}
	defer closeStore()

	if !cfg.GitHubConfigured() {
		logger.Warn("GITHUB_TOKEN not set, bug reports will be rejected")
	}
	issueClient := issues.NewClient(cfg.GitHubToken, cfg.GitHubOwner, cfg.GitHubRepo, logger.With("component", "github"))
	srv := server.New(data, issueClient, cfg.S3, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.BackupManager().Start(ctx, cfg.BackupInterval, cfg.BackupRetention, cfg.BackupPassphrase)
	defer srv.BackupManager().Stop()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chorejar running", "addr", "http://localhost:"+cfg.Port, "memory", memory)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
