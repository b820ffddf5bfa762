package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorejar/internal/appdata"
	"github.com/dukerupert/chorejar/internal/config"
	"github.com/dukerupert/chorejar/internal/database"
	"github.com/dukerupert/chorejar/internal/kv"
	"github.com/dukerupert/chorejar/internal/logging"
	"github.com/dukerupert/chorejar/internal/store"
)

// rootOptions holds global flags and the state every command shares once
// PersistentPreRunE has run.
type rootOptions struct {
	dbPath   string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "chorejar",
		Short:         "Family chore and allowance tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = opts.dbPath
			}
			if cmd.Flags().Changed("log-level") {
				if _, err := logging.ParseLevel(opts.logLevel); err != nil {
					return err
				}
				cfg.LogLevel = opts.logLevel
			}
			opts.cfg = cfg
			opts.logger = logging.Setup(logging.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides CHOREJAR_DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newBackupCommand(opts))

	return cmd
}

// openClient opens the configured store and wraps it in a data client. The
// returned func closes the store.
func (o *rootOptions) openClient(ctx context.Context, memory bool) (*appdata.Client, func(), error) {
	var backend kv.Store
	if memory {
		backend = kv.NewMemoryStore()
		o.logger.Warn("using in-memory store, data will not persist")
	} else {
		db, err := database.Open(o.cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		version, err := database.SchemaVersion(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		backend = kv.NewSQLiteStore(db)
		o.logger.Debug("database opened", "path", o.cfg.DBPath, "schema", version)
	}

	client := appdata.NewClient(store.New(backend), o.logger.With("component", "appdata"))
	closeFn := func() {
		if err := backend.Close(); err != nil {
			o.logger.Error("close store", "error", err)
		}
	}
	return client, closeFn, nil
}
