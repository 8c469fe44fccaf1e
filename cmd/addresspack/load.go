package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/darianmavgo/addresspack/config"
	"github.com/darianmavgo/addresspack/ingest"
	"github.com/darianmavgo/addresspack/logging"
	"github.com/darianmavgo/addresspack/progress"
	"github.com/darianmavgo/addresspack/store"
)

func newLoadCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load pending CSV files into the database",
		Long: `Connects to the database, bootstraps the schema, and loads every CSV file
after the one recorded by the trailer table. With journal mode wal the log is
checkpointed and the journal switched back to delete once loading finishes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runLoad(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.String("db-path", "", "SQLite database file (default ./addresspack.sqlite)")
	f.String("data-path", "", "Directory holding the CSV files (default ./data/)")
	f.String("sync", "", fmt.Sprintf("PRAGMA synchronous: %s (default normal)", strings.Join(store.SynchronousValues(), ", ")))
	f.String("journal", "", fmt.Sprintf("PRAGMA journal_mode: %s (default wal)", strings.Join(store.JournalValues(), ", ")))
	f.Int("fpt", 0, "Files per transaction (default 10)")
	f.Bool("log-errors", false, "Record bad rows in the error log table and keep going")
	f.String("stall-timeout", "", "Abort when no row is processed for this long, e.g. 5m")
	return cmd
}

func runLoad(cmd *cobra.Command, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, _ := logging.WithRun()
	stall, _ := cfg.StallTimeoutDuration()
	logger.Info("load started",
		"db_path", cfg.DBPath,
		"data_path", cfg.DataPath,
		"files_per_transaction", cfg.FilesPerTransaction,
		"synchronous", cfg.Synchronous,
		"journal_mode", cfg.Journal,
		"log_errors", cfg.LogErrors,
	)

	opts := cfg.StoreOptions()
	db, err := store.Open(ctx, cfg.DBPath, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Bootstrap(ctx, db); err != nil {
		return err
	}

	b, err := readBacklog(ctx, db, cfg.DataPath)
	if err != nil {
		return err
	}

	var reporter *progress.Reporter
	pipelineOpts := ingest.Options{
		FilesPerTransaction: cfg.FilesPerTransaction,
		LogErrors:           cfg.LogErrors,
		StallTimeout:        stall,
		Logger:              logger,
	}
	if len(b.pending) > 0 {
		reporter = progress.New(cmd.ErrOrStderr(), len(b.pending), logger)
		pipelineOpts.Progress = reporter
	}

	res, err := ingest.Process(ctx, db, cfg.DataPath, pipelineOpts)
	if reporter != nil {
		reporter.Finish()
	}
	if err != nil {
		logger.Error("load failed", "error", err, "committed_files", res.Summary.Files)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res)

	if opts.Journal == store.JournalWAL {
		if err := store.ReleaseWAL(ctx, db); err != nil {
			return err
		}
		mode, err := store.JournalMode(ctx, db)
		if err != nil {
			return err
		}
		logger.Debug("write-ahead log released", "journal_mode", mode)
	}

	logger.Info("load finished",
		"outcome", res.Outcome,
		"files", res.Summary.Files,
		"batches", res.Summary.Batches,
		"rows", res.Summary.Rows,
		"rejected", res.Summary.Rejected,
	)
	return nil
}
