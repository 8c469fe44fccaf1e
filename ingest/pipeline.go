package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Outcome is the terminal state of a pipeline run.
type Outcome int

const (
	// OutcomeNoop means there was nothing pending.
	OutcomeNoop Outcome = iota
	// OutcomeDone means every pending file was committed.
	OutcomeDone
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "There are no pending records to process."
	case OutcomeDone:
		return "Finished processing all given records."
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is returned by Process.
type Result struct {
	Outcome   Outcome
	NextIndex uint32 // 0 when the trailer reported a complete set
	Pending   int
	Summary   Summary
}

func (r Result) String() string { return r.Outcome.String() }

// Options configures a pipeline run.
type Options struct {
	// FilesPerTransaction is the number of files committed per transaction.
	FilesPerTransaction int
	LogErrors           bool
	StallTimeout        time.Duration
	Progress            Progress
	Logger              *slog.Logger
}

// ListCSV returns the .csv files in dir sorted lexicographically. File names
// are expected to sort in ingestion order.
func ListCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Pending returns the files not yet covered by next. index is the value
// returned by NextIndex; files 1..index-1 are considered ingested.
func Pending(files []string, index uint32) []string {
	processed := int(index) - 1
	if processed < 0 {
		processed = 0
	}
	if processed >= len(files) {
		return nil
	}
	return files[processed:]
}

// Process loads every pending CSV file of dir into db.
//
// The trailer is never written here. Trailer rows (table 99) arrive inside
// the CSV volumes and are inserted like any other record, which is what moves
// the resume point forward.
func Process(ctx context.Context, db *sql.DB, dir string, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Result{}, newError(ErrBadInput, "%s must be a directory", dir)
	}

	index, ok, err := NextIndex(ctx, db)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		logger.Info("trailer reports a complete set")
		return Result{Outcome: OutcomeNoop}, nil
	}

	files, err := ListCSV(dir)
	if err != nil {
		return Result{}, wrapError(ErrBadInput, "failed to list csv files", err)
	}
	pending := Pending(files, index)
	res := Result{Outcome: OutcomeNoop, NextIndex: index, Pending: len(pending)}
	if len(pending) == 0 {
		logger.Info("no pending files", "next_index", index, "files", len(files))
		return res, nil
	}

	cache, err := PrepareCache(ctx, db)
	if err != nil {
		return res, err
	}
	logger.Info("processing", "next_index", index, "pending", len(pending), "tables", cache.Len(),
		"files_per_transaction", opts.FilesPerTransaction)

	sched := &Scheduler{
		DB:           db,
		Cache:        cache,
		BatchSize:    opts.FilesPerTransaction,
		LogErrors:    opts.LogErrors,
		StallTimeout: opts.StallTimeout,
		Progress:     opts.Progress,
		Logger:       logger,
	}
	sum, err := sched.Run(ctx, pending)
	res.Summary = sum
	if err != nil {
		return res, err
	}

	res.Outcome = OutcomeDone
	return res, nil
}
