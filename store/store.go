// Package store opens and prepares the SQLite database that receives the
// AddressBase records.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// ErrOpen is wrapped by every failure to open or configure the database.
var ErrOpen = errors.New("cannot open store")

//go:embed sql/bootstrap.sql
var bootstrapSQL string

// Options holds the durability knobs applied to every connection.
type Options struct {
	Synchronous Synchronous
	Journal     Journal
}

// DefaultOptions mirrors the loader defaults: synchronous=normal, journal_mode=wal.
func DefaultOptions() Options {
	return Options{
		Synchronous: SyncNormal,
		Journal:     JournalWAL,
	}
}

// Open opens the SQLite database at path and applies the connection pragmas.
// The pool is limited to a single connection: ingestion is single writer and
// transaction scoped statements (tx.Stmt) stay on the same connection.
func Open(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	if opts.Synchronous == "" {
		opts.Synchronous = SyncNormal
	}
	if opts.Journal == "" {
		opts.Journal = JournalWAL
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrOpen, err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA cache_size = 100000",
		"PRAGMA foreign_keys = off",
		fmt.Sprintf("PRAGMA synchronous = %s", opts.Synchronous),
		fmt.Sprintf("PRAGMA journal_mode = %s", opts.Journal),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: failed to set %q: %w", ErrOpen, p, err)
		}
	}

	slog.Debug("database opened", "path", path, "synchronous", opts.Synchronous, "journal_mode", opts.Journal)
	return db, nil
}

// Bootstrap runs the schema and documentation script. It is effectively a
// noop when everything is in place.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, bootstrapSQL); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return nil
}

// ReleaseWAL checkpoints the write-ahead log and switches the journal back to
// delete mode. WAL persists across connections so a finished load should not
// leave it behind.
func ReleaseWAL(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return fmt.Errorf("failed to checkpoint wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = delete"); err != nil {
		return fmt.Errorf("failed to reset journal mode: %w", err)
	}
	return nil
}

// JournalMode reports the journal mode currently in effect.
func JournalMode(ctx context.Context, db *sql.DB) (Journal, error) {
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", fmt.Errorf("failed to read journal mode: %w", err)
	}
	return ParseJournal(mode)
}
