package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesPragmas(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "pragma.sqlite"), Options{Synchronous: SyncFull, Journal: JournalWAL})
	require.NoError(t, err)
	defer db.Close()

	var sync int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&sync))
	assert.Equal(t, 2, sync, "full is 2")

	mode, err := JournalMode(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, JournalWAL, mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 0, fk)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "bootstrap.sqlite"), DefaultOptions())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Bootstrap(ctx, db))
	require.NoError(t, Bootstrap(ctx, db))

	var tables, columns int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM table_info").Scan(&tables))
	require.NoError(t, db.QueryRow("SELECT count(*) FROM column_info").Scan(&columns))
	assert.Equal(t, 12, tables)
	assert.Greater(t, columns, tables)

	var trailerCols int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM column_info WHERE table_id = 99").Scan(&trailerCols))
	assert.Equal(t, 5, trailerCols)

	var markers int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM trailer").Scan(&markers))
	assert.Equal(t, 0, markers)
}

func TestReleaseWAL(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "wal.sqlite"), DefaultOptions())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Bootstrap(ctx, db))
	require.NoError(t, ReleaseWAL(ctx, db))

	mode, err := JournalMode(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, JournalDelete, mode)
}

func TestOpenMissingDirectory(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope", "db.sqlite"), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOpen), "got %v", err)
}
