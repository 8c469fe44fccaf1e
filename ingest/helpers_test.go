package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/darianmavgo/addresspack/store"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.sqlite"), store.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func bootstrappedDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openDB(t)
	require.NoError(t, store.Bootstrap(context.Background(), db))
	return db
}

func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func setTrailer(t *testing.T, db *sql.DB, next string) {
	t.Helper()
	_, err := db.Exec("INSERT INTO trailer VALUES (?, ?, ?, ?, ?)", "99", next, "1000000", "2020-06-06", "05:20:14")
	require.NoError(t, err)
}

// orgRow is a complete organisation record (11 columns).
func orgRow(uprn int, name string) string {
	return fmt.Sprintf("31,I,1,%d,K%d,%s,,2008-01-01,,2016-01-01,2008-01-01", uprn, uprn, name)
}

// classRow is a complete classification record (12 columns).
func classRow(uprn int, code string) string {
	return fmt.Sprintf("32,I,2,%d,C%d,%s,AddressBase Premium Classification Scheme,1.0,2008-01-01,,2016-01-01,2008-01-01", uprn, uprn, code)
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM "+table).Scan(&n))
	return n
}

// recordingProgress keeps every notification for assertions.
type recordingProgress struct {
	started   [][]string
	committed [][]string
	files     []string
	rows      int
	rejected  []int
	rolled    [][]string
}

func (p *recordingProgress) BatchStarted(_ int, files []string) {
	p.started = append(p.started, append([]string(nil), files...))
}

func (p *recordingProgress) FileStarted(path string) { p.files = append(p.files, path) }

func (p *recordingProgress) RowsInserted(n int) { p.rows += n }

func (p *recordingProgress) RowRejected(_ string, line int, _ error) {
	p.rejected = append(p.rejected, line)
}

func (p *recordingProgress) BatchCommitted(_ int, files []string) {
	p.committed = append(p.committed, append([]string(nil), files...))
}

func (p *recordingProgress) BatchRolledBack(_ int, files []string, _ error) {
	p.rolled = append(p.rolled, append([]string(nil), files...))
}
