package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darianmavgo/addresspack/config"
	"github.com/darianmavgo/addresspack/store"
)

const (
	headerRow  = "10,NAG Hub - GeoPlace,9999,2020-06-06,1,2020-06-06,05:20:14,1.0,F"
	trailerRow = "99,0,2,2020-06-06,05:20:14"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeData(t *testing.T, files map[string][]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, lines := range files {
		content := strings.Join(lines, "\n") + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestLoadCommand(t *testing.T) {
	data := writeData(t, map[string][]string{
		"AddressBasePremium_FULL_2020-06-06_001.csv": {headerRow, trailerRow},
	})
	dbPath := filepath.Join(t.TempDir(), "abp.sqlite")

	out, err := execute(t, "load", "--db-path", dbPath, "--data-path", data, "--fpt", "1")
	require.NoError(t, err)
	assert.Equal(t, "Finished processing all given records.\n", out)

	// The trailer row marked the set complete.
	out, err = execute(t, "load", "--db-path", dbPath, "--data-path", data)
	require.NoError(t, err)
	assert.Equal(t, "There are no pending records to process.\n", out)

	db, err := sql.Open(store.DriverName, dbPath)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "delete", mode, "wal is released after a load")

	var headers int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM header").Scan(&headers))
	assert.Equal(t, 1, headers)
}

func TestLoadBadData(t *testing.T) {
	data := writeData(t, map[string][]string{
		"A_001.csv": {headerRow, "77,unknown"},
	})
	dbPath := filepath.Join(t.TempDir(), "abp.sqlite")

	_, err := execute(t, "load", "--db-path", dbPath, "--data-path", data)
	require.Error(t, err)
	assert.Equal(t, ExitBadData, ExitCodeForError(err))
}

func TestLoadInvalidFlags(t *testing.T) {
	_, err := execute(t, "load", "--fpt", "0")
	assert.Equal(t, ExitConfigError, ExitCodeForError(err))

	_, err = execute(t, "load", "--sync", "sometimes")
	assert.Equal(t, ExitConfigError, ExitCodeForError(err))

	_, err = execute(t, "load", "--no-such-flag")
	assert.Equal(t, ExitUsageError, ExitCodeForError(err))

	_, err = execute(t, "load", "extra")
	assert.Equal(t, ExitUsageError, ExitCodeForError(err))
}

func TestLoadMissingDataDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "abp.sqlite")
	_, err := execute(t, "load", "--db-path", dbPath, "--data-path", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitBadInput, ExitCodeForError(err))
}

func TestStatusMissingDataDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "abp.sqlite")
	_, err := execute(t, "bootstrap", "--db-path", dbPath)
	require.NoError(t, err)

	_, err = execute(t, "status", "--db-path", dbPath, "--data-path", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitBadInput, ExitCodeForError(err))

	var pathErr *fs.PathError
	assert.True(t, errors.As(err, &pathErr), "got %v", err)
}

func TestLoadUsesConfigFile(t *testing.T) {
	data := writeData(t, map[string][]string{
		"A_001.csv": {headerRow, trailerRow},
	})
	cfg := config.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "from-config.sqlite")
	cfg.DataPath = data
	cfg.Journal = "delete"
	cfgPath := filepath.Join(t.TempDir(), "addresspack.hcl")
	require.NoError(t, config.Export(cfgPath, cfg))

	out, err := execute(t, "load", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Finished processing")
	assert.FileExists(t, cfg.DBPath)
}

func TestStatusCommand(t *testing.T) {
	data := writeData(t, map[string][]string{
		"A_001.csv": {headerRow},
		"A_002.csv": {headerRow},
	})
	dbPath := filepath.Join(t.TempDir(), "abp.sqlite")

	_, err := execute(t, "status", "--db-path", dbPath, "--data-path", data)
	assert.Equal(t, ExitNotBootstrapped, ExitCodeForError(err))

	out, err := execute(t, "bootstrap", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is in place")

	out, err = execute(t, "status", "--db-path", dbPath, "--data-path", data)
	require.NoError(t, err)
	assert.Contains(t, out, "next file index: 1\n")
	assert.Contains(t, out, "pending files: 2 of 2\n")
	assert.Contains(t, out, "A_001.csv")
}

func TestLoadHelpListsPragmaValues(t *testing.T) {
	out, err := execute(t, "load", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "off, normal, full, extra")
	assert.Contains(t, out, "off, delete, truncate, persist, memory, wal")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresspack.hcl")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), loaded)

	_, err = execute(t, "config", "init", path)
	require.Error(t, err)
	assert.Equal(t, ExitGeneralError, ExitCodeForError(err))

	_, err = execute(t, "config", "init", path, "--force")
	require.NoError(t, err)
}
