package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darianmavgo/addresspack/ingest"
	"github.com/darianmavgo/addresspack/store"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the resume point and the number of pending files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}

			db, err := store.Open(cmd.Context(), cfg.DBPath, cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer db.Close()

			b, err := readBacklog(cmd.Context(), db, cfg.DataPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if b.complete {
				fmt.Fprintln(out, "The trailer reports a complete set, nothing is pending.")
				return nil
			}
			fmt.Fprintf(out, "next file index: %d\n", b.index)
			fmt.Fprintf(out, "pending files: %d of %d\n", len(b.pending), b.total)
			if len(b.pending) > 0 {
				fmt.Fprintf(out, "next file: %s\n", b.pending[0])
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.String("db-path", "", "SQLite database file (default ./addresspack.sqlite)")
	f.String("data-path", "", "Directory holding the CSV files (default ./data/)")
	return cmd
}

// backlog is what a load would pick up next.
type backlog struct {
	index    uint32
	complete bool
	total    int
	pending  []string
}

func readBacklog(ctx context.Context, db ingest.Queryer, dir string) (backlog, error) {
	var b backlog
	index, ok, err := ingest.NextIndex(ctx, db)
	if err != nil {
		return b, err
	}
	if !ok {
		b.complete = true
		return b, nil
	}
	files, err := ingest.ListCSV(dir)
	if err != nil {
		return b, fmt.Errorf("%w: %w", ingest.ErrBadInput, err)
	}
	b.index = index
	b.total = len(files)
	b.pending = ingest.Pending(files, index)
	return b, nil
}
