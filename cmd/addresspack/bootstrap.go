package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darianmavgo/addresspack/store"
)

func newBootstrapCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the AddressBase tables and their metadata",
		Long:  `Runs the schema script. Running it again leaves an existing database untouched.`,
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

			if err := store.Bootstrap(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is in place in %s\n", cfg.DBPath)
			return nil
		},
	}

	cmd.Flags().String("db-path", "", "SQLite database file (default ./addresspack.sqlite)")
	return cmd
}
