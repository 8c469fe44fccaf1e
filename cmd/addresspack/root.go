package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darianmavgo/addresspack/config"
	"github.com/darianmavgo/addresspack/logging"
)

type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "addresspack",
		Short: "Resumable bulk loader for AddressBase Premium CSV files",
		Long: `addresspack loads a directory of headerless AddressBase Premium CSV files
into SQLite. Files are committed in groups, one transaction per group, and a
rerun picks up after the last file recorded by the trailer table.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database could not be opened
  12 - Bad input (data path is not a directory)
  13 - Database is not bootstrapped
  14 - Bad data (unparsable row or unknown record identifier)
  15 - Interrupted or stalled, the current group was rolled back`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "HCL configuration file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "Optional file with ADDRESSPACK_* variables")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	pf.String("log-level", "", "Log level: debug, info, warn, error (default info)")
	pf.String("log-format", "", "Log format: text, json (default text)")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	cmd.AddCommand(
		newLoadCmd(opts),
		newBootstrapCmd(opts),
		newStatusCmd(opts),
		newConfigCmd(),
	)
	return cmd
}

// resolveConfig layers the configuration file, the environment and the
// flags that were set explicitly, then configures logging.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg, opts.envFile); err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	strs := map[string]*string{
		"db-path":       &cfg.DBPath,
		"data-path":     &cfg.DataPath,
		"sync":          &cfg.Synchronous,
		"journal":       &cfg.Journal,
		"stall-timeout": &cfg.StallTimeout,
		"log-level":     &cfg.LogLevel,
		"log-format":    &cfg.LogFormat,
	}
	for name, dst := range strs {
		if fl := f.Lookup(name); fl != nil && fl.Changed {
			*dst = fl.Value.String()
		}
	}

	if fl := f.Lookup("fpt"); fl != nil && fl.Changed {
		n, err := f.GetInt("fpt")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		cfg.FilesPerTransaction = n
	}
	if fl := f.Lookup("log-errors"); fl != nil && fl.Changed {
		b, err := f.GetBool("log-errors")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		cfg.LogErrors = b
	}
	return nil
}
