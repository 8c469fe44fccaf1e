package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/joho/godotenv"
	"github.com/zclconf/go-cty/cty"

	"github.com/darianmavgo/addresspack/store"
)

// EnvPrefix prefixes every environment override, e.g. ADDRESSPACK_DB_PATH.
const EnvPrefix = "ADDRESSPACK_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration.
type Config struct {
	DBPath              string `hcl:"db_path,optional"`
	DataPath            string `hcl:"data_path,optional"`
	Synchronous         string `hcl:"synchronous,optional"`
	Journal             string `hcl:"journal_mode,optional"`
	FilesPerTransaction int    `hcl:"files_per_transaction,optional"`
	LogErrors           bool   `hcl:"log_errors,optional"`
	StallTimeout        string `hcl:"stall_timeout,optional"`
	LogLevel            string `hcl:"log_level,optional"`
	LogFormat           string `hcl:"log_format,optional"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DBPath:              "./addresspack.sqlite",
		DataPath:            "./data/",
		Synchronous:         string(store.SyncNormal),
		Journal:             string(store.JournalWAL),
		FilesPerTransaction: 10,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load reads the configuration from the given HCL file. Attributes missing
// from the file keep their default value.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file: %s", diags.Error())
	}

	cfg := DefaultConfig()
	diags = gohcl.DecodeBody(file.Body, nil, cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
	}

	return cfg, nil
}

// Export writes the configuration to the specified file in HCL format.
func Export(path string, cfg *Config) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	root.SetAttributeValue("db_path", cty.StringVal(cfg.DBPath))
	root.SetAttributeValue("data_path", cty.StringVal(cfg.DataPath))
	root.AppendNewline()
	root.SetAttributeValue("synchronous", cty.StringVal(cfg.Synchronous))
	root.SetAttributeValue("journal_mode", cty.StringVal(cfg.Journal))
	root.SetAttributeValue("files_per_transaction", cty.NumberIntVal(int64(cfg.FilesPerTransaction)))
	root.AppendNewline()
	root.SetAttributeValue("log_errors", cty.BoolVal(cfg.LogErrors))
	root.SetAttributeValue("stall_timeout", cty.StringVal(cfg.StallTimeout))
	root.SetAttributeValue("log_level", cty.StringVal(cfg.LogLevel))
	root.SetAttributeValue("log_format", cty.StringVal(cfg.LogFormat))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(f.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write config to file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFile when it exists and then applies ADDRESSPACK_*
// variables on top of cfg. Variables already set in the process environment
// win over the file.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	strs := map[string]*string{
		"DB_PATH":       &cfg.DBPath,
		"DATA_PATH":     &cfg.DataPath,
		"SYNCHRONOUS":   &cfg.Synchronous,
		"JOURNAL_MODE":  &cfg.Journal,
		"STALL_TIMEOUT": &cfg.StallTimeout,
		"LOG_LEVEL":     &cfg.LogLevel,
		"LOG_FORMAT":    &cfg.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "FILES_PER_TRANSACTION"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sFILES_PER_TRANSACTION=%q is not an integer", ErrInvalid, EnvPrefix, v)
		}
		cfg.FilesPerTransaction = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_ERRORS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sLOG_ERRORS=%q is not a boolean", ErrInvalid, EnvPrefix, v)
		}
		cfg.LogErrors = b
	}
	return nil
}

// Validate checks the values the loader depends on.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is required", ErrInvalid)
	}
	if c.DataPath == "" {
		return fmt.Errorf("%w: data_path is required", ErrInvalid)
	}
	if c.FilesPerTransaction < 1 {
		return fmt.Errorf("%w: files_per_transaction must be at least 1, got %d", ErrInvalid, c.FilesPerTransaction)
	}
	if _, err := store.ParseSynchronous(c.Synchronous); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := store.ParseJournal(c.Journal); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.StallTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// StoreOptions returns the connection pragmas. Call Validate first.
func (c *Config) StoreOptions() store.Options {
	sync, _ := store.ParseSynchronous(c.Synchronous)
	journal, _ := store.ParseJournal(c.Journal)
	return store.Options{Synchronous: sync, Journal: journal}
}

// StallTimeoutDuration parses stall_timeout. Empty disables the watchdog.
func (c *Config) StallTimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(c.StallTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.StallTimeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: stall_timeout %q is not a positive duration", ErrInvalid, c.StallTimeout)
	}
	return d, nil
}
