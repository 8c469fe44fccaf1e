package main

import (
	"errors"
	"strings"

	"github.com/darianmavgo/addresspack/config"
	"github.com/darianmavgo/addresspack/ingest"
	"github.com/darianmavgo/addresspack/store"
)

// Exit codes.
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitUsageError      = 2
	ExitPanic           = 3
	ExitConfigError     = 10
	ExitStoreError      = 11
	ExitBadInput        = 12
	ExitNotBootstrapped = 13
	ExitBadData         = 14
	ExitInterrupted     = 15
)

// ErrUsage marks command line misuse.
var ErrUsage = errors.New("usage error")

// ExitCodeForError returns the exit code for an error returned by a command.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ingest.ErrInterrupted), errors.Is(err, ingest.ErrStalled):
		return ExitInterrupted
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.Is(err, store.ErrOpen):
		return ExitStoreError
	case errors.Is(err, ingest.ErrBadInput):
		return ExitBadInput
	case errors.Is(err, ingest.ErrMissingSchema):
		return ExitNotBootstrapped
	case errors.Is(err, ingest.ErrParse), errors.Is(err, ingest.ErrCacheMiss):
		return ExitBadData
	}

	// cobra reports argument errors as plain strings.
	msg := err.Error()
	for _, p := range []string{"unknown flag", "unknown shorthand flag", "unknown command", "accepts ", "requires at least", "invalid argument", "required flag"} {
		if strings.Contains(msg, p) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
