package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadInput reports an input path that cannot be processed, for example
	// a data path that is not a directory.
	ErrBadInput = errors.New("bad input")
	// ErrMissingSchema reports that the marker or metadata tables are absent:
	// the store has not been bootstrapped.
	ErrMissingSchema = errors.New("missing schema object")
	// ErrParse reports malformed CSV or a non numeric table identifier.
	ErrParse = errors.New("parse error")
	// ErrCacheMiss reports a row whose table identifier has no prepared statement.
	ErrCacheMiss = errors.New("no cached statement")
	// ErrStore reports an engine failure not otherwise classified.
	ErrStore = errors.New("store error")

	// ErrInterrupted reports a run cancelled by its context, typically a signal.
	ErrInterrupted = errors.New("operation interrupted")
	// ErrStalled reports a run aborted because no row was processed within the
	// stall timeout.
	ErrStalled = errors.New("no progress within stall timeout")
)

// classifiedError pairs a sentinel with the underlying cause so both
// errors.Is(err, ErrStore) and errors.As(err, &driverErr) hold.
type classifiedError struct {
	kind error
	msg  string
	err  error
}

func (e *classifiedError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
}

func (e *classifiedError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// classifyStoreErr wraps a database/sql error. A "no such table" failure means
// the store was never bootstrapped, everything else is an engine failure.
func classifyStoreErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	var ce *classifiedError
	if errors.As(err, &ce) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	kind := ErrStore
	if strings.Contains(err.Error(), "no such table") {
		kind = ErrMissingSchema
	}
	return &classifiedError{kind: kind, msg: msg, err: err}
}

func newError(kind error, format string, args ...any) error {
	return &classifiedError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// wrapError classifies err as kind and keeps it reachable for errors.As.
func wrapError(kind error, msg string, err error) error {
	return &classifiedError{kind: kind, msg: msg, err: err}
}

// RowError locates a failure at a line of an input file.
type RowError struct {
	Path string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
