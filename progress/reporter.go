// Package progress reports ingestion progress on the console.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"github.com/darianmavgo/addresspack/ingest"
)

// Reporter implements ingest.Progress. On a terminal it redraws a single
// status line; otherwise it logs a summary every Interval.
type Reporter struct {
	w           io.Writer
	logger      *slog.Logger
	interactive bool
	total       int

	// Interval throttles redraws and log lines.
	Interval time.Duration
	now      func() time.Time

	start    time.Time
	last     time.Time
	files    int
	current  string
	rows     int64
	rejected int64
	batches  int

	// counted since the current batch started
	batchRows     int64
	batchRejected int64
}

var _ ingest.Progress = (*Reporter)(nil)

// New returns a reporter for total pending files writing to w. Output is
// interactive only when w is a terminal.
func New(w io.Writer, total int, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	r := &Reporter{
		w:           w,
		logger:      logger,
		interactive: interactive,
		total:       total,
		now:         time.Now,
	}
	r.Interval = 2 * time.Second
	if interactive {
		r.Interval = 100 * time.Millisecond
	}
	r.start = r.now()
	r.last = r.start
	return r
}

func (r *Reporter) BatchStarted(batch int, files []string) {
	r.batchRows = 0
	r.batchRejected = 0
}

func (r *Reporter) FileStarted(path string) {
	r.files++
	r.current = filepath.Base(path)
	r.update(true)
}

func (r *Reporter) RowsInserted(n int) {
	r.rows += int64(n)
	r.batchRows += int64(n)
	r.update(false)
}

func (r *Reporter) RowRejected(path string, line int, err error) {
	r.rejected++
	r.batchRejected++
	r.logger.Warn("row rejected", "file", filepath.Base(path), "line", line, "error", err)
}

func (r *Reporter) BatchCommitted(batch int, files []string) {
	r.batches++
	r.update(true)
}

// BatchRolledBack discounts the rows of the failed batch.
func (r *Reporter) BatchRolledBack(batch int, files []string, err error) {
	r.rows -= r.batchRows
	r.rejected -= r.batchRejected
	r.batchRows = 0
	r.batchRejected = 0
	r.update(true)
}

// Finish draws the final state and ends the status line.
func (r *Reporter) Finish() {
	if r.interactive {
		r.draw()
		fmt.Fprintln(r.w)
		return
	}
	r.logger.Info("load finished", r.attrs()...)
}

func (r *Reporter) update(force bool) {
	now := r.now()
	// Only the status line redraws on every file and batch boundary.
	if now.Sub(r.last) < r.Interval && !(force && r.interactive) {
		return
	}
	r.last = now
	if r.interactive {
		r.draw()
		return
	}
	r.logger.Info("loading", r.attrs()...)
}

func (r *Reporter) draw() {
	elapsed := r.now().Sub(r.start).Truncate(time.Second)
	fmt.Fprintf(r.w, "\r\033[K[%s] files %d/%d  rows %d  committed batches %d  %s",
		elapsed, r.files, r.total, r.rows, r.batches, r.current)
}

func (r *Reporter) attrs() []any {
	return []any{
		"files", r.files,
		"total", r.total,
		"rows", r.rows,
		"rejected", r.rejected,
		"batches", r.batches,
		"elapsed", r.now().Sub(r.start).Truncate(time.Millisecond),
	}
}
