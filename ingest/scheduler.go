package ingest

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// ContextCheckInterval is how often (in rows) the scheduler checks for
// cancellation between inserts.
var ContextCheckInterval = 100

// Summary counts the work done by a scheduler run.
type Summary struct {
	Files    int
	Batches  int
	Rows     int64
	Rejected int64
}

// Scheduler commits pending files in groups of BatchSize files, one
// transaction per group. A failing group is rolled back; groups committed
// before it stay durable.
type Scheduler struct {
	DB        *sql.DB
	Cache     *Cache
	BatchSize int

	// LogErrors records row level failures in the error log table and keeps
	// going instead of aborting the group.
	LogErrors bool
	// StallTimeout aborts the run when no row is processed for this long.
	StallTimeout time.Duration

	Progress Progress
	Logger   *slog.Logger
}

// Partition splits files into consecutive groups of at most size files.
func Partition(files []string, size int) [][]string {
	if size < 1 || len(files) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end:end])
	}
	return batches
}

// Run processes files strictly in the given order and returns what was
// committed. On error the summary covers the committed groups only.
func (s *Scheduler) Run(ctx context.Context, files []string) (Summary, error) {
	var sum Summary
	if s.BatchSize < 1 {
		return sum, newError(ErrBadInput, "files per transaction must be at least 1, got %d", s.BatchSize)
	}
	if s.Cache == nil {
		return sum, newError(ErrBadInput, "statement cache is required")
	}
	progress := s.Progress
	if progress == nil {
		progress = NopProgress{}
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, wd := NewWatchdog(ctx, s.StallTimeout)
	defer wd.Stop()

	prepared, err := s.prepare(ctx)
	if err != nil {
		return sum, s.abortErr(ctx, err)
	}
	defer prepared.close()

	r := &batchRun{
		sched:    s,
		prepared: prepared,
		progress: progress,
		watchdog: wd,
	}

	for i, batch := range Partition(files, s.BatchSize) {
		logger.Debug("batch started", "batch", i, "files", len(batch), "first", batch[0])
		progress.BatchStarted(i, batch)

		rows, rejected, err := r.commitBatch(ctx, batch)
		if err != nil {
			progress.BatchRolledBack(i, batch, err)
			logger.Warn("batch rolled back", "batch", i, "error", err)
			return sum, err
		}

		sum.Files += len(batch)
		sum.Batches++
		sum.Rows += rows
		sum.Rejected += rejected
		progress.BatchCommitted(i, batch)
		logger.Info("batch committed", "batch", i, "files", len(batch), "rows", rows, "rejected", rejected)
	}

	return sum, nil
}

// preparedSet holds the connection level statements, prepared once per run.
type preparedSet struct {
	inserts  map[uint32]*sql.Stmt
	errorLog *sql.Stmt
}

func (p *preparedSet) close() {
	for _, st := range p.inserts {
		st.Close()
	}
	if p.errorLog != nil {
		p.errorLog.Close()
	}
}

func (s *Scheduler) prepare(ctx context.Context) (*preparedSet, error) {
	p := &preparedSet{inserts: make(map[uint32]*sql.Stmt, s.Cache.Len())}

	if s.LogErrors {
		if _, err := s.DB.ExecContext(ctx, createErrorLogSQL); err != nil {
			return nil, classifyStoreErr("failed to create error log table", err)
		}
		st, err := s.DB.PrepareContext(ctx, insertErrorLogSQL)
		if err != nil {
			return nil, classifyStoreErr("failed to prepare error log statement", err)
		}
		p.errorLog = st
	}

	for _, id := range s.Cache.IDs() {
		stmt, _ := s.Cache.Get(id)
		st, err := s.DB.PrepareContext(ctx, stmt.SQL)
		if err != nil {
			p.close()
			return nil, classifyStoreErr(fmt.Sprintf("failed to prepare insert statement for table %s", stmt.Table), err)
		}
		p.inserts[id] = st
	}
	return p, nil
}

type batchRun struct {
	sched    *Scheduler
	prepared *preparedSet
	progress Progress
	watchdog *Watchdog
}

// txState is the per transaction view of the prepared statements.
type txState struct {
	tx       *sql.Tx
	stmts    map[uint32]*sql.Stmt
	errorLog *sql.Stmt
	rows     int64
	rejected int64
}

func (t *txState) close() {
	for _, st := range t.stmts {
		st.Close()
	}
	if t.errorLog != nil {
		t.errorLog.Close()
	}
}

func (r *batchRun) commitBatch(ctx context.Context, files []string) (int64, int64, error) {
	tx, err := r.sched.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, r.sched.abortErr(ctx, classifyStoreErr("failed to begin transaction", err))
	}

	st := &txState{tx: tx, stmts: make(map[uint32]*sql.Stmt)}
	if r.prepared.errorLog != nil {
		st.errorLog = tx.StmtContext(ctx, r.prepared.errorLog)
	}

	for _, path := range files {
		if err := r.processFile(ctx, st, path); err != nil {
			st.close()
			tx.Rollback()
			return 0, 0, r.sched.abortErr(ctx, err)
		}
	}

	// Statements must be closed before commit.
	st.close()
	if err := tx.Commit(); err != nil {
		return 0, 0, r.sched.abortErr(ctx, classifyStoreErr("failed to commit transaction", err))
	}
	return st.rows, st.rejected, nil
}

// abortErr reports cancellation in place of the error it caused.
func (s *Scheduler) abortErr(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	if errors.Is(context.Cause(ctx), ErrStalled) {
		return fmt.Errorf("%w (%v): transaction rolled back", ErrStalled, s.StallTimeout)
	}
	return fmt.Errorf("%w: transaction rolled back: %v", ErrInterrupted, context.Cause(ctx))
}

func (r *batchRun) processFile(ctx context.Context, st *txState, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r.progress.FileStarted(path)

	reader := csv.NewReader(bufio.NewReaderSize(f, 65536))
	reader.FieldsPerRecord = -1 // Record types differ in width within a file.
	reader.ReuseRecord = true

	// Rows still pending when the file fails are never reported.
	pending := 0
	flush := func() {
		if pending > 0 {
			r.progress.RowsInserted(pending)
			pending = 0
		}
	}

	for n := 1; ; n++ {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		fields, err := reader.Read()
		if err == io.EOF {
			flush()
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			rowErr := &RowError{Path: path, Line: pe.StartLine, Err: newError(ErrParse, "%v", pe.Err)}
			if err := r.reject(ctx, st, rowErr, nil); err != nil {
				return err
			}
			continue
		}

		line, _ := reader.FieldPos(0)
		rec := NewRecord(fields)
		if err := r.insert(ctx, st, rec); err != nil {
			if ctx.Err() != nil {
				return err
			}
			if err := r.reject(ctx, st, &RowError{Path: path, Line: line, Err: err}, rec); err != nil {
				return err
			}
			continue
		}

		st.rows++
		pending++
		if pending == 1000 {
			flush()
		}
		r.watchdog.Kick()
	}
}

func (r *batchRun) insert(ctx context.Context, st *txState, rec Record) error {
	id, err := rec.TableID()
	if err != nil {
		return err
	}
	stmt, err := r.sched.Cache.Get(id)
	if err != nil {
		return err
	}
	args, err := rec.Args(stmt.Columns)
	if err != nil {
		return err
	}

	txStmt, ok := st.stmts[id]
	if !ok {
		txStmt = st.tx.StmtContext(ctx, r.prepared.inserts[id])
		st.stmts[id] = txStmt
	}
	if _, err := txStmt.ExecContext(ctx, args...); err != nil {
		return classifyStoreErr(fmt.Sprintf("failed to insert row in table %s", stmt.Table), err)
	}
	return nil
}

// reject either records the failed row and lets processing continue, or
// returns the error that aborts the group.
func (r *batchRun) reject(ctx context.Context, st *txState, rowErr *RowError, rec Record) error {
	if st.errorLog == nil {
		return rowErr
	}
	var data sql.NullString
	if rec != nil {
		data = sql.NullString{String: rec.String(), Valid: true}
	}
	if _, err := st.errorLog.ExecContext(ctx, rowErr.Err.Error(), rowErr.Path, rowErr.Line, data); err != nil {
		return classifyStoreErr("failed to log rejected row", err)
	}
	st.rejected++
	r.progress.RowRejected(rowErr.Path, rowErr.Line, rowErr.Err)
	r.watchdog.Kick()
	return nil
}
