package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqasim81/dealfinder-db/internal/database"
	"github.com/aqasim81/dealfinder-db/internal/migration"
	"github.com/aqasim81/dealfinder-db/internal/parser"
	"github.com/aqasim81/dealfinder-db/internal/tracker"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusPending   = "pending" // dry run only
)

// ProgressEvent is emitted by the executor for each file processed.
type ProgressEvent struct {
	File       *migration.File
	Status     string
	Statements int
	Duration   time.Duration
	Error      error
}

// Result lists the filenames handled by one Apply call, in application order.
type Result struct {
	Applied []string
	Skipped []string
	Pending []string // dry run only
}

// MigrationTracker abstracts schema_migrations operations for testability.
type MigrationTracker interface {
	EnsureTable(ctx context.Context) error
	TableExists(ctx context.Context) (bool, error)
	IsApplied(ctx context.Context, filename string) (bool, error)
	GetChecksum(ctx context.Context, filename string) (string, error)
	RecordApplied(ctx context.Context, db tracker.Execer, p tracker.RecordParams) error
}

// lockReleaser is returned by lockFn and must be released when done.
type lockReleaser interface {
	Release(ctx context.Context) error
}

// lockFunc acquires an advisory lock and returns a releaser.
type lockFunc func(ctx context.Context) (lockReleaser, error)

// recordFunc writes the tracking row through db.
type recordFunc func(ctx context.Context, db tracker.Execer) error

// fileExecFunc executes a prepared file and, only if every statement
// succeeded, calls record on the same transaction or connection.
type fileExecFunc func(ctx context.Context, f *migration.File, p *Plan, record recordFunc) error

// Executor applies pending migration files in filename order, at most once
// each, under an advisory lock.
type Executor struct {
	pool             *pgxpool.Pool
	tracker          MigrationTracker
	lockTimeout      time.Duration
	lockWait         time.Duration
	statementTimeout time.Duration
	splitMode        parser.SplitMode
	strictChecksums  bool
	dryRun           bool
	logger           *slog.Logger
	onProgress       func(ProgressEvent)
	acquireLock      lockFunc
	execFile         fileExecFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithLockTimeout sets the per-file lock_timeout.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Executor) { e.lockTimeout = d }
}

// WithStatementTimeout sets the per-file statement_timeout.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *Executor) { e.statementTimeout = d }
}

// WithLockWait sets how long Apply waits for another runner to release the
// migration lock. Zero fails immediately.
func WithLockWait(d time.Duration) Option {
	return func(e *Executor) { e.lockWait = d }
}

// WithSplitMode selects how files are split into statements.
func WithSplitMode(m parser.SplitMode) Option {
	return func(e *Executor) { e.splitMode = m }
}

// WithStrictChecksums makes an edited, already-applied file a hard error
// instead of a warning.
func WithStrictChecksums(b bool) Option {
	return func(e *Executor) { e.strictChecksums = b }
}

// WithDryRun enables dry-run mode where no SQL is executed.
func WithDryRun(b bool) Option {
	return func(e *Executor) { e.dryRun = b }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithProgressCallback sets a function called for each file processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(e *Executor) { e.onProgress = fn }
}

// New creates an Executor with the given pool, tracker, and options.
func New(pool *pgxpool.Pool, t MigrationTracker, opts ...Option) *Executor {
	e := &Executor{
		pool:      pool,
		tracker:   t,
		splitMode: parser.SplitScanner,
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(e)
	}

	// Set defaults for injectable functions after options are applied,
	// so tests can override them via options.
	if e.acquireLock == nil {
		e.acquireLock = func(ctx context.Context) (lockReleaser, error) {
			return database.AcquireLock(ctx, e.pool, e.lockWait)
		}
	}

	if e.execFile == nil {
		e.execFile = e.executeFile
	}

	return e
}

// Apply executes pending files in ascending filename order. Files already
// recorded in schema_migrations are skipped. The first failing statement
// stops the run; its file is left unrecorded so the next run retries it
// from the top. The returned Result is valid even when err is non-nil.
// A dry run never creates or alters schema_migrations; without the table
// every file is pending.
func (e *Executor) Apply(ctx context.Context, files []migration.File) (Result, error) {
	var res Result

	lock, err := e.acquireLock(ctx)
	if err != nil {
		return res, fmt.Errorf("acquiring migration lock: %w", err)
	}
	defer lock.Release(ctx) //nolint:errcheck // best-effort release on return

	tracked, err := e.prepareTracking(ctx)
	if err != nil {
		return res, err
	}

	sorted := migration.Sort(files)
	e.log().InfoContext(ctx, "migration run started",
		slog.Int("files", len(sorted)),
		slog.Bool("dry_run", e.dryRun),
	)

	for i := range sorted {
		if err := e.applyOne(ctx, &sorted[i], tracked, &res); err != nil {
			e.log().ErrorContext(ctx, "migration run stopped",
				slog.String("file", sorted[i].Filename),
				slog.Int("applied", len(res.Applied)),
				slog.Any("error", err),
			)

			return res, err
		}
	}

	e.log().InfoContext(ctx, "migration run finished",
		slog.Int("applied", len(res.Applied)),
		slog.Int("skipped", len(res.Skipped)),
		slog.Int("pending", len(res.Pending)),
	)

	return res, nil
}

// prepareTracking makes sure schema_migrations can be read and written. In
// a dry run it only looks, and reports false when there is no table yet.
func (e *Executor) prepareTracking(ctx context.Context) (bool, error) {
	if e.dryRun {
		return e.tracker.TableExists(ctx)
	}

	if err := e.tracker.EnsureTable(ctx); err != nil {
		return false, err
	}

	return true, nil
}

// applyOne handles a single file: skip if recorded, dry-run report,
// otherwise prepare, execute, record, and fire progress. Untracked means
// schema_migrations does not exist, so nothing is recorded yet.
func (e *Executor) applyOne(ctx context.Context, f *migration.File, tracked bool, res *Result) error {
	if tracked {
		skip, err := e.shouldSkip(ctx, f)
		if err != nil {
			return err
		}

		if skip {
			res.Skipped = append(res.Skipped, f.Filename)
			e.log().DebugContext(ctx, "migration already applied", slog.String("file", f.Filename))
			e.fireProgress(ProgressEvent{File: f, Status: StatusSkipped})

			return nil
		}
	}

	plan, err := Prepare(f, e.splitMode)
	if err != nil {
		e.fireProgress(ProgressEvent{File: f, Status: StatusFailed, Error: err})
		return err
	}

	if e.dryRun {
		res.Pending = append(res.Pending, f.Filename)
		e.fireProgress(ProgressEvent{File: f, Status: StatusPending, Statements: len(plan.Statements)})

		return nil
	}

	e.fireProgress(ProgressEvent{File: f, Status: StatusStarting, Statements: len(plan.Statements)})

	start := time.Now()
	record := func(ctx context.Context, db tracker.Execer) error {
		return e.tracker.RecordApplied(ctx, db, tracker.RecordParams{
			Filename:   f.Filename,
			Checksum:   f.Checksum,
			DurationMs: int(time.Since(start).Milliseconds()),
		})
	}

	execErr := e.execFile(ctx, f, plan, record)
	duration := time.Since(start)

	if execErr != nil {
		err := e.wrapExecError(f, execErr)
		e.fireProgress(ProgressEvent{
			File:       f,
			Status:     StatusFailed,
			Statements: len(plan.Statements),
			Duration:   duration,
			Error:      err,
		})

		return err
	}

	res.Applied = append(res.Applied, f.Filename)
	e.log().InfoContext(ctx, "migration applied",
		slog.String("file", f.Filename),
		slog.Int("statements", len(plan.Statements)),
		slog.Bool("transactional", !plan.NonTransactional),
		slog.Duration("duration", duration),
	)
	e.fireProgress(ProgressEvent{
		File:       f,
		Status:     StatusCompleted,
		Statements: len(plan.Statements),
		Duration:   duration,
	})

	return nil
}

func (e *Executor) wrapExecError(f *migration.File, err error) error {
	var stmtErr *StatementError
	if errors.As(err, &stmtErr) {
		return fmt.Errorf("%w: %s: %w", ErrExecutionFailed, f.Filename, err)
	}

	return fmt.Errorf("applying migration %s: %w", f.Filename, err)
}

// shouldSkip returns true if the file is already recorded. An edited file
// is logged, or rejected in strict mode. Rows written by the legacy script
// have no checksum and are trusted as-is.
func (e *Executor) shouldSkip(ctx context.Context, f *migration.File) (bool, error) {
	applied, err := e.tracker.IsApplied(ctx, f.Filename)
	if err != nil {
		return false, fmt.Errorf("checking migration %s: %w", f.Filename, err)
	}

	if !applied {
		return false, nil
	}

	stored, err := e.tracker.GetChecksum(ctx, f.Filename)
	if err != nil {
		return false, fmt.Errorf("getting checksum for %s: %w", f.Filename, err)
	}

	if stored == "" || stored == f.Checksum {
		return true, nil
	}

	if e.strictChecksums {
		return false, fmt.Errorf(
			"migration %s: %w: stored=%s computed=%s",
			f.Filename, tracker.ErrChecksumMismatch, stored, f.Checksum,
		)
	}

	e.log().WarnContext(ctx, "applied migration changed on disk; not re-running",
		slog.String("file", f.Filename),
		slog.String("stored_checksum", stored),
		slog.String("checksum", f.Checksum),
	)

	return true, nil
}

// executeFile runs a prepared file. Normally the statements and the tracking
// row share one transaction, so a failure leaves no trace. Files that cannot
// run in a transaction execute on a single connection and are recorded only
// after their last statement succeeds.
func (e *Executor) executeFile(ctx context.Context, _ *migration.File, p *Plan, record recordFunc) error {
	if p.NonTransactional {
		return ExecOnConn(ctx, e.pool, func(conn *pgxpool.Conn) error {
			if err := SetTimeouts(ctx, conn, e.lockTimeout, e.statementTimeout, false); err != nil {
				return err
			}
			defer ResetTimeouts(ctx, conn) //nolint:errcheck // connection is returned to the pool either way

			if err := ExecStatements(ctx, conn, p.Statements); err != nil {
				return err
			}

			return record(ctx, conn)
		})
	}

	return ExecInTransaction(ctx, e.pool, func(tx pgx.Tx) error {
		if err := SetTimeouts(ctx, tx, e.lockTimeout, e.statementTimeout, true); err != nil {
			return err
		}

		if err := ExecStatements(ctx, tx, p.Statements); err != nil {
			return err
		}

		return record(ctx, tx)
	})
}

func (e *Executor) fireProgress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}

// log returns the configured logger, tolerating Executors built as literals in tests.
func (e *Executor) log() *slog.Logger {
	if e.logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return e.logger
}
