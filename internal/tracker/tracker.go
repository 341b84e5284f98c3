package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// AppliedMigration is one row of schema_migrations.
type AppliedMigration struct {
	Filename   string
	ExecutedAt time.Time
	Checksum   string // empty for rows written by the legacy script
	DurationMs int
}

// RecordParams contains the fields written when a file is applied.
type RecordParams struct {
	Filename   string
	Checksum   string
	DurationMs int
}

// Execer is satisfied by pgx.Tx, *pgxpool.Conn and *pgxpool.Pool, letting the
// tracking insert share the transaction or connection that ran the file.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Tracker manages the schema_migrations table. Rows are only ever inserted.
type Tracker struct {
	pool *pgxpool.Pool
}

// New creates a Tracker backed by the given connection pool.
func New(pool *pgxpool.Pool) *Tracker {
	return &Tracker{pool: pool}
}

// EnsureTable creates schema_migrations if it does not exist and adds the
// checksum and duration columns to tables created by the legacy script.
func (t *Tracker) EnsureTable(ctx context.Context) error {
	if _, err := t.pool.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	if _, err := t.pool.Exec(ctx, upgradeSchemaSQL); err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	return nil
}

// TableExists reports whether schema_migrations exists yet. Read-only
// commands use it to avoid creating the table on a fresh database.
func (t *Tracker) TableExists(ctx context.Context) (bool, error) {
	var exists bool

	err := t.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, TableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking for %s: %w", TableName, err)
	}

	return exists, nil
}

// IsApplied reports whether filename has a schema_migrations row.
func (t *Tracker) IsApplied(ctx context.Context, filename string) (bool, error) {
	var exists bool

	err := t.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`,
		filename,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking if migration %s is applied: %w", filename, err)
	}

	return exists, nil
}

// GetApplied returns all recorded migrations ordered by filename. It reads
// tables created by the legacy script without upgrading them.
func (t *Tracker) GetApplied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := t.pool.Query(ctx,
		`SELECT m.filename, m.executed_at, `+checksumColumn+`, `+durationColumn+`
		 FROM schema_migrations m
		 ORDER BY m.filename`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	applied, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AppliedMigration, error) {
		var m AppliedMigration
		if scanErr := row.Scan(&m.Filename, &m.ExecutedAt, &m.Checksum, &m.DurationMs); scanErr != nil {
			return AppliedMigration{}, fmt.Errorf("scanning migration row: %w", scanErr)
		}

		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning applied migrations: %w", err)
	}

	return applied, nil
}

// RecordApplied inserts the tracking row for a file through db, which should
// be the transaction or connection that executed the file's statements.
func (t *Tracker) RecordApplied(ctx context.Context, db Execer, p RecordParams) error {
	if db == nil {
		db = t.pool
	}

	_, err := db.Exec(ctx,
		`INSERT INTO schema_migrations (filename, checksum, duration_ms) VALUES ($1, $2, $3)`,
		p.Filename, p.Checksum, p.DurationMs,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("migration %s: %w", p.Filename, ErrAlreadyRecorded)
		}

		return fmt.Errorf("recording migration %s as applied: %w", p.Filename, err)
	}

	return nil
}

// GetChecksum returns the recorded checksum for filename. Legacy rows have no
// checksum and return the empty string.
func (t *Tracker) GetChecksum(ctx context.Context, filename string) (string, error) {
	var checksum *string

	err := t.pool.QueryRow(ctx,
		`SELECT to_jsonb(m)->>'checksum' FROM schema_migrations m WHERE m.filename = $1`,
		filename,
	).Scan(&checksum)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("migration %s: %w", filename, ErrMigrationNotFound)
		}

		return "", fmt.Errorf("getting checksum for migration %s: %w", filename, err)
	}

	if checksum == nil {
		return "", nil
	}

	return *checksum, nil
}
