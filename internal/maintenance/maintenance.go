// Package maintenance runs the upkeep a deal-finder database needs around
// data loads: required extensions, materialized view refreshes, planner
// statistics and vacuuming.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is satisfied by *pgxpool.Pool and *pgxpool.Conn.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Maintainer issues maintenance statements one at a time, stopping at the
// first failure. None of them run inside a transaction.
type Maintainer struct {
	db     DB
	logger *slog.Logger
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Maintainer) { m.logger = l }
}

// New creates a Maintainer that runs against db.
func New(db DB, opts ...Option) *Maintainer {
	m := &Maintainer{
		db:     db,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// EnsureExtensions runs CREATE EXTENSION IF NOT EXISTS for each name.
func (m *Maintainer) EnsureExtensions(ctx context.Context, names []string) error {
	for _, name := range names {
		q, err := quote(name)
		if err != nil {
			return fmt.Errorf("extension: %w", err)
		}

		if err := m.exec(ctx, "CREATE EXTENSION IF NOT EXISTS "+q, slog.String("extension", name)); err != nil {
			return fmt.Errorf("creating extension %s: %w", name, err)
		}
	}

	return nil
}

// RefreshViews refreshes each materialized view in order. CONCURRENTLY keeps
// the view readable during the refresh but requires a unique index on it.
func (m *Maintainer) RefreshViews(ctx context.Context, views []string, concurrently bool) error {
	prefix := "REFRESH MATERIALIZED VIEW "
	if concurrently {
		prefix += "CONCURRENTLY "
	}

	for _, view := range views {
		q, err := quote(view)
		if err != nil {
			return fmt.Errorf("materialized view: %w", err)
		}

		if err := m.exec(ctx, prefix+q, slog.String("view", view), slog.Bool("concurrently", concurrently)); err != nil {
			return fmt.Errorf("refreshing %s: %w", view, err)
		}
	}

	return nil
}

// Analyze updates planner statistics for tables, or for the whole database
// when tables is empty.
func (m *Maintainer) Analyze(ctx context.Context, tables []string) error {
	return m.perTable(ctx, "ANALYZE", tables)
}

// Vacuum runs VACUUM ANALYZE on tables, or on the whole database when
// tables is empty.
func (m *Maintainer) Vacuum(ctx context.Context, tables []string) error {
	return m.perTable(ctx, "VACUUM ANALYZE", tables)
}

func (m *Maintainer) perTable(ctx context.Context, command string, tables []string) error {
	if len(tables) == 0 {
		if err := m.exec(ctx, command, slog.String("scope", "database")); err != nil {
			return fmt.Errorf("%s: %w", command, err)
		}

		return nil
	}

	for _, table := range tables {
		q, err := quote(table)
		if err != nil {
			return fmt.Errorf("%s: %w", command, err)
		}

		if err := m.exec(ctx, command+" "+q, slog.String("table", table)); err != nil {
			return fmt.Errorf("%s %s: %w", command, table, err)
		}
	}

	return nil
}

func (m *Maintainer) exec(ctx context.Context, sql string, attrs ...slog.Attr) error {
	start := time.Now()

	if _, err := m.db.Exec(ctx, sql); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelError, "maintenance statement failed",
			append(attrs, slog.String("sql", sql), slog.Any("error", err))...)

		return err
	}

	m.logger.LogAttrs(ctx, slog.LevelInfo, "maintenance statement done",
		append(attrs, slog.String("sql", sql), slog.Duration("duration", time.Since(start)))...)

	return nil
}
