package executor

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqasim81/dealfinder-db/internal/tracker"
)

// ExecInTransaction runs fn inside a database transaction.
// On success the transaction is committed; on error it is rolled back.
func ExecInTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback on committed tx returns ErrTxClosed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ExecOnConn runs fn on one dedicated pooled connection with no surrounding
// transaction. Every statement autocommits, so a failure part way through
// leaves the earlier statements applied.
func ExecOnConn(ctx context.Context, pool *pgxpool.Pool, fn func(conn *pgxpool.Conn) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	return fn(conn)
}

// ExecStatements runs stmts in order on db and stops at the first failure.
func ExecStatements(ctx context.Context, db tracker.Execer, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return &StatementError{Index: i + 1, Statement: stmt, Err: err}
		}
	}

	return nil
}
