package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationLockID is the advisory lock key held for the duration of a
// migration run so only one runner writes to a database at a time.
const MigrationLockID int64 = 0x6465616c6462 // "dealdb"

// lockPollInterval is how often AcquireLock retries while waiting.
const lockPollInterval = 250 * time.Millisecond

// LockHandle wraps a dedicated pooled connection that holds a
// session-level advisory lock. Call Release to unlock and return
// the connection to the pool.
type LockHandle struct {
	conn *pgxpool.Conn
}

// TryAcquireLock attempts to acquire the session-level migration lock once.
// Returns ErrLockNotAcquired if another session holds it. The caller must
// call handle.Release() when done.
func TryAcquireLock(ctx context.Context, pool *pgxpool.Pool) (*LockHandle, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for advisory lock: %w", err)
	}

	var acquired bool

	err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", MigrationLockID).Scan(&acquired)
	if err != nil {
		conn.Release()

		return nil, fmt.Errorf("executing pg_try_advisory_lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, ErrLockNotAcquired
	}

	return &LockHandle{conn: conn}, nil
}

// AcquireLock retries TryAcquireLock until it succeeds or wait elapses.
// A zero wait makes a single attempt.
func AcquireLock(ctx context.Context, pool *pgxpool.Pool, wait time.Duration) (*LockHandle, error) {
	deadline := time.Now().Add(wait)

	for {
		handle, err := TryAcquireLock(ctx, pool)
		if err == nil {
			return handle, nil
		}

		if !errors.Is(err, ErrLockNotAcquired) || !time.Now().Before(deadline) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for migration lock: %w", ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

// Release unlocks the advisory lock and returns the connection to the pool.
// Safe to call multiple times; subsequent calls are no-ops.
func (h *LockHandle) Release(ctx context.Context) error {
	if h == nil || h.conn == nil {
		return nil
	}

	_, err := h.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", MigrationLockID)
	h.conn.Release()
	h.conn = nil

	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}

	return nil
}
