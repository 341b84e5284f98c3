package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/aqasim81/dealfinder-db/internal/tracker"
)

// SetTimeouts sets lock_timeout and statement_timeout on db. With local set
// the values use SET LOCAL and end with the surrounding transaction;
// otherwise they apply to the session until ResetTimeouts. Zero durations
// are left untouched.
func SetTimeouts(ctx context.Context, db tracker.Execer, lockTimeout, stmtTimeout time.Duration, local bool) error {
	scope := "SET"
	if local {
		scope = "SET LOCAL"
	}

	settings := []struct {
		name string
		d    time.Duration
	}{
		{"lock_timeout", lockTimeout},
		{"statement_timeout", stmtTimeout},
	}

	for _, s := range settings {
		if s.d <= 0 {
			continue
		}

		sql := fmt.Sprintf("%s %s = '%dms'", scope, s.name, s.d.Milliseconds())
		if _, err := db.Exec(ctx, sql); err != nil {
			return fmt.Errorf("setting %s: %w", s.name, err)
		}
	}

	return nil
}

// ResetTimeouts restores the session defaults for both timeouts.
func ResetTimeouts(ctx context.Context, db tracker.Execer) error {
	if _, err := db.Exec(ctx, "RESET lock_timeout"); err != nil {
		return fmt.Errorf("resetting lock_timeout: %w", err)
	}

	if _, err := db.Exec(ctx, "RESET statement_timeout"); err != nil {
		return fmt.Errorf("resetting statement_timeout: %w", err)
	}

	return nil
}
