package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/aqasim81/dealfinder-db/internal/config"
	"github.com/aqasim81/dealfinder-db/internal/database"
	"github.com/aqasim81/dealfinder-db/internal/migration"
	"github.com/aqasim81/dealfinder-db/internal/tracker"
)

// errDatabaseURLRequired is returned when no database URL is configured.
var errDatabaseURLRequired = errors.New( //nolint:gochecknoglobals // sentinel error
	"database URL is required (set --database-url, DEALDB_DATABASE_URL, DB_HOST, or database_url in config)",
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// loadAndSortMigrations returns the directory's files in apply order, or nil
// after printing a notice when there are none.
func loadAndSortMigrations(dir string, out io.Writer) ([]migration.File, error) {
	files, err := migration.LoadFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	if len(files) == 0 {
		fmt.Fprintln(out, "No migration files found.")
		return nil, nil
	}

	return migration.Sort(files), nil
}

func connectDB(ctx context.Context, cfg *config.Config, out io.Writer) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errDatabaseURLRequired
	}

	fmt.Fprintf(out, "Connecting to %s\n", config.RedactURL(cfg.DatabaseURL))

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return pool, nil
}

// recordedMigrations reads schema_migrations without creating or upgrading
// it. A missing table means nothing has been applied.
func recordedMigrations(ctx context.Context, t *tracker.Tracker) ([]tracker.AppliedMigration, error) {
	exists, err := t.TableExists(ctx)
	if err != nil || !exists {
		return nil, err
	}

	return t.GetApplied(ctx)
}

// pendingFiles returns the files in sorted that have no recorded row.
func pendingFiles(sorted []migration.File, recorded []tracker.AppliedMigration) []migration.File {
	done := make(map[string]bool, len(recorded))
	for _, r := range recorded {
		done[r.Filename] = true
	}

	var pending []migration.File

	for _, f := range sorted {
		if !done[f.Filename] {
			pending = append(pending, f)
		}
	}

	return pending
}
