package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
	"github.com/aqasim81/dealfinder-db/internal/analyzer/rules"
	"github.com/aqasim81/dealfinder-db/internal/executor"
	"github.com/aqasim81/dealfinder-db/internal/maintenance"
	"github.com/aqasim81/dealfinder-db/internal/migration"
	"github.com/aqasim81/dealfinder-db/internal/parser"
	"github.com/aqasim81/dealfinder-db/internal/tracker"
)

// errUnsafeMigrations is returned when --strict blocks apply on High lint findings.
var errUnsafeMigrations = errors.New("apply aborted: files are not safe to retry (run dealdb lint, or drop --strict)")

var applyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "apply",
	Short: "Apply pending migration files",
	Long: `Apply every .sql file not yet recorded in schema_migrations, in
filename order. Each file runs in its own transaction together with its
tracking row; the first failing statement stops the run and the file is
retried in full next time.`,
	RunE: runApply,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	addApplyFlags(applyCmd)
	rootCmd.AddCommand(applyCmd)
}

func addApplyFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	cmd.Flags().Bool("strict", false, "refuse to apply when lint reports HIGH findings")
	cmd.Flags().Bool("strict-checksums", false, "fail when an applied file has changed on disk")
	cmd.Flags().Bool("skip-extensions", false, "do not create configured extensions before applying")
	cmd.Flags().Duration("lock-timeout", 0, "override lock timeout (e.g., 10s, 1m)")
	cmd.Flags().Duration("lock-wait", 0, "wait this long for another runner to finish")
	cmd.Flags().Duration("statement-timeout", 0, "override statement timeout (e.g., 30s, 5m)")
	cmd.Flags().String("split-mode", "", "statement splitting: scanner or naive")
}

type applyOpts struct {
	lockTimeout     time.Duration
	lockWait        time.Duration
	stmtTimeout     time.Duration
	splitMode       parser.SplitMode
	strictChecksums bool
	dryRun          bool
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	if cfg.DatabaseURL == "" {
		return errDatabaseURLRequired
	}

	opts, err := resolveApplyOpts(cmd)
	if err != nil {
		return err
	}

	sorted, err := loadAndSortMigrations(cfg.MigrationsDir, cmd.OutOrStdout())
	if err != nil || sorted == nil {
		return err
	}

	ctx := commandContext(cmd)

	pool, err := connectDB(ctx, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer pool.Close()

	recorded, err := recordedMigrations(ctx, tracker.New(pool))
	if err != nil {
		return err
	}

	strict, _ := cmd.Flags().GetBool("strict")

	blocked, unparsed := lintBeforeApply(pendingFiles(sorted, recorded), Logger)
	if len(unparsed) > 0 {
		Logger.Warn("apply stops at the first file that does not parse", slog.Any("files", unparsed))
	}

	if blocked && strict && !opts.dryRun {
		return errUnsafeMigrations
	}

	skipExt, _ := cmd.Flags().GetBool("skip-extensions")
	if !skipExt && !opts.dryRun && len(cfg.Extensions) > 0 {
		m := maintenance.New(pool, maintenance.WithLogger(Logger))
		if err := m.EnsureExtensions(ctx, cfg.Extensions); err != nil {
			return err
		}
	}

	return executeMigrations(ctx, cmd.OutOrStdout(), pool, sorted, opts)
}

// resolveApplyOpts layers apply's flags over AppConfig.
func resolveApplyOpts(cmd *cobra.Command) (applyOpts, error) {
	cfg := AppConfig
	opts := applyOpts{
		lockTimeout:     cfg.LockTimeout,
		lockWait:        cfg.LockWait,
		stmtTimeout:     cfg.StatementTimeout,
		strictChecksums: cfg.StrictChecksums,
	}

	opts.dryRun, _ = cmd.Flags().GetBool("dry-run")

	if cmd.Flags().Changed("lock-timeout") {
		opts.lockTimeout, _ = cmd.Flags().GetDuration("lock-timeout")
	}

	if cmd.Flags().Changed("lock-wait") {
		opts.lockWait, _ = cmd.Flags().GetDuration("lock-wait")
	}

	if cmd.Flags().Changed("statement-timeout") {
		opts.stmtTimeout, _ = cmd.Flags().GetDuration("statement-timeout")
	}

	if cmd.Flags().Changed("strict-checksums") {
		opts.strictChecksums, _ = cmd.Flags().GetBool("strict-checksums")
	}

	mode := cfg.SplitMode
	if cmd.Flags().Changed("split-mode") {
		mode, _ = cmd.Flags().GetString("split-mode")
	}

	splitMode, err := parser.ParseSplitMode(mode)
	if err != nil {
		return applyOpts{}, err
	}

	opts.splitMode = splitMode

	return opts, nil
}

func executeMigrations(
	ctx context.Context,
	out io.Writer,
	pool *pgxpool.Pool,
	sorted []migration.File,
	opts applyOpts,
) error {
	t := tracker.New(pool)

	exec := executor.New(pool, t,
		executor.WithLockTimeout(opts.lockTimeout),
		executor.WithLockWait(opts.lockWait),
		executor.WithStatementTimeout(opts.stmtTimeout),
		executor.WithSplitMode(opts.splitMode),
		executor.WithStrictChecksums(opts.strictChecksums),
		executor.WithDryRun(opts.dryRun),
		executor.WithLogger(Logger),
		executor.WithProgressCallback(progressPrinter(out)),
	)

	if opts.dryRun {
		fmt.Fprintln(out, "\n--- DRY RUN (no changes will be made) ---")
	}

	res, err := exec.Apply(ctx, sorted)
	if err != nil {
		return err
	}

	if opts.dryRun {
		fmt.Fprintf(out, "\nDry run complete: %d file(s) would be applied, %d already applied.\n",
			len(res.Pending), len(res.Skipped))
	} else {
		fmt.Fprintf(out, "\nApply complete: %d applied, %d skipped.\n", len(res.Applied), len(res.Skipped))
	}

	return nil
}

// progressPrinter writes one line per file. A file rejected before it starts
// (it does not parse) gets its own FAILED line naming it.
func progressPrinter(out io.Writer) func(executor.ProgressEvent) {
	started := ""

	return func(event executor.ProgressEvent) {
		switch event.Status {
		case executor.StatusStarting:
			started = event.File.Filename
			fmt.Fprintf(out, "  Applying %s ... ", event.File.Filename)
		case executor.StatusCompleted:
			started = ""
			fmt.Fprintf(out, "done (%d statement(s), %s)\n", event.Statements, event.Duration.Truncate(time.Millisecond))
		case executor.StatusPending:
			fmt.Fprintf(out, "  Would apply %s (%d statement(s))\n", event.File.Filename, event.Statements)
		case executor.StatusFailed:
			if started != event.File.Filename {
				fmt.Fprintf(out, "  %s ... ", event.File.Filename)
			}

			started = ""

			fmt.Fprintf(out, "FAILED\n")
			fmt.Fprintf(out, "    Error: %v\n", event.Error)
		}
	}
}

// lintBeforeApply logs each Medium or High finding in the pending files as a
// warning and reports whether any is High. Files that do not parse are
// logged and returned by name; the executor rejects them at their turn so
// the files before them still apply.
func lintBeforeApply(pending []migration.File, logger *slog.Logger) (bool, []string) {
	a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

	hasHigh := false

	var unparsed []migration.File

	for i := range pending {
		r, err := a.Analyze(&pending[i])
		if err != nil {
			logger.Debug("skipping lint for file that does not parse",
				slog.String("file", pending[i].Filename),
				slog.Any("error", err),
			)

			unparsed = append(unparsed, pending[i])

			continue
		}

		for _, f := range r.Findings {
			if f.Severity < analyzer.Medium {
				continue
			}

			logger.Warn("file is not safe to retry",
				slog.String("file", r.File.Filename),
				slog.String("rule", f.Rule),
				slog.String("severity", f.Severity.String()),
				slog.String("object", f.Object),
			)
		}

		if r.HasHigh() {
			hasHigh = true
		}
	}

	if len(unparsed) == 0 {
		return hasHigh, nil
	}

	return hasHigh, migration.Filenames(unparsed)
}
