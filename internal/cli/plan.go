package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aqasim81/dealfinder-db/internal/executor"
	"github.com/aqasim81/dealfinder-db/internal/migration"
	"github.com/aqasim81/dealfinder-db/internal/parser"
	"github.com/aqasim81/dealfinder-db/internal/tracker"
)

var planCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "plan",
	Short: "Show what apply would run",
	Long: `List the pending files in the order apply would run them, with the
number of statements in each and whether the file runs in a transaction.`,
	RunE: runPlan,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	planCmd.Flags().String("split-mode", "", "statement splitting: scanner or naive")
	rootCmd.AddCommand(planCmd)
}

type planEntry struct {
	Filename         string
	Statements       int
	NonTransactional bool
}

func runPlan(cmd *cobra.Command, _ []string) error {
	mode := AppConfig.SplitMode
	if cmd.Flags().Changed("split-mode") {
		mode, _ = cmd.Flags().GetString("split-mode")
	}

	splitMode, err := parser.ParseSplitMode(mode)
	if err != nil {
		return err
	}

	sorted, err := loadAndSortMigrations(AppConfig.MigrationsDir, cmd.OutOrStdout())
	if err != nil || sorted == nil {
		return err
	}

	ctx := commandContext(cmd)

	pool, err := connectDB(ctx, AppConfig, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer pool.Close()

	recorded, err := recordedMigrations(ctx, tracker.New(pool))
	if err != nil {
		return err
	}

	entries, err := buildPlan(pendingFiles(sorted, recorded), splitMode)
	if err != nil {
		return err
	}

	writePlan(cmd.OutOrStdout(), entries)

	return nil
}

func buildPlan(pending []migration.File, mode parser.SplitMode) ([]planEntry, error) {
	entries := make([]planEntry, 0, len(pending))

	for i := range pending {
		p, err := executor.Prepare(&pending[i], mode)
		if err != nil {
			return nil, err
		}

		entries = append(entries, planEntry{
			Filename:         pending[i].Filename,
			Statements:       len(p.Statements),
			NonTransactional: p.NonTransactional,
		})
	}

	return entries, nil
}

func writePlan(out io.Writer, entries []planEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Database is up to date.")
		return
	}

	fmt.Fprintf(out, "%d pending file(s):\n", len(entries))

	for i, e := range entries {
		mode := "transaction"
		if e.NonTransactional {
			mode = "no transaction"
		}

		fmt.Fprintf(out, "  %d. %s  %d statement(s), %s\n", i+1, e.Filename, e.Statements, mode)
	}
}
