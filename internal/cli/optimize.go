package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/dealfinder-db/internal/maintenance"
)

var optimizeCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "optimize",
	Short: "Post-load maintenance: ANALYZE, refresh views, optionally VACUUM",
	Long: `Run after a data load: ANALYZE the analyze_tables list (or the whole
database), refresh the refresh_views list concurrently, and with --vacuum
run VACUUM ANALYZE on the same tables. --report prints table, index and
materialized view sizes for a schema as JSON, including the largest
indexes that have never been scanned.`,
	RunE: runOptimize,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	optimizeCmd.Flags().Bool("vacuum", false, "also run VACUUM ANALYZE")
	optimizeCmd.Flags().Bool("report", false, "print a size report as JSON when done")
	optimizeCmd.Flags().String("schema", "app", "schema for --report")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	pool, err := connectDB(ctx, AppConfig, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer pool.Close()

	m := maintenance.New(pool, maintenance.WithLogger(Logger))

	if err := m.Analyze(ctx, AppConfig.AnalyzeTables); err != nil {
		return err
	}

	if err := m.RefreshViews(ctx, AppConfig.RefreshViews, true); err != nil {
		return err
	}

	vacuum, _ := cmd.Flags().GetBool("vacuum")
	if vacuum {
		if err := m.Vacuum(ctx, AppConfig.AnalyzeTables); err != nil {
			return err
		}
	}

	report, _ := cmd.Flags().GetBool("report")
	if !report {
		fmt.Fprintln(out, "Optimization complete.")
		return nil
	}

	schema, _ := cmd.Flags().GetString("schema")

	r, err := m.Report(ctx, schema)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}
