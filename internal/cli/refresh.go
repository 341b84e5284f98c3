package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/dealfinder-db/internal/maintenance"
)

var refreshCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "refresh [view...]",
	Short: "Refresh materialized views",
	Long: `Refresh the given materialized views, or the refresh_views list from
the configuration, in order. Stops at the first failure.`,
	RunE: runRefresh,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	refreshCmd.Flags().Bool("concurrently", false, "keep views readable during refresh (needs a unique index)")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	views := AppConfig.RefreshViews
	if len(args) > 0 {
		views = args
	}

	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No materialized views configured.")
		return nil
	}

	concurrently, _ := cmd.Flags().GetBool("concurrently")
	ctx := commandContext(cmd)

	pool, err := connectDB(ctx, AppConfig, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer pool.Close()

	m := maintenance.New(pool, maintenance.WithLogger(Logger))
	if err := m.RefreshViews(ctx, views, concurrently); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %d materialized view(s).\n", len(views))

	return nil
}
