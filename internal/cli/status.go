package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/dealfinder-db/internal/migration"
	"github.com/aqasim81/dealfinder-db/internal/tracker"
)

// errUnknownFormat is returned for an unsupported --format value.
var errUnknownFormat = errors.New("unknown output format")

// File states reported by status.
const (
	stateApplied  = "applied"
	statePending  = "pending"
	stateModified = "modified" // applied, but the file changed since
	stateMissing  = "missing"  // recorded, but no longer on disk
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show which migration files are applied",
	Long: `List every migration file with its state and the time it was applied,
followed by any schema_migrations rows whose file is no longer on disk.`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", "text", "output format (text, json)")
	rootCmd.AddCommand(statusCmd)
}

type statusEntry struct {
	Filename   string     `json:"filename"`
	State      string     `json:"state"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	DurationMs int        `json:"duration_ms,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}

	files, err := migration.LoadFromDir(AppConfig.MigrationsDir)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
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

	entries := buildStatus(migration.Sort(files), recorded)

	if format == "json" {
		return writeStatusJSON(cmd.OutOrStdout(), entries)
	}

	return writeStatusText(cmd.OutOrStdout(), entries)
}

// buildStatus joins files on disk with recorded rows. Files come first in
// apply order, then recorded rows with no file.
func buildStatus(sorted []migration.File, recorded []tracker.AppliedMigration) []statusEntry {
	byName := make(map[string]tracker.AppliedMigration, len(recorded))
	for _, r := range recorded {
		byName[r.Filename] = r
	}

	entries := make([]statusEntry, 0, len(sorted))
	onDisk := make(map[string]bool, len(sorted))

	for _, f := range sorted {
		onDisk[f.Filename] = true

		r, ok := byName[f.Filename]
		if !ok {
			entries = append(entries, statusEntry{Filename: f.Filename, State: statePending})
			continue
		}

		state := stateApplied
		if r.Checksum != "" && r.Checksum != f.Checksum {
			state = stateModified
		}

		entries = append(entries, appliedEntry(r, state))
	}

	for _, r := range recorded {
		if !onDisk[r.Filename] {
			entries = append(entries, appliedEntry(r, stateMissing))
		}
	}

	return entries
}

func appliedEntry(r tracker.AppliedMigration, state string) statusEntry {
	at := r.ExecutedAt

	return statusEntry{
		Filename:   r.Filename,
		State:      state,
		ExecutedAt: &at,
		DurationMs: r.DurationMs,
	}
}

func writeStatusJSON(out io.Writer, entries []statusEntry) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(entries)
}

func writeStatusText(out io.Writer, entries []statusEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No migration files found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding
	fmt.Fprintln(tw, "FILE\tSTATE\tEXECUTED AT")

	pending := 0

	for _, e := range entries {
		at := "-"
		if e.ExecutedAt != nil {
			at = e.ExecutedAt.UTC().Format(time.RFC3339)
		}

		if e.State == statePending {
			pending++
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Filename, e.State, at)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d file(s), %d pending.\n", len(entries), pending)

	return nil
}
