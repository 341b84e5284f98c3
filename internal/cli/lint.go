package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
	"github.com/aqasim81/dealfinder-db/internal/analyzer/rules"
)

var lintCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "lint [migration-dir]",
	Short: "Check migration files are safe to retry",
	Long: `Check SQL migration files for statements that fail or duplicate work
when a file is run again after a partial failure, such as CREATE TABLE
without IF NOT EXISTS or INSERT without ON CONFLICT. Findings in files that
run outside a transaction are reported as HIGH. No database is needed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	lintCmd.Flags().String("format", "text", "output format (text, json)")
	lintCmd.Flags().Bool("fail-on-high", false, "exit with non-zero code if HIGH findings exist")
	lintCmd.Flags().String("fail-on", "", "exit with non-zero code on findings at or above this severity (low, medium, high)")
	rootCmd.AddCommand(lintCmd)
}

// errSeverityThreshold is returned when findings reach the --fail-on level.
var errSeverityThreshold = errors.New("findings at or above the failure threshold")

func runLint(cmd *cobra.Command, args []string) error {
	dir := AppConfig.MigrationsDir
	if len(args) > 0 {
		dir = args[0]
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}

	threshold, err := failThreshold(cmd)
	if err != nil {
		return err
	}

	sorted, err := loadAndSortMigrations(dir, cmd.OutOrStdout())
	if err != nil || sorted == nil {
		return err
	}

	a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

	results, err := a.AnalyzeAll(sorted)
	if err != nil {
		return fmt.Errorf("analyzing migrations: %w", err)
	}

	if format == "json" {
		if err := printLintJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		printAnalysisResults(cmd.OutOrStdout(), results)
	}

	if top := analyzer.MaxSeverity(results); threshold != analyzer.Safe && top >= threshold {
		return fmt.Errorf("%w: %s", errSeverityThreshold, top)
	}

	return nil
}

// failThreshold resolves --fail-on and --fail-on-high. Safe means never fail.
func failThreshold(cmd *cobra.Command) (analyzer.Severity, error) {
	if name, _ := cmd.Flags().GetString("fail-on"); name != "" {
		return analyzer.ParseSeverity(name)
	}

	if failOnHigh, _ := cmd.Flags().GetBool("fail-on-high"); failOnHigh {
		return analyzer.High, nil
	}

	return analyzer.Safe, nil
}

func printAnalysisResults(out io.Writer, results []analyzer.AnalysisResult) {
	totalFindings := 0

	for _, r := range results {
		if len(r.Findings) == 0 {
			continue
		}

		header := r.File.Filename
		if r.NonTransactional {
			header += " (no transaction)"
		}

		fmt.Fprintf(out, "\n=== %s ===\n", header)

		for _, f := range r.Findings {
			fmt.Fprintf(out, "  [%s] %s\n", f.Severity, f.Message)
			fmt.Fprintf(out, "    Object: %s\n", f.Object)
			fmt.Fprintf(out, "    Rule:   %s\n", f.Rule)

			if f.Statement != "" {
				fmt.Fprintf(out, "    SQL:    %s\n", f.Statement)
			}

			fmt.Fprintf(out, "    Fix:    %s\n\n", f.Suggestion)
		}

		totalFindings += len(r.Findings)
	}

	if totalFindings == 0 {
		fmt.Fprintln(out, "All files are safe to retry.")
	} else {
		fmt.Fprintf(out, "Found %d finding(s) across %d file(s).\n", totalFindings, countFilesWithFindings(results))
	}
}

type lintFindingJSON struct {
	File       string `json:"file"`
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Object     string `json:"object"`
	Statement  string `json:"statement"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
	Index      int    `json:"statement_index"`
}

func printLintJSON(out io.Writer, results []analyzer.AnalysisResult) error {
	findings := []lintFindingJSON{}

	for _, r := range results {
		for _, f := range r.Findings {
			findings = append(findings, lintFindingJSON{
				File:       r.File.Filename,
				Rule:       f.Rule,
				Severity:   f.Severity.String(),
				Object:     f.Object,
				Statement:  f.Statement,
				Message:    f.Message,
				Suggestion: f.Suggestion,
				Index:      f.StmtIndex + 1,
			})
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(findings)
}

func countFilesWithFindings(results []analyzer.AnalysisResult) int {
	count := 0

	for _, r := range results {
		if len(r.Findings) > 0 {
			count++
		}
	}

	return count
}
