package analyzer

import (
	"unicode/utf8"

	"github.com/aqasim81/dealfinder-db/internal/migration"
)

// Finding is one statement that is not safe to run twice.
type Finding struct {
	Rule       string   // Rule ID (e.g., "drop-without-if-exists")
	Severity   Severity // How badly a retry of the file breaks
	Object     string   // Affected object, schema-qualified when written that way
	Statement  string   // Statement text, truncated for display
	Message    string
	Suggestion string
	StmtIndex  int // 0-based position in the file
}

// AnalysisResult holds all findings for a single file.
type AnalysisResult struct {
	File             *migration.File
	NonTransactional bool
	Findings         []Finding
	MaxSeverity      Severity
}

// HasHigh reports whether any finding is High.
func (r *AnalysisResult) HasHigh() bool {
	return r.MaxSeverity >= High
}

// TruncateSQL truncates a SQL string to at most maxLen bytes for display,
// never splitting a multi-byte character. A maxLen too small to hold an
// ellipsis returns sql unchanged.
func TruncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen || maxLen < 4 { //nolint:mnd // room for "..."
		return sql
	}

	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(sql[cut]) {
		cut--
	}

	return sql[:cut] + "..."
}
