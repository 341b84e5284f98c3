package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// SplitMode selects how a migration file is broken into statements.
type SplitMode string

const (
	// SplitScanner splits on top-level semicolons using the PostgreSQL
	// scanner, so semicolons in literals, comments and dollar-quoted
	// function bodies are kept in place.
	SplitScanner SplitMode = "scanner"
	// SplitNaive splits on every semicolon, like the legacy setup script.
	SplitNaive SplitMode = "naive"
)

// ErrUnknownSplitMode indicates a split mode string that is neither scanner nor naive.
var ErrUnknownSplitMode = errors.New("unknown split mode")

// ParseSplitMode validates a split mode name. The empty string selects SplitScanner.
func ParseSplitMode(s string) (SplitMode, error) {
	switch SplitMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SplitScanner:
		return SplitScanner, nil
	case SplitNaive:
		return SplitNaive, nil
	default:
		return "", fmt.Errorf("%w: %q (want scanner or naive)", ErrUnknownSplitMode, s)
	}
}

// Split breaks sql into individual statements separated by ";". Fragments are
// trimmed and empty ones dropped, so trailing or doubled semicolons are
// harmless. An empty file yields no statements.
func Split(sql string, mode SplitMode) ([]string, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, nil
	}

	switch mode {
	case SplitNaive:
		return splitNaive(sql), nil
	case SplitScanner, "":
		return splitScanner(sql)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitMode, string(mode))
	}
}

func splitNaive(sql string) []string {
	var stmts []string

	for _, part := range strings.Split(sql, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}

	return stmts
}

func splitScanner(sql string) ([]string, error) {
	parts, err := pg_query.SplitWithScanner(sql, true)
	if err != nil {
		return nil, fmt.Errorf("splitting SQL: %w", err)
	}

	stmts := make([]string, 0, len(parts))

	for _, part := range parts {
		s := strings.TrimSpace(part)
		if s == "" || commentOnly(s) {
			continue
		}

		stmts = append(stmts, s)
	}

	return stmts, nil
}

// commentOnly reports whether s parses to zero statements. Fragments the
// parser rejects are kept so the server reports the real error.
func commentOnly(s string) bool {
	tree, err := pg_query.Parse(s)
	if err != nil {
		return false
	}

	return len(tree.Stmts) == 0
}
