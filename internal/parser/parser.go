// Package parser wraps the PostgreSQL parser for splitting migration files
// into statements and inspecting what those statements do.
package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseResult is the AST of one migration file. SQL is the trimmed text
// the statement locations point into.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string
}

// Parse parses a file's content. Blank or whitespace-only content yields
// zero statements.
func Parse(sql string) (*ParseResult, error) {
	body := strings.TrimSpace(sql)
	if body == "" {
		return &ParseResult{}, nil
	}

	tree, err := pg_query.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &ParseResult{Stmts: tree.Stmts, SQL: body}, nil
}

// Statement returns the source text of statement i without its
// terminating semicolon, or "" when i is out of range.
func (r *ParseResult) Statement(i int) string {
	if i < 0 || i >= len(r.Stmts) {
		return ""
	}

	start := int(r.Stmts[i].StmtLocation)
	end := len(r.SQL)

	// StmtLen is zero for the last statement when it has no semicolon.
	if n := int(r.Stmts[i].StmtLen); n > 0 {
		end = start + n
	}

	if start >= end || end > len(r.SQL) {
		return ""
	}

	return strings.TrimSuffix(strings.TrimSpace(r.SQL[start:end]), ";")
}
