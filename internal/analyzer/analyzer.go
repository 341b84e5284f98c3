// Package analyzer lints migration files for statements that break when a
// file is retried after a partial failure.
package analyzer

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/dealfinder-db/internal/migration"
	"github.com/aqasim81/dealfinder-db/internal/parser"
)

const maxStatementDisplay = 80

// Option configures the Analyzer.
type Option func(*Analyzer)

// Analyzer runs registered rules against parsed migration files.
type Analyzer struct {
	registry *Registry
	parseFn  func(string) (*parser.ParseResult, error)
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		registry: NewRegistry(),
		parseFn:  parser.Parse,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithParser overrides the SQL parser function (useful for testing).
func WithParser(fn func(string) (*parser.ParseResult, error)) Option {
	return func(a *Analyzer) { a.parseFn = fn }
}

// Analyze parses and analyzes a single file, returning all findings.
func (a *Analyzer) Analyze(f *migration.File) (*AnalysisResult, error) {
	result, err := a.parseFn(f.SQL)
	if err != nil {
		return nil, fmt.Errorf("parsing migration %s: %w", f.Filename, err)
	}

	nonTx := parser.RequiresNoTransaction(result.Stmts)
	created := make(map[string]bool)

	var findings []Finding

	maxSeverity := Safe

	for i, stmt := range result.Stmts {
		ctx := &RuleContext{
			File:             f,
			StmtIndex:        i,
			SQL:              result.SQL,
			NonTransactional: nonTx,
			CreatedTables:    created,
		}

		text := TruncateSQL(result.Statement(i), maxStatementDisplay)

		for _, rule := range a.registry.Rules() {
			fs := rule.Check(stmt, ctx)
			for j := range fs {
				if fs[j].Statement == "" {
					fs[j].Statement = text
				}

				if fs[j].Severity > maxSeverity {
					maxSeverity = fs[j].Severity
				}
			}

			findings = append(findings, fs...)
		}

		if cs, ok := stmt.Stmt.GetNode().(*pg_query.Node_CreateStmt); ok {
			created[TableName(cs.CreateStmt.Relation)] = true
		}
	}

	return &AnalysisResult{
		File:             f,
		NonTransactional: nonTx,
		Findings:         findings,
		MaxSeverity:      maxSeverity,
	}, nil
}

// AnalyzeAll analyzes multiple files and returns results for each.
func (a *Analyzer) AnalyzeAll(files []migration.File) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, 0, len(files))

	for i := range files {
		r, err := a.Analyze(&files[i])
		if err != nil {
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}
