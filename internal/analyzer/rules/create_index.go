package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
)

// CreateIndexRule flags plain CREATE INDEX on a table that already holds data.
type CreateIndexRule struct{}

// NewCreateIndexRule creates a new CreateIndexRule.
func NewCreateIndexRule() *CreateIndexRule { return &CreateIndexRule{} }

// ID returns the rule identifier.
func (r *CreateIndexRule) ID() string { return "create-index-not-concurrent" }

// Check reports a non-concurrent index unless its table was created earlier
// in the same file.
func (r *CreateIndexRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_IndexStmt)
	if !ok {
		return nil
	}

	idx := node.IndexStmt
	table := analyzer.TableName(idx.Relation)

	if idx.Concurrent || ctx.CreatedInFile(table) {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Low,
		Object:     table,
		Message:    "CREATE INDEX without CONCURRENTLY blocks writes to " + table + " while it builds",
		Suggestion: "For large tables use CREATE INDEX CONCURRENTLY in a file of its own",
		StmtIndex:  ctx.StmtIndex,
	}}
}
