package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
)

// InsertOnConflictRule flags seed INSERTs that duplicate rows or hit a
// unique violation when run again.
type InsertOnConflictRule struct{}

// NewInsertOnConflictRule creates a new InsertOnConflictRule.
func NewInsertOnConflictRule() *InsertOnConflictRule { return &InsertOnConflictRule{} }

// ID returns the rule identifier.
func (r *InsertOnConflictRule) ID() string { return "insert-without-on-conflict" }

// Check examines a statement for INSERT without ON CONFLICT.
func (r *InsertOnConflictRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.GetNode().(*pg_query.Node_InsertStmt)
	if !ok || node.InsertStmt.OnConflictClause != nil {
		return nil
	}

	table := analyzer.TableName(node.InsertStmt.Relation)

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   ctx.RetrySeverity(analyzer.Medium),
		Object:     table,
		Message:    "INSERT into " + table + " duplicates rows or fails on a unique key when repeated",
		Suggestion: "Add ON CONFLICT DO NOTHING (or DO UPDATE) against a unique key",
		StmtIndex:  ctx.StmtIndex,
	}}
}
