package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
)

// AddColumnRule flags ALTER TABLE ... ADD COLUMN without IF NOT EXISTS.
type AddColumnRule struct{}

// NewAddColumnRule creates a new AddColumnRule.
func NewAddColumnRule() *AddColumnRule { return &AddColumnRule{} }

// ID returns the rule identifier.
func (r *AddColumnRule) ID() string { return "add-column-without-if-not-exists" }

// Check reports one finding per unguarded ADD COLUMN in the statement.
func (r *AddColumnRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.GetNode().(*pg_query.Node_AlterTableStmt)
	if !ok {
		return nil
	}

	alt := node.AlterTableStmt
	table := analyzer.TableName(alt.Relation)

	var findings []analyzer.Finding

	for _, cmdNode := range alt.Cmds {
		cmd, ok := cmdNode.GetNode().(*pg_query.Node_AlterTableCmd)
		if !ok {
			continue
		}

		if cmd.AlterTableCmd.Subtype != pg_query.AlterTableType_AT_AddColumn || cmd.AlterTableCmd.MissingOk {
			continue
		}

		object := table
		if col, ok := cmd.AlterTableCmd.Def.GetNode().(*pg_query.Node_ColumnDef); ok {
			object = table + "." + col.ColumnDef.Colname
		}

		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   ctx.RetrySeverity(analyzer.Medium),
			Object:     object,
			Message:    "ADD COLUMN fails if " + object + " already exists",
			Suggestion: "Use ALTER TABLE ... ADD COLUMN IF NOT EXISTS",
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}
