package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
)

// OrReplaceRule flags CREATE VIEW, FUNCTION, PROCEDURE and TRIGGER without
// OR REPLACE.
type OrReplaceRule struct{}

// NewOrReplaceRule creates a new OrReplaceRule.
func NewOrReplaceRule() *OrReplaceRule { return &OrReplaceRule{} }

// ID returns the rule identifier.
func (r *OrReplaceRule) ID() string { return "create-without-or-replace" }

// Check examines a statement for a replaceable object created without OR REPLACE.
func (r *OrReplaceRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	var kind, object string

	switch node := stmt.Stmt.GetNode().(type) {
	case *pg_query.Node_ViewStmt:
		if node.ViewStmt.Replace {
			return nil
		}

		kind, object = "VIEW", analyzer.TableName(node.ViewStmt.View)
	case *pg_query.Node_CreateFunctionStmt:
		fn := node.CreateFunctionStmt
		if fn.Replace {
			return nil
		}

		kind, object = "FUNCTION", analyzer.QualifiedName(fn.Funcname)
		if fn.IsProcedure {
			kind = "PROCEDURE"
		}
	case *pg_query.Node_CreateTrigStmt:
		if node.CreateTrigStmt.Replace {
			return nil
		}

		kind, object = "TRIGGER", node.CreateTrigStmt.Trigname
	default:
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   ctx.RetrySeverity(analyzer.Medium),
		Object:     object,
		Message:    "CREATE " + kind + " fails if " + object + " already exists",
		Suggestion: "Use CREATE OR REPLACE " + kind,
		StmtIndex:  ctx.StmtIndex,
	}}
}
