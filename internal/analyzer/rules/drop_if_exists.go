package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
)

// DropIfExistsRule flags DROP statements that fail once the object is gone.
type DropIfExistsRule struct{}

// NewDropIfExistsRule creates a new DropIfExistsRule.
func NewDropIfExistsRule() *DropIfExistsRule { return &DropIfExistsRule{} }

// ID returns the rule identifier.
func (r *DropIfExistsRule) ID() string { return "drop-without-if-exists" }

// Check examines a statement for DROP without IF EXISTS.
func (r *DropIfExistsRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.GetNode().(*pg_query.Node_DropStmt)
	if !ok || node.DropStmt.MissingOk {
		return nil
	}

	drop := node.DropStmt
	kind := objectKind(drop.RemoveType)
	names := strings.Join(dropObjectNames(drop), ", ")

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   ctx.RetrySeverity(analyzer.Medium),
		Object:     names,
		Message:    "DROP " + kind + " fails if " + names + " no longer exists",
		Suggestion: "Use DROP " + kind + " IF EXISTS",
		StmtIndex:  ctx.StmtIndex,
	}}
}

// objectKind renders OBJECT_MATVIEW as "MATERIALIZED VIEW", OBJECT_TABLE as "TABLE".
func objectKind(t pg_query.ObjectType) string {
	if t == pg_query.ObjectType_OBJECT_MATVIEW {
		return "MATERIALIZED VIEW"
	}

	kind := strings.TrimPrefix(t.String(), "OBJECT_")

	return strings.ReplaceAll(kind, "_", " ")
}

func dropObjectNames(drop *pg_query.DropStmt) []string {
	var names []string

	for _, obj := range drop.Objects {
		var name string

		switch n := obj.GetNode().(type) {
		case *pg_query.Node_List:
			name = analyzer.QualifiedName(n.List.Items)
		case *pg_query.Node_String_:
			name = n.String_.Sval
		case *pg_query.Node_ObjectWithArgs:
			name = analyzer.QualifiedName(n.ObjectWithArgs.Objname)
		case *pg_query.Node_TypeName:
			name = analyzer.QualifiedName(n.TypeName.Names)
		}

		if name != "" {
			names = append(names, name)
		}
	}

	return names
}
