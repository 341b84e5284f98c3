package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
)

// CreateIfNotExistsRule flags CREATE statements that fail when the object
// already exists.
type CreateIfNotExistsRule struct{}

// NewCreateIfNotExistsRule creates a new CreateIfNotExistsRule.
func NewCreateIfNotExistsRule() *CreateIfNotExistsRule { return &CreateIfNotExistsRule{} }

// ID returns the rule identifier.
func (r *CreateIfNotExistsRule) ID() string { return "create-without-if-not-exists" }

// Check examines CREATE TABLE, INDEX, SCHEMA, EXTENSION, SEQUENCE and
// MATERIALIZED VIEW statements.
func (r *CreateIfNotExistsRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	kind, object, ok := r.unguardedCreate(stmt.Stmt)
	if !ok {
		return nil
	}

	f := analyzer.Finding{
		Rule:       r.ID(),
		Severity:   ctx.RetrySeverity(analyzer.Medium),
		Object:     object,
		Message:    "CREATE " + kind + " fails if " + object + " already exists",
		Suggestion: "Use CREATE " + kind + " IF NOT EXISTS",
		StmtIndex:  ctx.StmtIndex,
	}

	if idx, isIndex := stmt.Stmt.GetNode().(*pg_query.Node_IndexStmt); isIndex && idx.IndexStmt.Idxname == "" {
		f.Message = "unnamed CREATE INDEX adds another index on " + object + " every time it runs"
		f.Suggestion = "Name the index and use CREATE INDEX IF NOT EXISTS"
	}

	return []analyzer.Finding{f}
}

// unguardedCreate returns the object kind and name of a CREATE without
// IF NOT EXISTS.
func (r *CreateIfNotExistsRule) unguardedCreate(n *pg_query.Node) (kind, object string, ok bool) {
	switch node := n.GetNode().(type) {
	case *pg_query.Node_CreateStmt:
		cs := node.CreateStmt
		if cs.IfNotExists || isTemp(cs.Relation) {
			return "", "", false
		}

		return "TABLE", analyzer.TableName(cs.Relation), true
	case *pg_query.Node_IndexStmt:
		idx := node.IndexStmt
		if idx.IfNotExists {
			return "", "", false
		}

		if idx.Idxname == "" {
			return "INDEX", analyzer.TableName(idx.Relation), true
		}

		return "INDEX", idx.Idxname, true
	case *pg_query.Node_CreateSchemaStmt:
		if node.CreateSchemaStmt.IfNotExists {
			return "", "", false
		}

		return "SCHEMA", node.CreateSchemaStmt.Schemaname, true
	case *pg_query.Node_CreateExtensionStmt:
		if node.CreateExtensionStmt.IfNotExists {
			return "", "", false
		}

		return "EXTENSION", node.CreateExtensionStmt.Extname, true
	case *pg_query.Node_CreateSeqStmt:
		if node.CreateSeqStmt.IfNotExists {
			return "", "", false
		}

		return "SEQUENCE", analyzer.TableName(node.CreateSeqStmt.Sequence), true
	case *pg_query.Node_CreateTableAsStmt:
		ctas := node.CreateTableAsStmt
		if ctas.IfNotExists || ctas.Into == nil || isTemp(ctas.Into.Rel) {
			return "", "", false
		}

		kind := "TABLE"
		if ctas.Objtype == pg_query.ObjectType_OBJECT_MATVIEW {
			kind = "MATERIALIZED VIEW"
		}

		return kind, analyzer.TableName(ctas.Into.Rel), true
	default:
		return "", "", false
	}
}

func isTemp(rv *pg_query.RangeVar) bool {
	return rv != nil && rv.Relpersistence == "t"
}
