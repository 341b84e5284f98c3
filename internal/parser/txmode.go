package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// RequiresNoTransaction reports whether any statement cannot run inside a
// transaction block. Such files are executed statement by statement on a
// single connection instead of inside one transaction.
func RequiresNoTransaction(stmts []*pg_query.RawStmt) bool {
	for _, stmt := range stmts {
		if stmt == nil || stmt.Stmt == nil {
			continue
		}

		if nonTransactional(stmt.Stmt) {
			return true
		}
	}

	return false
}

func nonTransactional(node *pg_query.Node) bool {
	switch n := node.Node.(type) {
	case *pg_query.Node_IndexStmt:
		return n.IndexStmt.GetConcurrent()
	case *pg_query.Node_DropStmt:
		return n.DropStmt.GetConcurrent()
	case *pg_query.Node_ReindexStmt:
		return hasOption(n.ReindexStmt.GetParams(), "concurrently")
	case *pg_query.Node_VacuumStmt:
		// Plain ANALYZE shares VacuumStmt and may run in a transaction.
		return n.VacuumStmt.GetIsVacuumcmd()
	case *pg_query.Node_CreatedbStmt,
		*pg_query.Node_DropdbStmt,
		*pg_query.Node_AlterSystemStmt,
		*pg_query.Node_CreateTableSpaceStmt,
		*pg_query.Node_DropTableSpaceStmt:
		return true
	default:
		return false
	}
}

func hasOption(params []*pg_query.Node, name string) bool {
	for _, p := range params {
		def, ok := p.Node.(*pg_query.Node_DefElem)
		if ok && strings.EqualFold(def.DefElem.GetDefname(), name) {
			return true
		}
	}

	return false
}
