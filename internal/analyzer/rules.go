package analyzer

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/dealfinder-db/internal/migration"
)

// Rule is the interface that all idempotency checks implement.
type Rule interface {
	// ID returns a unique kebab-case identifier for this rule.
	ID() string
	// Check examines a single parsed statement and returns any findings.
	Check(stmt *pg_query.RawStmt, ctx *RuleContext) []Finding
}

// RuleContext describes the file a statement belongs to.
type RuleContext struct {
	File      *migration.File
	StmtIndex int
	SQL       string
	// NonTransactional is set when the file runs outside a transaction, so a
	// failure part way through leaves earlier statements applied.
	NonTransactional bool
	// CreatedTables holds tables created earlier in the same file.
	CreatedTables map[string]bool
}

// RetrySeverity returns base, raised to High for files that cannot roll back.
func (c *RuleContext) RetrySeverity(base Severity) Severity {
	if c.NonTransactional && base >= Medium {
		return High
	}

	return base
}

// CreatedInFile reports whether table was created earlier in the same file.
func (c *RuleContext) CreatedInFile(table string) bool {
	return c.CreatedTables[table]
}

// Registry holds a collection of rules.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a rule to the registry.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Rules returns all registered rules.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// TableName extracts a qualified table name from a RangeVar.
func TableName(rv *pg_query.RangeVar) string {
	if rv == nil {
		return "<unknown>"
	}

	if rv.Schemaname != "" {
		return rv.Schemaname + "." + rv.Relname
	}

	return rv.Relname
}

// QualifiedName joins a list of String nodes (as found in DROP objects and
// function names) with dots.
func QualifiedName(nodes []*pg_query.Node) string {
	parts := make([]string, 0, len(nodes))

	for _, n := range nodes {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			parts = append(parts, s.String_.Sval)
		}
	}

	return strings.Join(parts, ".")
}
