// Package rules holds the built-in idempotency checks.
package rules

import "github.com/aqasim81/dealfinder-db/internal/analyzer"

// NewDefaultRegistry returns a Registry with all built-in rules.
func NewDefaultRegistry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	r.Register(NewCreateIfNotExistsRule())
	r.Register(NewDropIfExistsRule())
	r.Register(NewAddColumnRule())
	r.Register(NewOrReplaceRule())
	r.Register(NewInsertOnConflictRule())
	r.Register(NewCreateIndexRule())

	return r
}
