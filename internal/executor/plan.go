package executor

import (
	"fmt"

	"github.com/aqasim81/dealfinder-db/internal/migration"
	"github.com/aqasim81/dealfinder-db/internal/parser"
)

// Plan is a migration file broken into the statements that will be sent to
// the database, one at a time and in order.
type Plan struct {
	Statements []string
	// NonTransactional is set when the file holds a statement that cannot
	// run inside a transaction block (CREATE INDEX CONCURRENTLY, VACUUM, ...).
	NonTransactional bool
}

// Prepare parses f and splits it into statements using mode. A file that
// does not parse is rejected before anything is sent to the database.
func Prepare(f *migration.File, mode parser.SplitMode) (*Plan, error) {
	parsed, err := parser.Parse(f.SQL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSQL, f.Filename, err)
	}

	stmts, err := parser.Split(f.SQL, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSQL, f.Filename, err)
	}

	return &Plan{
		Statements:       stmts,
		NonTransactional: parser.RequiresNoTransaction(parsed.Stmts),
	}, nil
}
