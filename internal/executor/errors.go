package executor

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrExecutionFailed indicates a statement in a migration file failed.
var ErrExecutionFailed = errors.New("migration execution failed")

// ErrMalformedSQL indicates a migration file could not be parsed or split.
var ErrMalformedSQL = errors.New("malformed migration SQL")

// maxStatementExcerpt bounds the statement text carried in a StatementError.
const maxStatementExcerpt = 120

// StatementError reports which statement of a file failed. Index is 1-based.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d (%s): %v", e.Index, excerpt(e.Statement), e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

func excerpt(sql string) string {
	if len(sql) <= maxStatementExcerpt {
		return sql
	}

	cut := maxStatementExcerpt - 3
	for cut > 0 && !utf8.RuneStart(sql[cut]) {
		cut--
	}

	return sql[:cut] + "..."
}
