package tracker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/dealfinder-db/internal/tracker"
)

// fakeExecer captures the insert issued by RecordApplied.
type fakeExecer struct {
	sql  string
	args []any
	err  error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args

	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestNew_returnsNonNil(t *testing.T) {
	t.Parallel()

	// nil pool is accepted at construction time; errors surface on use.
	tr := tracker.New(nil)
	assert.NotNil(t, tr)
}

func TestRecordApplied_usesGivenExecer(t *testing.T) {
	t.Parallel()

	ex := &fakeExecer{}
	tr := tracker.New(nil)

	err := tr.RecordApplied(context.Background(), ex, tracker.RecordParams{
		Filename:   "001_init.sql",
		Checksum:   "abc",
		DurationMs: 12,
	})

	require.NoError(t, err)
	assert.Contains(t, ex.sql, "INSERT INTO schema_migrations")
	assert.Equal(t, []any{"001_init.sql", "abc", 12}, ex.args)
}

func TestRecordApplied_uniqueViolation_returnsAlreadyRecorded(t *testing.T) {
	t.Parallel()

	ex := &fakeExecer{err: &pgconn.PgError{Code: "23505", Message: "duplicate key"}}
	tr := tracker.New(nil)

	err := tr.RecordApplied(context.Background(), ex, tracker.RecordParams{Filename: "001_init.sql"})

	require.ErrorIs(t, err, tracker.ErrAlreadyRecorded)
	assert.Contains(t, err.Error(), "001_init.sql")
}

func TestRecordApplied_otherError_isWrapped(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	ex := &fakeExecer{err: cause}
	tr := tracker.New(nil)

	err := tr.RecordApplied(context.Background(), ex, tracker.RecordParams{Filename: "002_deals.sql"})

	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, tracker.ErrAlreadyRecorded)
	assert.Contains(t, err.Error(), "recording migration 002_deals.sql")
}
