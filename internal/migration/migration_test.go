package migration_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/dealfinder-db/internal/migration"
)

func TestComputeChecksum_sha256Hex(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		migration.ComputeChecksum(""),
	)

	sum := migration.ComputeChecksum("CREATE SCHEMA IF NOT EXISTS app;")
	assert.Regexp(t, `^[0-9a-f]{64}$`, sum)
	assert.Equal(t, sum, migration.ComputeChecksum("CREATE SCHEMA IF NOT EXISTS app;"))
	assert.NotEqual(t, sum, migration.ComputeChecksum("CREATE SCHEMA IF NOT EXISTS staging;"))
}

func TestChecksum_ignoresSurroundingWhitespace(t *testing.T) {
	t.Parallel()

	body := "CREATE TABLE IF NOT EXISTS app.deals (id SERIAL PRIMARY KEY);"
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte(body)},
		"002_b.sql": {Data: []byte("\n\n" + body + "\n  \n")},
	}

	files, err := migration.LoadFromFS(fsys, ".")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, migration.ComputeChecksum(body), files[0].Checksum)
	assert.Equal(t, files[0].Checksum, files[1].Checksum, "re-saving with trailing newlines is not an edit")
}

func TestChecksum_changesWhenStatementsChange(t *testing.T) {
	t.Parallel()

	before := "ALTER TABLE app.deals ADD COLUMN IF NOT EXISTS notes TEXT;"
	after := strings.Replace(before, "TEXT", "VARCHAR(500)", 1)

	assert.NotEqual(t, migration.ComputeChecksum(before), migration.ComputeChecksum(after))
}
