package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/dealfinder-db/internal/migration"
)

func makeFiles(t *testing.T, names ...string) []migration.File {
	t.Helper()

	fs := make([]migration.File, len(names))
	for i, n := range names {
		fs[i] = migration.File{Filename: n}
	}

	return fs
}

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "already sorted stays sorted",
			input:    []string{"001_init.sql", "002_deals.sql", "003_views.sql"},
			expected: []string{"001_init.sql", "002_deals.sql", "003_views.sql"},
		},
		{
			name:     "reverse order is corrected",
			input:    []string{"010_index.sql", "002_deals.sql", "001_init.sql"},
			expected: []string{"001_init.sql", "002_deals.sql", "010_index.sql"},
		},
		{
			name:     "comparison is lexicographic not numeric",
			input:    []string{"9_late.sql", "10_early.sql"},
			expected: []string{"10_early.sql", "9_late.sql"},
		},
		{
			name:     "shared prefix orders shorter name first",
			input:    []string{"001_init_b.sql", "001_init.sql"},
			expected: []string{"001_init.sql", "001_init_b.sql"},
		},
		{
			name:     "uppercase sorts before lowercase",
			input:    []string{"a.sql", "B.sql"},
			expected: []string{"B.sql", "a.sql"},
		},
		{
			name:     "empty slice returns empty",
			input:    []string{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := migration.Sort(makeFiles(t, tt.input...))

			assert.Equal(t, tt.expected, migration.Filenames(result))
		})
	}
}

func TestSort_doesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	input := makeFiles(t, "003_c.sql", "001_a.sql", "002_b.sql")

	migration.Sort(input)

	assert.Equal(t, []string{"003_c.sql", "001_a.sql", "002_b.sql"}, migration.Filenames(input))
}
