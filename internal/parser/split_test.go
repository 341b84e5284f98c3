package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/dealfinder-db/internal/parser"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sql  string
		mode parser.SplitMode
		want []string
	}{
		{
			name: "empty input yields nothing",
			sql:  "",
			mode: parser.SplitScanner,
			want: nil,
		},
		{
			name: "whitespace input yields nothing",
			sql:  " \n\t ",
			mode: parser.SplitNaive,
			want: nil,
		},
		{
			name: "two statements with trailing semicolon",
			sql:  "CREATE SCHEMA IF NOT EXISTS app;\nCREATE EXTENSION IF NOT EXISTS postgis;\n",
			mode: parser.SplitScanner,
			want: []string{"CREATE SCHEMA IF NOT EXISTS app", "CREATE EXTENSION IF NOT EXISTS postgis"},
		},
		{
			name: "naive drops empty fragments",
			sql:  "SELECT 1;;\n;SELECT 2;",
			mode: parser.SplitNaive,
			want: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name: "statement without final semicolon is kept",
			sql:  "SELECT 1; SELECT 2",
			mode: parser.SplitScanner,
			want: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name: "scanner keeps semicolons inside string literals",
			sql:  "INSERT INTO app.notes (body) VALUES ('a;b'); SELECT 1;",
			mode: parser.SplitScanner,
			want: []string{"INSERT INTO app.notes (body) VALUES ('a;b')", "SELECT 1"},
		},
		{
			name: "naive splits inside string literals",
			sql:  "INSERT INTO app.notes (body) VALUES ('a;b');",
			mode: parser.SplitNaive,
			want: []string{"INSERT INTO app.notes (body) VALUES ('a", "b')"},
		},
		{
			name: "scanner keeps dollar-quoted bodies whole",
			sql: `CREATE OR REPLACE FUNCTION app.touch() RETURNS trigger AS $$
BEGIN
  NEW.updated_at := now();
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;
SELECT 1;`,
			mode: parser.SplitScanner,
			want: []string{
				`CREATE OR REPLACE FUNCTION app.touch() RETURNS trigger AS $$
BEGIN
  NEW.updated_at := now();
  RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
				"SELECT 1",
			},
		},
		{
			name: "scanner drops trailing comment-only fragment",
			sql:  "SELECT 1;\n-- end of file\n",
			mode: parser.SplitScanner,
			want: []string{"SELECT 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parser.Split(tt.sql, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit_unknownMode_returnsError(t *testing.T) {
	t.Parallel()

	_, err := parser.Split("SELECT 1;", parser.SplitMode("regex"))
	require.ErrorIs(t, err, parser.ErrUnknownSplitMode)
}

func TestParseSplitMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    parser.SplitMode
		wantErr bool
	}{
		{in: "", want: parser.SplitScanner},
		{in: "scanner", want: parser.SplitScanner},
		{in: "Naive", want: parser.SplitNaive},
		{in: "regex", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := parser.ParseSplitMode(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, parser.ErrUnknownSplitMode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
