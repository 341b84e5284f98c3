package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
	"github.com/aqasim81/dealfinder-db/internal/analyzer/rules"
	"github.com/aqasim81/dealfinder-db/internal/migration"
)

func TestNewDefaultRegistry_registersAllRules(t *testing.T) {
	t.Parallel()

	r := rules.NewDefaultRegistry()
	require.NotNil(t, r)

	ids := make([]string, 0, len(r.Rules()))
	for _, rule := range r.Rules() {
		ids = append(ids, rule.ID())
	}

	assert.ElementsMatch(t, []string{
		"create-without-if-not-exists",
		"drop-without-if-exists",
		"add-column-without-if-not-exists",
		"create-without-or-replace",
		"insert-without-on-conflict",
		"create-index-not-concurrent",
	}, ids)
}

func TestDefaultRegistry_idempotentFileIsClean(t *testing.T) {
	t.Parallel()

	f := &migration.File{
		Filename: "002_deals.sql",
		SQL: `CREATE EXTENSION IF NOT EXISTS postgis;
CREATE SCHEMA IF NOT EXISTS app;
CREATE TABLE IF NOT EXISTS app.deals (
    id     BIGSERIAL PRIMARY KEY,
    price  NUMERIC(12, 2),
    geom   geometry(Point, 4326)
);
CREATE INDEX IF NOT EXISTS deals_geom_idx ON app.deals USING GIST (geom);
ALTER TABLE app.deals ADD COLUMN IF NOT EXISTS listed_at TIMESTAMPTZ;
CREATE OR REPLACE VIEW app.active_deals AS SELECT * FROM app.deals;
DROP VIEW IF EXISTS app.old_deals;
INSERT INTO app.settings (key, value) VALUES ('radius_km', '5') ON CONFLICT (key) DO NOTHING;`,
	}

	a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

	result, err := a.Analyze(f)

	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, analyzer.Safe, result.MaxSeverity)
}

func TestDefaultRegistry_nonIdempotentFile(t *testing.T) {
	t.Parallel()

	f := &migration.File{
		Filename: "003_parcels.sql",
		SQL: `CREATE TABLE app.parcels (id BIGSERIAL PRIMARY KEY, geom geometry);
INSERT INTO app.parcels (geom) VALUES (NULL);
DROP TABLE app.parcels_staging;`,
	}

	a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

	result, err := a.Analyze(f)

	require.NoError(t, err)
	require.Len(t, result.Findings, 3)
	assert.Equal(t, "create-without-if-not-exists", result.Findings[0].Rule)
	assert.Equal(t, "insert-without-on-conflict", result.Findings[1].Rule)
	assert.Equal(t, "drop-without-if-exists", result.Findings[2].Rule)
	assert.Equal(t, analyzer.Medium, result.MaxSeverity)
	assert.False(t, result.HasHigh())
}
