package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
	"github.com/aqasim81/dealfinder-db/internal/analyzer/rules"
)

func TestCreateIfNotExistsRule_Check(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewCreateIfNotExistsRule(), []ruleCase{
		{
			name:       "CREATE TABLE",
			sql:        "CREATE TABLE app.deals (id INT);",
			wantCount:  1,
			wantSev:    analyzer.Medium,
			wantObject: "app.deals",
		},
		{
			name:      "CREATE TABLE IF NOT EXISTS",
			sql:       "CREATE TABLE IF NOT EXISTS app.deals (id INT);",
			wantCount: 0,
		},
		{
			name:      "temporary table is ignored",
			sql:       "CREATE TEMP TABLE staging (id INT);",
			wantCount: 0,
		},
		{
			name:       "CREATE INDEX",
			sql:        "CREATE INDEX deals_geom_idx ON app.deals USING GIST (geom);",
			wantCount:  1,
			wantSev:    analyzer.Medium,
			wantObject: "deals_geom_idx",
		},
		{
			name:       "CREATE INDEX CONCURRENTLY is HIGH",
			sql:        "CREATE INDEX CONCURRENTLY deals_geom_idx ON app.deals USING GIST (geom);",
			nonTx:      true,
			wantCount:  1,
			wantSev:    analyzer.High,
			wantObject: "deals_geom_idx",
		},
		{
			name:      "CREATE INDEX IF NOT EXISTS",
			sql:       "CREATE INDEX IF NOT EXISTS deals_geom_idx ON app.deals USING GIST (geom);",
			wantCount: 0,
		},
		{
			name:       "CREATE SCHEMA",
			sql:        "CREATE SCHEMA app;",
			wantCount:  1,
			wantSev:    analyzer.Medium,
			wantObject: "app",
		},
		{
			name:       "CREATE EXTENSION",
			sql:        "CREATE EXTENSION postgis;",
			wantCount:  1,
			wantSev:    analyzer.Medium,
			wantObject: "postgis",
		},
		{
			name:      "CREATE EXTENSION IF NOT EXISTS",
			sql:       "CREATE EXTENSION IF NOT EXISTS postgis;",
			wantCount: 0,
		},
		{
			name:       "CREATE SEQUENCE",
			sql:        "CREATE SEQUENCE app.deal_seq;",
			wantCount:  1,
			wantSev:    analyzer.Medium,
			wantObject: "app.deal_seq",
		},
		{
			name:       "CREATE MATERIALIZED VIEW",
			sql:        "CREATE MATERIALIZED VIEW app.deals_enriched AS SELECT * FROM app.deals;",
			wantCount:  1,
			wantSev:    analyzer.Medium,
			wantObject: "app.deals_enriched",
		},
		{
			name:      "CREATE MATERIALIZED VIEW IF NOT EXISTS",
			sql:       "CREATE MATERIALIZED VIEW IF NOT EXISTS app.deals_enriched AS SELECT * FROM app.deals;",
			wantCount: 0,
		},
		{
			name:      "plain view is left to the OR REPLACE rule",
			sql:       "CREATE VIEW app.active_deals AS SELECT 1;",
			wantCount: 0,
		},
	})
}

func TestCreateIfNotExistsRule_messages(t *testing.T) {
	t.Parallel()

	rule := rules.NewCreateIfNotExistsRule()

	mv := check(t, rule, "CREATE MATERIALIZED VIEW app.deals_enriched AS SELECT 1;", nil)
	require.Len(t, mv, 1)
	assert.Equal(t, "Use CREATE MATERIALIZED VIEW IF NOT EXISTS", mv[0].Suggestion)

	unnamed := check(t, rule, "CREATE INDEX ON app.deals (price);", nil)
	require.Len(t, unnamed, 1)
	assert.Equal(t, "app.deals", unnamed[0].Object)
	assert.Contains(t, unnamed[0].Message, "unnamed CREATE INDEX")
}
