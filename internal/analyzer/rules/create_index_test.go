package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/dealfinder-db/internal/analyzer"
	"github.com/aqasim81/dealfinder-db/internal/analyzer/rules"
)

func TestCreateIndexRule_Check(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewCreateIndexRule(), []ruleCase{
		{
			name:       "non-concurrent index on existing table is LOW",
			sql:        "CREATE INDEX IF NOT EXISTS parcels_geom_idx ON app.parcels USING GIST (geom);",
			wantCount:  1,
			wantSev:    analyzer.Low,
			wantObject: "app.parcels",
		},
		{
			name:       "stays LOW outside a transaction",
			sql:        "CREATE INDEX parcels_geom_idx ON app.parcels USING GIST (geom);",
			nonTx:      true,
			wantCount:  1,
			wantSev:    analyzer.Low,
			wantObject: "app.parcels",
		},
		{
			name:      "concurrent index is not flagged",
			sql:       "CREATE INDEX CONCURRENTLY IF NOT EXISTS parcels_geom_idx ON app.parcels USING GIST (geom);",
			wantCount: 0,
		},
		{
			name:      "non-index statement ignored",
			sql:       "CREATE TABLE app.parcels (id INT);",
			wantCount: 0,
		},
	})
}

func TestCreateIndexRule_tableCreatedInSameFile(t *testing.T) {
	t.Parallel()

	ctx := &analyzer.RuleContext{CreatedTables: map[string]bool{"app.deals": true}}

	findings := check(t, rules.NewCreateIndexRule(), "CREATE INDEX deals_price_idx ON app.deals (price);", ctx)

	assert.Empty(t, findings)
}
