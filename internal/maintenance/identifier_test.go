package maintenance_test

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/dealfinder-db/internal/maintenance"
)

func TestParseIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    pgx.Identifier
		wantErr bool
	}{
		{"bare name", "postgis", pgx.Identifier{"postgis"}, false},
		{"schema qualified", "app.deals_enriched", pgx.Identifier{"app", "deals_enriched"}, false},
		{"surrounding spaces", " app . deals ", pgx.Identifier{"app", "deals"}, false},
		{"three parts", "deal_finder.app.deals", pgx.Identifier{"deal_finder", "app", "deals"}, false},
		{"empty", "", nil, true},
		{"empty part", "app.", nil, true},
		{"too many parts", "a.b.c.d", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := maintenance.ParseIdentifier(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, maintenance.ErrInvalidIdentifier)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdentifier_quotesHostileNames(t *testing.T) {
	t.Parallel()

	id, err := maintenance.ParseIdentifier(`app.deals"; DROP TABLE app.parcels; --`)
	require.NoError(t, err)

	assert.Equal(t, `"app"."deals""; DROP TABLE app"."parcels; --"`, id.Sanitize())
}
