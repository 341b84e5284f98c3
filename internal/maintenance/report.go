package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

const (
	topIndexLimit    = 10
	unusedIndexLimit = 5
)

// TableSize is one table's on-disk footprint including indexes and TOAST.
type TableSize struct {
	Schema    string `db:"schemaname" json:"schema"`
	Table     string `db:"tablename" json:"table"`
	SizeBytes int64  `db:"size_bytes" json:"size_bytes"`
}

// MaterializedView describes a materialized view and whether it has data.
type MaterializedView struct {
	Schema    string `db:"schemaname" json:"schema"`
	View      string `db:"matviewname" json:"view"`
	Populated bool   `db:"ispopulated" json:"populated"`
	SizeBytes int64  `db:"size_bytes" json:"size_bytes"`
}

// IndexSize is one index's on-disk size and how often it has been scanned
// since statistics were last reset.
type IndexSize struct {
	Schema    string `db:"schemaname" json:"schema"`
	Table     string `db:"relname" json:"table"`
	Index     string `db:"indexrelname" json:"index"`
	Scans     int64  `db:"idx_scan" json:"scans"`
	SizeBytes int64  `db:"size_bytes" json:"size_bytes"`
}

// Report summarizes the tables, indexes and materialized views in one schema.
// UnusedIndexes are the largest indexes never scanned, candidates for review.
type Report struct {
	Schema            string             `json:"schema"`
	Tables            []TableSize        `json:"tables"`
	TopIndexes        []IndexSize        `json:"top_indexes"`
	UnusedIndexes     []IndexSize        `json:"unused_indexes"`
	MaterializedViews []MaterializedView `json:"materialized_views"`
}

const tableSizesSQL = `
SELECT schemaname, tablename,
       pg_total_relation_size(format('%I.%I', schemaname, tablename)) AS size_bytes
FROM pg_tables
WHERE schemaname = $1
ORDER BY size_bytes DESC, tablename`

const topIndexesSQL = `
SELECT schemaname, relname, indexrelname, idx_scan,
       pg_relation_size(indexrelid) AS size_bytes
FROM pg_stat_user_indexes
WHERE schemaname = $1
ORDER BY size_bytes DESC, indexrelname
LIMIT $2`

const unusedIndexesSQL = `
SELECT schemaname, relname, indexrelname, idx_scan,
       pg_relation_size(indexrelid) AS size_bytes
FROM pg_stat_user_indexes
WHERE schemaname = $1 AND idx_scan = 0
ORDER BY size_bytes DESC, indexrelname
LIMIT $2`

const matviewsSQL = `
SELECT schemaname, matviewname, ispopulated,
       pg_total_relation_size(format('%I.%I', schemaname, matviewname)) AS size_bytes
FROM pg_matviews
WHERE schemaname = $1
ORDER BY matviewname`

// Report collects table, index and materialized view sizes for schema. Each
// unused index is also logged.
func (m *Maintainer) Report(ctx context.Context, schema string) (*Report, error) {
	tables, err := collect[TableSize](ctx, m.db, tableSizesSQL, schema)
	if err != nil {
		return nil, fmt.Errorf("querying table sizes: %w", err)
	}

	top, err := collect[IndexSize](ctx, m.db, topIndexesSQL, schema, topIndexLimit)
	if err != nil {
		return nil, fmt.Errorf("querying index sizes: %w", err)
	}

	unused, err := collect[IndexSize](ctx, m.db, unusedIndexesSQL, schema, unusedIndexLimit)
	if err != nil {
		return nil, fmt.Errorf("querying unused indexes: %w", err)
	}

	for _, ix := range unused {
		m.logger.LogAttrs(ctx, slog.LevelInfo, "index has never been scanned",
			slog.String("index", ix.Schema+"."+ix.Index),
			slog.String("table", ix.Table),
			slog.Int64("size_bytes", ix.SizeBytes),
		)
	}

	views, err := collect[MaterializedView](ctx, m.db, matviewsSQL, schema)
	if err != nil {
		return nil, fmt.Errorf("querying materialized views: %w", err)
	}

	return &Report{
		Schema:            schema,
		Tables:            tables,
		TopIndexes:        top,
		UnusedIndexes:     unused,
		MaterializedViews: views,
	}, nil
}

func collect[T any](ctx context.Context, db DB, sql string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}
