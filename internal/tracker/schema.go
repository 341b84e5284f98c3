package tracker

// TableName is the tracking table shared with the legacy setup script.
const TableName = "schema_migrations"

// createSchemaSQL matches the table the legacy setup script creates, so both
// tools can run against the same database.
const createSchemaSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
    id           SERIAL PRIMARY KEY,
    filename     TEXT UNIQUE NOT NULL,
    executed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// upgradeSchemaSQL adds the columns this tool records on top of the legacy
// layout. They stay nullable because legacy rows carry no checksum.
const upgradeSchemaSQL = `ALTER TABLE schema_migrations
    ADD COLUMN IF NOT EXISTS checksum TEXT,
    ADD COLUMN IF NOT EXISTS duration_ms INTEGER`

// The columns added by upgradeSchemaSQL are read through to_jsonb so the
// same query works before the upgrade, when they do not exist yet.
const (
	checksumColumn = `COALESCE(to_jsonb(m)->>'checksum', '')`
	durationColumn = `COALESCE((to_jsonb(m)->>'duration_ms')::int, 0)`
)
