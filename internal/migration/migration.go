package migration

import (
	"crypto/sha256"
	"encoding/hex"
)

// File is a single SQL migration file loaded from disk. Its base filename is
// both the ordering key and the identity recorded in schema_migrations.
type File struct {
	Filename string // "001_init.sql"
	Path     string // Path the file was read from
	SQL      string // Trimmed file contents
	Checksum string // SHA-256 hex digest of SQL
}

// ComputeChecksum returns the SHA-256 hex digest of the given SQL string.
func ComputeChecksum(sql string) string {
	h := sha256.Sum256([]byte(sql))

	return hex.EncodeToString(h[:])
}
