package tracker

import "errors"

// ErrMigrationNotFound indicates no record exists for the given filename.
var ErrMigrationNotFound = errors.New("migration not found in schema_migrations")

// ErrChecksumMismatch indicates an applied file has been edited since it ran.
var ErrChecksumMismatch = errors.New("migration checksum mismatch")

// ErrTableCreation indicates the schema_migrations table could not be created.
var ErrTableCreation = errors.New("creating schema_migrations table")

// ErrAlreadyRecorded indicates a second insert for the same filename.
var ErrAlreadyRecorded = errors.New("migration already recorded")
