package database

import "errors"

var (
	// ErrInvalidDatabaseURL is returned when the connection string does not parse.
	ErrInvalidDatabaseURL = errors.New("invalid database URL")

	// ErrConnectionFailed is returned when the database cannot be reached.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrLockNotAcquired is returned while another dealdb run holds the migration lock.
	ErrLockNotAcquired = errors.New("migration lock held by another session")
)
