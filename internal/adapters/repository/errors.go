package repository

import "errors"

// Sentinel errors for the repository package.
var (
	// ErrOpen indicates the database file could not be opened.
	ErrOpen = errors.New("repository: open database")

	// ErrMigrate indicates the schema could not be applied.
	ErrMigrate = errors.New("repository: apply schema")

	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
)
