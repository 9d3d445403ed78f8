package service

import "errors"

// Sentinel errors for the service package.
var (
	// ErrNotStarted indicates an operation was called before Start.
	ErrNotStarted = errors.New("service not started")

	// ErrQueueFull indicates the ingest queue rejected a record.
	ErrQueueFull = errors.New("ingest queue full")
)
