package service

import "errors"

// Service-level sentinel errors.
var (
	// ErrBatchInFlight is returned when a scoring batch is already running
	// for the same job.
	ErrBatchInFlight = errors.New("scoring batch already in flight for job")

	// ErrBatchNotFound is returned when a background batch id is unknown.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrNotStarted is returned when an operation is invoked before Start.
	ErrNotStarted = errors.New("service not started")
)
