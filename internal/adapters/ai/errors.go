package ai

import "errors"

// Sentinel kinds for provider errors.
var (
	// ErrProvider marks any dependency failure: timeout, transport error,
	// empty or malformed response, or an out-of-range score.
	ErrProvider = errors.New("ai provider failure")
)
