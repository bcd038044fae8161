package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrJobNotFound   = errors.New("job not found")
	ErrCVNotFound    = errors.New("cv not found")
	ErrAlreadyScored = errors.New("cv already scored")
	ErrInvalidScore  = errors.New("score outside valid range")
)
