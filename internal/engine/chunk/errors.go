package chunk

import "errors"

// Errors returned by chunk operations.
var (
	// ErrChunkBudgetExceeded indicates the pool refused to allocate another chunk.
	ErrChunkBudgetExceeded = errors.New("chunk budget exceeded")

	// ErrResolutionMismatch indicates two chunks of different levels were combined.
	ErrResolutionMismatch = errors.New("chunk resolution mismatch")

	// ErrInvalidResolution indicates an unknown pyramid level.
	ErrInvalidResolution = errors.New("invalid chunk resolution")
)
