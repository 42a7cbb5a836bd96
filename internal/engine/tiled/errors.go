package tiled

import "errors"

// Errors returned by image operations.
var (
	// ErrUncommittedChanges indicates the overlay must be committed or rolled
	// back before the operation.
	ErrUncommittedChanges = errors.New("image has uncommitted changes")

	// ErrDisposed indicates the image was already disposed.
	ErrDisposed = errors.New("image disposed")

	// ErrInvalidSize indicates a non-positive canvas size.
	ErrInvalidSize = errors.New("invalid image size")

	// ErrInvalidChunkData indicates imported pixel data of the wrong length.
	ErrInvalidChunkData = errors.New("invalid chunk data")

	// ErrChunkOutsideCanvas indicates imported pixel data for a chunk that
	// does not overlap the canvas.
	ErrChunkOutsideCanvas = errors.New("chunk outside canvas")
)
