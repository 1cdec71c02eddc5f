package editor

import "errors"

var (
	// ErrOutOfBounds indicates a batch that addresses more content than
	// the view holds.
	ErrOutOfBounds = errors.New("batch exceeds document bounds")

	// ErrBadBatch indicates a batch that would leave the view without its
	// trailing line terminator.
	ErrBadBatch = errors.New("batch breaks document shape")
)
