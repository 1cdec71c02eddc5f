package richtext

import "errors"

var (
	// ErrIndexRange indicates an index or range outside the visible
	// document.
	ErrIndexRange = errors.New("index out of range")

	// ErrNotVisible indicates a position that does not address a visible
	// character.
	ErrNotVisible = errors.New("position not visible")

	// ErrBadState indicates a serialized document that cannot be decoded.
	ErrBadState = errors.New("bad document state")
)
