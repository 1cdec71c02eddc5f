package position

import "errors"

// Errors returned by bunch-order operations.
var (
	// ErrUnknownBunch indicates a position or meta references a bunch that
	// has not been registered.
	ErrUnknownBunch = errors.New("unknown bunch")

	// ErrBunchConflict indicates a bunch was re-registered with different
	// fields. Metas are immutable; this is a producer bug.
	ErrBunchConflict = errors.New("conflicting bunch metadata")

	// ErrInvalidMeta indicates malformed bunch metadata.
	ErrInvalidMeta = errors.New("invalid bunch metadata")

	// ErrEmptyRun indicates a slot allocation of non-positive length.
	ErrEmptyRun = errors.New("empty slot run")
)
