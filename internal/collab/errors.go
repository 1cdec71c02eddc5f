package collab

import "errors"

var (
	// ErrMissingTerminator indicates a loaded document state whose text is
	// empty or does not end with the line terminator. The caller owns the
	// state; the adapter never repairs it.
	ErrMissingTerminator = errors.New("document state lacks trailing terminator")

	// ErrEmbedUnsupported indicates an editor batch carrying an embedded
	// object. Non-text content is out of contract and the batch is not
	// translated at all.
	ErrEmbedUnsupported = errors.New("embedded content not supported")

	// ErrUnknownOpKind indicates an op whose kind is outside the contract.
	// Producers never emit one; seeing it is a programming error.
	ErrUnknownOpKind = errors.New("unknown op kind")

	// ErrMalformedOp indicates an op missing the payload its kind requires.
	ErrMalformedOp = errors.New("malformed op")

	// ErrBadAttr indicates a formatting attribute the codec cannot map.
	ErrBadAttr = errors.New("invalid formatting attribute")

	// ErrReentrantApply indicates ApplyOps called while a previous apply
	// is still running.
	ErrReentrantApply = errors.New("apply already in progress")
)
