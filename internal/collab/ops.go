package collab

import (
	"github.com/dshills/richsync/internal/position"
	"github.com/dshills/richsync/internal/richtext"
)

// OpKind names the replicated operation kinds.
type OpKind string

const (
	// OpMeta introduces a bunch meta. Metas sort before the operations
	// that reference their positions, so a batch is self-contained.
	OpMeta OpKind = "meta"
	// OpSet places one character at a position.
	OpSet OpKind = "set"
	// OpDelete tombstones the character at a position.
	OpDelete OpKind = "delete"
	// OpMark attaches a formatting mark.
	OpMark OpKind = "mark"
)

// Op is one replicated model operation. Exactly one payload field is
// populated, selected by Kind: Meta for meta ops, Pos and Text for set
// ops, Pos for delete ops, Mark for mark ops.
type Op struct {
	Kind OpKind              `json:"kind"`
	Meta *position.BunchMeta `json:"meta,omitempty"`
	Pos  position.Position   `json:"pos,omitzero"`
	Text string              `json:"text,omitempty"`
	Mark *richtext.Mark      `json:"mark,omitempty"`
}
