package richtext

import (
	"fmt"

	"github.com/dshills/richsync/internal/delta"
	"github.com/dshills/richsync/internal/position"
)

// Side picks which side of a position an anchor binds to.
type Side int

const (
	// SideBefore binds just before the position.
	SideBefore Side = iota
	// SideAfter binds just after the position.
	SideAfter
)

// Anchor is one endpoint of a mark. The zero position stands for a document
// edge: SideBefore is the document start and SideAfter the document end,
// both of which move as content grows.
type Anchor struct {
	Pos  position.Position `json:"pos"`
	Side Side              `json:"side"`
}

// String renders the anchor for logs and test failures.
func (a Anchor) String() string {
	side := "before"
	if a.Side == SideAfter {
		side = "after"
	}
	return fmt.Sprintf("%s(%s)", side, a.Pos)
}

// Mark attaches a formatting key and value to the span between two anchors.
// A nil Value clears the key over the span. Stamp and Creator order marks
// for last-writer-wins resolution; a creator never reuses a stamp.
type Mark struct {
	Key     string `json:"key"`
	Value   any    `json:"value"`
	Start   Anchor `json:"start"`
	End     Anchor `json:"end"`
	Stamp   int64  `json:"stamp"`
	Creator string `json:"creator"`
}

// Expand says how a mark behaves when text is inserted at its edges.
type Expand int

const (
	// ExpandNone keeps both edges closed; boundary inserts stay outside.
	ExpandNone Expand = iota
	// ExpandBefore absorbs inserts at the start edge only.
	ExpandBefore
	// ExpandAfter absorbs inserts at the end edge only.
	ExpandAfter
	// ExpandBoth absorbs inserts at either edge.
	ExpandBoth
)

// ExpandFunc chooses the expansion behavior for a mark at creation time.
// The value matters for keys whose clearing form behaves differently from
// their setting form. Existing marks never re-evaluate their policy.
type ExpandFunc func(key string, value any) Expand

// DefaultExpand grows spans when typing at their end edge, which is what
// inline styles like bold want.
func DefaultExpand(string, any) Expand { return ExpandAfter }

// FormatChange reports a span of the visible document whose resolved
// formatting changed, as an index range plus the attribute delta.
type FormatChange struct {
	Index  int
	Length int
	Attrs  delta.AttrMap
}

// Run is a maximal stretch of visible characters sharing one resolved
// format.
type Run struct {
	Text  string
	Attrs delta.AttrMap
}

// InsertResult describes a completed local insert: the slots the new
// characters occupy, the bunch meta if one was minted, and any marks
// created to reconcile the requested formatting with what the insertion
// point inherited.
type InsertResult struct {
	Positions []position.Position
	Meta      *position.BunchMeta
	Marks     []Mark
}
