// Package position provides stable, totally ordered identifiers for
// character slots in a replicated text sequence.
//
// Slots are allocated in bunches: contiguous groups of slots minted by one
// replica and described by a BunchMeta. The metas form a tree rooted at the
// reserved root bunch, and walking that tree yields the same slot order on
// every replica that has registered the same metas, regardless of arrival
// order. A position is interpretable only after its bunch (and transitively
// its ancestors) are known, so metas must be propagated before or together
// with the operations that reference their positions.
package position

import "fmt"

// RootBunch is the ID of the reserved root of every bunch tree. It holds no
// slots; top-level bunches attach to it at offset -1.
const RootBunch = "root"

// Position identifies one character slot. The zero value stands for the
// document start and is valid only as an anchor or allocation predecessor,
// never as a slot.
type Position struct {
	Bunch string `json:"bunch"`
	Index int    `json:"idx"`
}

// IsZero reports whether p is the document-start sentinel.
func (p Position) IsZero() bool {
	return p.Bunch == ""
}

// String returns a compact debug form.
func (p Position) String() string {
	if p.IsZero() {
		return "<start>"
	}
	return fmt.Sprintf("%s[%d]", p.Bunch, p.Index)
}

// BunchMeta describes one allocation group of slots. It is immutable after
// creation and must be known to a replica before any position in the bunch
// can be interpreted there.
//
// Offset is the slot index in the parent bunch after which this bunch's
// slots sort; -1 attaches at the parent's head. Clock is a Lamport stamp
// from the minting replica: siblings at the same offset order by
// (Clock descending, ID ascending), so a later insertion at the same
// boundary lands closer to its predecessor.
type BunchMeta struct {
	ID     string `json:"id"`
	Parent string `json:"parent"`
	Offset int    `json:"offset"`
	Clock  int64  `json:"clock"`
}
