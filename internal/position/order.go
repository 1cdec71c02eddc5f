package position

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// bunchNode is one bunch in the order tree.
type bunchNode struct {
	meta     BunchMeta
	parent   *bunchNode
	children []*bunchNode // sorted by (Offset asc, Clock desc, ID asc)
	slots    int          // allocated slot count; slots 0..slots-1 exist
	local    bool         // minted by this replica in this session
}

// Order maintains the bunch tree for one replica and derives the total slot
// order from it. All replicas that have registered the same metas agree on
// the relative order of every pair of known positions.
//
// Order is not safe for concurrent use; callers drive it from one goroutine.
type Order struct {
	replica string
	clock   int64 // highest Lamport stamp seen
	counter int   // suffix of the last bunch ID minted locally
	bunches map[string]*bunchNode
}

// NewOrder creates an order for the given replica with only the root bunch
// registered.
func NewOrder(replica string) *Order {
	root := &bunchNode{meta: BunchMeta{ID: RootBunch, Offset: -1}}
	return &Order{
		replica: replica,
		bunches: map[string]*bunchNode{RootBunch: root},
	}
}

// Replica returns the replica ID this order mints bunches for.
func (o *Order) Replica() string {
	return o.replica
}

// Known reports whether the bunch has been registered.
func (o *Order) Known(bunch string) bool {
	_, ok := o.bunches[bunch]
	return ok
}

// Register adds a batch of bunch metas. Arrival order within the batch does
// not matter: children that precede their parents are retried once the
// parent attaches. Re-registering a known bunch with identical fields is a
// no-op; with different fields it is ErrBunchConflict. Metas whose parents
// are not resolvable by the end of the batch yield ErrUnknownBunch.
func (o *Order) Register(metas []BunchMeta) error {
	pending := make([]BunchMeta, 0, len(metas))
	for _, m := range metas {
		if err := validateMeta(m); err != nil {
			return err
		}
		pending = append(pending, m)
	}

	for len(pending) > 0 {
		progressed := false
		rest := pending[:0]
		for _, m := range pending {
			if node, ok := o.bunches[m.ID]; ok {
				if node.meta != m {
					return fmt.Errorf("%w: bunch %s", ErrBunchConflict, m.ID)
				}
				continue
			}
			if !o.Known(m.Parent) {
				rest = append(rest, m)
				continue
			}
			o.attach(m, false)
			progressed = true
		}
		pending = rest
		if len(pending) > 0 && !progressed {
			ids := make([]string, len(pending))
			for i, m := range pending {
				ids[i] = m.ID
			}
			return fmt.Errorf("%w: unresolved parents for %s", ErrUnknownBunch, strings.Join(ids, ", "))
		}
	}
	return nil
}

func validateMeta(m BunchMeta) error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: empty bunch ID", ErrInvalidMeta)
	case m.Offset < -1:
		return fmt.Errorf("%w: bunch %s offset %d", ErrInvalidMeta, m.ID, m.Offset)
	case m.Parent == RootBunch && m.Offset != -1:
		return fmt.Errorf("%w: bunch %s attaches to root at offset %d", ErrInvalidMeta, m.ID, m.Offset)
	case m.ID != RootBunch && m.Parent == "":
		return fmt.Errorf("%w: bunch %s has no parent", ErrInvalidMeta, m.ID)
	}
	return nil
}

// childLess orders siblings: ascending offset, then newest (highest clock)
// first, then ascending ID as the deterministic tie-break.
func childLess(a, b *bunchNode) bool {
	if a.meta.Offset != b.meta.Offset {
		return a.meta.Offset < b.meta.Offset
	}
	if a.meta.Clock != b.meta.Clock {
		return a.meta.Clock > b.meta.Clock
	}
	return a.meta.ID < b.meta.ID
}

// childAt reports whether any child bunch attaches at the given offset.
func (n *bunchNode) childAt(offset int) bool {
	i := sort.Search(len(n.children), func(i int) bool {
		return n.children[i].meta.Offset >= offset
	})
	return i < len(n.children) && n.children[i].meta.Offset == offset
}

// attach links a validated meta into the tree. The parent must be known.
func (o *Order) attach(m BunchMeta, local bool) {
	parent := o.bunches[m.Parent]
	node := &bunchNode{meta: m, parent: parent, local: local}

	idx := sort.Search(len(parent.children), func(i int) bool {
		return !childLess(parent.children[i], node)
	})
	parent.children = append(parent.children, nil)
	copy(parent.children[idx+1:], parent.children[idx:])
	parent.children[idx] = node
	o.bunches[m.ID] = node

	// A child at offset k proves the parent allocated slots 0..k.
	if m.Offset >= 0 && parent.slots < m.Offset+1 {
		parent.slots = m.Offset + 1
	}
	if m.Clock > o.clock {
		o.clock = m.Clock
	}
	// Keep the local counter ahead of any of our own IDs arriving from a
	// saved state or a remote echo, so fresh mints never collide.
	if n, ok := localSuffix(m.ID, o.replica); ok && n > o.counter {
		o.counter = n
	}
}

func localSuffix(id, replica string) (int, bool) {
	rest, ok := strings.CutPrefix(id, replica+"_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CreateAfter allocates a run of n consecutive new slots ordered immediately
// after prev and returns the first. The zero Position allocates at the
// document head. When prev is the last allocated slot of a bunch this
// replica minted and no child bunch hangs at that slot, the bunch is
// extended in place and no meta is returned; otherwise a new bunch is
// minted, parented at prev, and its meta must be propagated before or with
// any operation referencing the new slots.
func (o *Order) CreateAfter(prev Position, n int) (Position, *BunchMeta, error) {
	if n < 1 {
		return Position{}, nil, fmt.Errorf("%w: %d slots", ErrEmptyRun, n)
	}

	parent := RootBunch
	offset := -1
	if !prev.IsZero() {
		node, ok := o.bunches[prev.Bunch]
		if !ok {
			return Position{}, nil, fmt.Errorf("%w: %s", ErrUnknownBunch, prev.Bunch)
		}
		// A child at the tail offset walks between the tail slot and any
		// extended slot, so reuse only holds while that offset is bare.
		// Minting instead keeps the run adjacent: the fresh bunch carries
		// the highest clock and sorts first among those children.
		if node.local && prev.Index == node.slots-1 && !node.childAt(prev.Index) {
			start := node.slots
			node.slots += n
			return Position{Bunch: prev.Bunch, Index: start}, nil, nil
		}
		parent = prev.Bunch
		offset = prev.Index
	}

	o.counter++
	o.clock++
	meta := BunchMeta{
		ID:     fmt.Sprintf("%s_%d", o.replica, o.counter),
		Parent: parent,
		Offset: offset,
		Clock:  o.clock,
	}
	o.attach(meta, true)
	o.bunches[meta.ID].slots = n
	return Position{Bunch: meta.ID, Index: 0}, &meta, nil
}

// Metas returns every registered meta except the root, ordered by clock.
// A parent always carries a lower clock than its children, so feeding the
// result back to Register resolves without buffering.
func (o *Order) Metas() []BunchMeta {
	out := make([]BunchMeta, 0, len(o.bunches)-1)
	for id, node := range o.bunches {
		if id == RootBunch {
			continue
		}
		out = append(out, node.meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clock != out[j].Clock {
			return out[i].Clock < out[j].Clock
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Extend records that slots 0..p.Index of p's bunch exist. Remote set
// operations materialize slots this replica never allocated; extending is
// how the walk learns about them.
func (o *Order) Extend(p Position) error {
	if p.IsZero() || p.Bunch == RootBunch {
		return fmt.Errorf("%w: %q holds no slots", ErrInvalidMeta, p.Bunch)
	}
	node, ok := o.bunches[p.Bunch]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBunch, p.Bunch)
	}
	if node.slots < p.Index+1 {
		node.slots = p.Index + 1
	}
	return nil
}

// Walk visits every allocated slot in document order. Tombstoned slots are
// included; presence is the document layer's concern. The visit function
// returns false to stop early.
func (o *Order) Walk(visit func(Position) bool) {
	o.walkBunch(o.bunches[RootBunch], visit)
}

func (o *Order) walkBunch(node *bunchNode, visit func(Position) bool) bool {
	kids := node.children
	ci := 0
	for ci < len(kids) && kids[ci].meta.Offset < 0 {
		if !o.walkBunch(kids[ci], visit) {
			return false
		}
		ci++
	}
	for i := 0; i < node.slots; i++ {
		if !visit(Position{Bunch: node.meta.ID, Index: i}) {
			return false
		}
		for ci < len(kids) && kids[ci].meta.Offset == i {
			if !o.walkBunch(kids[ci], visit) {
				return false
			}
			ci++
		}
	}
	return true
}

// pathStep is one level of a position's ancestor path. order2 interleaves
// slots and bunch descents within one bunch: slot i maps to 2i, a descent
// into a child at offset o maps to 2o+1 (between slot o and slot o+1).
type pathStep struct {
	order2 int
	clock  int64
	id     string
}

func (o *Order) pathTo(p Position) []pathStep {
	node := o.bunches[p.Bunch]
	steps := []pathStep{{order2: 2 * p.Index}}
	for node.meta.ID != RootBunch {
		steps = append(steps, pathStep{
			order2: 2*node.meta.Offset + 1,
			clock:  node.meta.Clock,
			id:     node.meta.ID,
		})
		node = node.parent
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

// Compare reports the document order of two positions: -1 if a precedes b,
// 0 if equal, +1 if a follows b. The zero Position sorts before every real
// position. Both bunches must be known.
func (o *Order) Compare(a, b Position) (int, error) {
	if !a.IsZero() && !o.Known(a.Bunch) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBunch, a.Bunch)
	}
	if !b.IsZero() && !o.Known(b.Bunch) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBunch, b.Bunch)
	}
	if a == b {
		return 0, nil
	}
	if a.IsZero() {
		return -1, nil
	}
	if b.IsZero() {
		return 1, nil
	}

	pa := o.pathTo(a)
	pb := o.pathTo(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		sa, sb := pa[i], pb[i]
		if sa.order2 != sb.order2 {
			if sa.order2 < sb.order2 {
				return -1, nil
			}
			return 1, nil
		}
		if sa.id == sb.id {
			continue
		}
		if sa.clock != sb.clock {
			if sa.clock > sb.clock {
				return -1, nil
			}
			return 1, nil
		}
		if sa.id < sb.id {
			return -1, nil
		}
		return 1, nil
	}
	// Slot steps are terminal and differ in parity from descent steps, so
	// distinct positions always diverge inside the loop.
	if len(pa) < len(pb) {
		return -1, nil
	}
	return 1, nil
}
