package richtext

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/richsync/internal/delta"
	"github.com/dshills/richsync/internal/position"
)

// cell is one allocated character slot. Deleted cells stay resident as
// tombstones so concurrent references keep resolving.
type cell struct {
	ch      rune
	deleted bool
}

// Document is the position-addressed model of one replica. It is driven
// from a single goroutine.
type Document struct {
	order  *position.Order
	cells  map[position.Position]*cell
	marks  []Mark
	stamp  int64
	expand ExpandFunc

	visible []position.Position
	dirty   bool
}

// Option configures a Document during creation.
type Option func(*Document)

// WithReplica sets the replica ID used for minted bunches and mark stamps.
func WithReplica(id string) Option {
	return func(d *Document) {
		if id != "" {
			d.order = position.NewOrder(id)
		}
	}
}

// WithExpand sets the per-key expansion policy applied when local edits
// create marks.
func WithExpand(f ExpandFunc) Option {
	return func(d *Document) {
		if f != nil {
			d.expand = f
		}
	}
}

// New creates an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		order:  position.NewOrder("local"),
		cells:  make(map[position.Position]*cell),
		expand: DefaultExpand,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Replica returns the replica ID this document writes as.
func (d *Document) Replica() string {
	return d.order.Replica()
}

// visibleSlots returns the positions of visible characters in document
// order, rebuilding the cached walk after any mutation.
func (d *Document) visibleSlots() []position.Position {
	if d.dirty {
		d.visible = d.visible[:0]
		d.order.Walk(func(p position.Position) bool {
			if c, ok := d.cells[p]; ok && !c.deleted {
				d.visible = append(d.visible, p)
			}
			return true
		})
		d.dirty = false
	}
	return d.visible
}

// Len returns the number of visible characters.
func (d *Document) Len() int {
	return len(d.visibleSlots())
}

// Text returns the visible characters as a string.
func (d *Document) Text() string {
	var b strings.Builder
	for _, p := range d.visibleSlots() {
		b.WriteRune(d.cells[p].ch)
	}
	return b.String()
}

// PositionAt returns the position of the visible character at index i.
func (d *Document) PositionAt(i int) (position.Position, error) {
	vis := d.visibleSlots()
	if i < 0 || i >= len(vis) {
		return position.Position{}, fmt.Errorf("%w: %d of %d", ErrIndexRange, i, len(vis))
	}
	return vis[i], nil
}

// IndexOf returns the visible index of p, or ErrNotVisible when p holds no
// visible character.
func (d *Document) IndexOf(p position.Position) (int, error) {
	c, ok := d.cells[p]
	if !ok || c.deleted {
		return 0, fmt.Errorf("%w: %s", ErrNotVisible, p)
	}
	vis := d.visibleSlots()
	var cmpErr error
	idx := sort.Search(len(vis), func(k int) bool {
		cmp, err := d.order.Compare(vis[k], p)
		if err != nil {
			cmpErr = err
			return true
		}
		return cmp >= 0
	})
	if cmpErr != nil {
		return 0, cmpErr
	}
	if idx == len(vis) || vis[idx] != p {
		return 0, fmt.Errorf("%w: %s", ErrNotVisible, p)
	}
	return idx, nil
}

// Has reports whether p holds a visible character.
func (d *Document) Has(p position.Position) bool {
	c, ok := d.cells[p]
	return ok && !c.deleted
}

// InsertAt places text at visible index i, allocating fresh positions
// ordered between the current neighbors. The insertion inherits the
// formats that expanding marks carry across the gap; attrs states what the
// new text should actually look like, and marks are minted for the
// difference. Returns the allocations so the caller can propagate them.
func (d *Document) InsertAt(i int, text string, attrs delta.AttrMap) (*InsertResult, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return &InsertResult{}, nil
	}
	vis := d.visibleSlots()
	if i < 0 || i > len(vis) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexRange, i, len(vis))
	}

	var prev, next position.Position
	if i > 0 {
		prev = vis[i-1]
	}
	hasNext := i < len(vis)
	if hasNext {
		next = vis[i]
	}

	start, meta, err := d.order.CreateAfter(prev, len(runes))
	if err != nil {
		return nil, err
	}
	res := &InsertResult{
		Positions: make([]position.Position, len(runes)),
		Meta:      meta,
	}
	for k, r := range runes {
		p := position.Position{Bunch: start.Bunch, Index: start.Index + k}
		d.cells[p] = &cell{ch: r}
		res.Positions[k] = p
	}
	d.dirty = true

	// What the run inherits is decided by the marks that admit its first
	// character; the whole run sits in one gap, so it is uniform.
	inherited, err := d.formatsCovering(res.Positions[0])
	if err != nil {
		return nil, err
	}
	diff := delta.DiffAttrs(inherited, attrs)
	for _, key := range sortedKeys(diff) {
		m := d.mintMark(key, diff[key], prev, res.Positions[0], res.Positions[len(runes)-1], next, hasNext, i == 0)
		d.marks = append(d.marks, m)
		res.Marks = append(res.Marks, m)
	}
	return res, nil
}

// mintMark builds a mark spanning a freshly inserted run, anchored per the
// key's expansion policy. first and last bound the run itself; prev and
// next are its visible neighbors, absent at document edges.
func (d *Document) mintMark(key string, value any, prev, first, last, next position.Position, hasNext, atStart bool) Mark {
	exp := d.expand(key, value)

	start := Anchor{Pos: first, Side: SideBefore}
	if exp == ExpandBefore || exp == ExpandBoth {
		if atStart {
			start = Anchor{Side: SideBefore} // document start
		} else {
			start = Anchor{Pos: prev, Side: SideAfter}
		}
	}
	end := Anchor{Pos: last, Side: SideAfter}
	if exp == ExpandAfter || exp == ExpandBoth {
		if hasNext {
			end = Anchor{Pos: next, Side: SideBefore}
		} else {
			end = Anchor{Side: SideAfter} // document end
		}
	}
	d.stamp++
	return Mark{Key: key, Value: value, Start: start, End: end, Stamp: d.stamp, Creator: d.Replica()}
}

// Delete tombstones n visible characters starting at index i and returns
// their positions for propagation.
func (d *Document) Delete(i, n int) ([]position.Position, error) {
	vis := d.visibleSlots()
	if n < 0 || i < 0 || i+n > len(vis) {
		return nil, fmt.Errorf("%w: [%d,%d) of %d", ErrIndexRange, i, i+n, len(vis))
	}
	out := make([]position.Position, n)
	for k := 0; k < n; k++ {
		p := vis[i+k]
		d.cells[p].deleted = true
		out[k] = p
	}
	if n > 0 {
		d.dirty = true
	}
	return out, nil
}

// MarkRange formats the visible range [i, j) with key and value, anchored
// per the key's expansion policy. A nil value clears the key over the
// range. Returns the minted mark, or nil when the range is empty.
func (d *Document) MarkRange(key string, value any, i, j int) (*Mark, error) {
	vis := d.visibleSlots()
	if i < 0 || j > len(vis) || i > j {
		return nil, fmt.Errorf("%w: [%d,%d) of %d", ErrIndexRange, i, j, len(vis))
	}
	if i == j {
		return nil, nil
	}

	var prev, next position.Position
	if i > 0 {
		prev = vis[i-1]
	}
	hasNext := j < len(vis)
	if hasNext {
		next = vis[j]
	}
	m := d.mintMark(key, value, prev, vis[i], vis[j-1], next, hasNext, i == 0)
	d.marks = append(d.marks, m)
	return &m, nil
}

// Marks returns a copy of all marks.
func (d *Document) Marks() []Mark {
	out := make([]Mark, len(d.marks))
	copy(out, d.marks)
	return out
}

// AddMetas registers remotely minted bunch metas.
func (d *Document) AddMetas(metas []position.BunchMeta) error {
	return d.order.Register(metas)
}

// Set materializes a remote character at p. Setting an already known slot
// is a no-op reporting added=false, which makes redelivery harmless; in
// particular a tombstoned slot stays deleted.
func (d *Document) Set(p position.Position, ch rune) (added bool, err error) {
	if err := d.order.Extend(p); err != nil {
		return false, err
	}
	if _, ok := d.cells[p]; ok {
		return false, nil
	}
	d.cells[p] = &cell{ch: ch}
	d.dirty = true
	return true, nil
}

// Remove tombstones the character at p for a remote delete. It returns the
// visible index the character held, with visible=false when the slot was
// already dead or never materialized. Removing an unmaterialized slot
// still plants a tombstone so a late-arriving Set stays hidden.
func (d *Document) Remove(p position.Position) (index int, visible bool, err error) {
	c, ok := d.cells[p]
	if ok && !c.deleted {
		idx, err := d.IndexOf(p)
		if err != nil {
			return 0, false, err
		}
		c.deleted = true
		d.dirty = true
		return idx, true, nil
	}
	if !ok {
		if err := d.order.Extend(p); err != nil {
			return 0, false, err
		}
		d.cells[p] = &cell{deleted: true}
		d.dirty = true
	}
	return 0, false, nil
}

// AddMark merges a remotely created mark and reports which visible spans
// changed their resolved formatting as a result. Redelivered marks are
// recognized by (key, creator, stamp) and change nothing.
func (d *Document) AddMark(m Mark) ([]FormatChange, error) {
	for _, ex := range d.marks {
		if ex.Key == m.Key && ex.Creator == m.Creator && ex.Stamp == m.Stamp {
			return nil, nil
		}
	}
	before, err := d.formats()
	if err != nil {
		return nil, err
	}
	d.marks = append(d.marks, m)
	if m.Stamp > d.stamp {
		d.stamp = m.Stamp
	}
	after, err := d.formats()
	if err != nil {
		d.marks = d.marks[:len(d.marks)-1]
		return nil, err
	}

	var changes []FormatChange
	i := 0
	for i < len(after) {
		diff := delta.DiffAttrs(before[i], after[i])
		if diff == nil {
			i++
			continue
		}
		j := i + 1
		for j < len(after) && delta.DiffAttrs(before[j], after[j]).Equal(diff) {
			j++
		}
		changes = append(changes, FormatChange{Index: i, Length: j - i, Attrs: diff})
		i = j
	}
	return changes, nil
}

// FormatAt returns the resolved formatting of the visible character at
// index i.
func (d *Document) FormatAt(i int) (delta.AttrMap, error) {
	vis := d.visibleSlots()
	if i < 0 || i >= len(vis) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexRange, i, len(vis))
	}
	fm, err := d.formats()
	if err != nil {
		return nil, err
	}
	return fm[i], nil
}

// FormattedRuns returns the visible document as maximal runs of uniformly
// formatted text.
func (d *Document) FormattedRuns() ([]Run, error) {
	vis := d.visibleSlots()
	fm, err := d.formats()
	if err != nil {
		return nil, err
	}
	var runs []Run
	i := 0
	for i < len(vis) {
		j := i + 1
		for j < len(vis) && fm[j].Equal(fm[i]) {
			j++
		}
		var b strings.Builder
		for k := i; k < j; k++ {
			b.WriteRune(d.cells[vis[k]].ch)
		}
		runs = append(runs, Run{Text: b.String(), Attrs: fm[i]})
		i = j
	}
	return runs, nil
}

// sortedMarks returns the marks in resolution order: ascending stamp, then
// creator, then key. Later entries win, so the ordering is the
// last-writer-wins rule.
func (d *Document) sortedMarks() []Mark {
	out := make([]Mark, len(d.marks))
	copy(out, d.marks)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Stamp != b.Stamp {
			return a.Stamp < b.Stamp
		}
		if a.Creator != b.Creator {
			return a.Creator < b.Creator
		}
		return a.Key < b.Key
	})
	return out
}

// formats resolves the formatting of every visible character.
func (d *Document) formats() ([]delta.AttrMap, error) {
	vis := d.visibleSlots()
	out := make([]delta.AttrMap, len(vis))
	for _, m := range d.sortedMarks() {
		lo, err := d.resolveAnchor(m.Start)
		if err != nil {
			return nil, err
		}
		hi, err := d.resolveAnchor(m.End)
		if err != nil {
			return nil, err
		}
		for k := lo; k < hi && k < len(vis); k++ {
			if m.Value == nil {
				delete(out[k], m.Key)
				continue
			}
			if out[k] == nil {
				out[k] = delta.AttrMap{}
			}
			out[k][m.Key] = m.Value
		}
	}
	for k := range out {
		if len(out[k]) == 0 {
			out[k] = nil
		}
	}
	return out, nil
}

// resolveAnchor maps an anchor to a visible index: the first visible
// character the anchor sits at or before. Start and end anchors share the
// rule; an end resolves to the exclusive bound.
func (d *Document) resolveAnchor(a Anchor) (int, error) {
	vis := d.visibleSlots()
	if a.Pos.IsZero() {
		if a.Side == SideBefore {
			return 0, nil
		}
		return len(vis), nil
	}
	var cmpErr error
	idx := sort.Search(len(vis), func(k int) bool {
		cmp, err := d.order.Compare(vis[k], a.Pos)
		if err != nil {
			cmpErr = err
			return true
		}
		if a.Side == SideBefore {
			return cmp >= 0
		}
		return cmp > 0
	})
	if cmpErr != nil {
		return 0, cmpErr
	}
	return idx, nil
}

// formatsCovering resolves the formatting a character at position p picks
// up from the existing marks. p need not be visible yet; this is how a
// fresh insertion learns what it inherits.
func (d *Document) formatsCovering(p position.Position) (delta.AttrMap, error) {
	out := delta.AttrMap{}
	for _, m := range d.sortedMarks() {
		okStart, err := d.anchorAdmits(m.Start, p, true)
		if err != nil {
			return nil, err
		}
		if !okStart {
			continue
		}
		okEnd, err := d.anchorAdmits(m.End, p, false)
		if err != nil {
			return nil, err
		}
		if !okEnd {
			continue
		}
		if m.Value == nil {
			delete(out, m.Key)
		} else {
			out[m.Key] = m.Value
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// anchorAdmits reports whether a span edge includes position p.
func (d *Document) anchorAdmits(a Anchor, p position.Position, isStart bool) (bool, error) {
	if a.Pos.IsZero() {
		if isStart {
			return a.Side == SideBefore, nil
		}
		return a.Side == SideAfter, nil
	}
	cmp, err := d.order.Compare(p, a.Pos)
	if err != nil {
		return false, err
	}
	if isStart {
		if a.Side == SideBefore {
			return cmp >= 0, nil
		}
		return cmp > 0, nil
	}
	if a.Side == SideBefore {
		return cmp < 0, nil
	}
	return cmp <= 0, nil
}

func sortedKeys(m delta.AttrMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
