package richtext

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/richsync/internal/position"
)

// docState is the serialized document: every registered bunch, every cell
// including tombstones, and every mark. Replaying it rebuilds an identical
// replica.
type docState struct {
	Replica string               `json:"replica"`
	Stamp   int64                `json:"stamp"`
	Metas   []position.BunchMeta `json:"metas"`
	Cells   []cellState          `json:"cells"`
	Marks   []Mark               `json:"marks,omitempty"`
}

type cellState struct {
	Pos     position.Position `json:"pos"`
	Ch      string            `json:"ch,omitempty"`
	Deleted bool              `json:"deleted,omitempty"`
}

// Save serializes the full document state. Cells are written in walk order
// so repeated saves of the same document are byte-identical.
func (d *Document) Save() ([]byte, error) {
	st := docState{
		Replica: d.Replica(),
		Stamp:   d.stamp,
		Metas:   d.order.Metas(),
		Marks:   d.marks,
	}
	d.order.Walk(func(p position.Position) bool {
		c, ok := d.cells[p]
		if !ok {
			return true
		}
		cs := cellState{Pos: p, Deleted: c.deleted}
		if c.ch != 0 {
			cs.Ch = string(c.ch)
		}
		st.Cells = append(st.Cells, cs)
		return true
	})
	return json.MarshalIndent(st, "", "  ")
}

// Load rebuilds a document from Save output. The saved replica identity is
// kept unless an explicit WithReplica option overrides it. Bunches loaded
// from state are never extended in place, so a reloaded session mints fresh
// bunches for new text.
func Load(data []byte, opts ...Option) (*Document, error) {
	var st docState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if st.Replica == "" {
		return nil, fmt.Errorf("%w: missing replica", ErrBadState)
	}

	d := New(append([]Option{WithReplica(st.Replica)}, opts...)...)
	if err := d.order.Register(st.Metas); err != nil {
		return nil, fmt.Errorf("register metas: %w", err)
	}
	for _, cs := range st.Cells {
		if err := d.order.Extend(cs.Pos); err != nil {
			return nil, fmt.Errorf("extend %s: %w", cs.Pos, err)
		}
		runes := []rune(cs.Ch)
		c := &cell{deleted: cs.Deleted}
		switch {
		case len(runes) == 1:
			c.ch = runes[0]
		case len(runes) > 1 || !cs.Deleted:
			return nil, fmt.Errorf("%w: cell %s holds %q", ErrBadState, cs.Pos, cs.Ch)
		}
		d.cells[cs.Pos] = c
	}
	d.marks = st.Marks
	d.stamp = st.Stamp
	for _, m := range d.marks {
		if m.Stamp > d.stamp {
			d.stamp = m.Stamp
		}
	}
	d.dirty = true
	return d, nil
}
