package delta

// Delta is an ordered list of operations. The zero value is an empty delta;
// New is provided for chaining.
type Delta struct {
	Ops []Op `json:"ops"`
}

// New returns an empty delta ready for chained construction.
func New() *Delta {
	return &Delta{}
}

// Retain appends a retain op of length n with optional attributes.
// Non-positive lengths are ignored.
func (d *Delta) Retain(n int, attrs AttrMap) *Delta {
	if n <= 0 {
		return d
	}
	return d.Push(Op{Retain: n, Attributes: attrs.Clone()})
}

// Insert appends a text insert with optional attributes. Empty text is
// ignored.
func (d *Delta) Insert(text string, attrs AttrMap) *Delta {
	if text == "" {
		return d
	}
	return d.Push(Op{Insert: text, Attributes: attrs.Clone()})
}

// InsertEmbed appends a one-position embed insert with optional attributes.
func (d *Delta) InsertEmbed(embed map[string]any, attrs AttrMap) *Delta {
	if embed == nil {
		return d
	}
	return d.Push(Op{Embed: embed, Attributes: attrs.Clone()})
}

// Delete appends a delete op of length n. Non-positive lengths are ignored.
func (d *Delta) Delete(n int) *Delta {
	if n <= 0 {
		return d
	}
	return d.Push(Op{Delete: n})
}

// Push appends an op, keeping the list canonical: consecutive deletes
// merge, an insert arriving after a delete is placed before it, and
// adjacent ops of the same kind with equal attributes coalesce.
func (d *Delta) Push(op Op) *Delta {
	idx := len(d.Ops)
	if idx > 0 {
		last := &d.Ops[idx-1]
		if op.Delete > 0 && last.Delete > 0 {
			last.Delete += op.Delete
			return d
		}
		// Insert and delete at the same point commute; keeping the
		// insert first makes equal changes encode identically.
		if last.Delete > 0 && (op.Insert != "" || op.Embed != nil) {
			idx--
			if idx == 0 {
				d.Ops = append(d.Ops, Op{})
				copy(d.Ops[1:], d.Ops)
				d.Ops[0] = op
				return d
			}
			last = &d.Ops[idx-1]
		}
		if op.Attributes.Equal(last.Attributes) {
			switch {
			case op.Insert != "" && last.Insert != "":
				last.Insert += op.Insert
				return d
			case op.Retain > 0 && last.Retain > 0:
				last.Retain += op.Retain
				return d
			}
		}
	}
	if idx == len(d.Ops) {
		d.Ops = append(d.Ops, op)
	} else {
		d.Ops = append(d.Ops, Op{})
		copy(d.Ops[idx+1:], d.Ops[idx:])
		d.Ops[idx] = op
	}
	return d
}

// Chop drops a trailing retain that carries no attributes. Such a retain
// changes nothing and only pads the change out to the document length.
func (d *Delta) Chop() *Delta {
	if n := len(d.Ops); n > 0 {
		last := d.Ops[n-1]
		if last.Retain > 0 && last.Attributes == nil {
			d.Ops = d.Ops[:n-1]
		}
	}
	return d
}

// Length returns the total length of all ops.
func (d *Delta) Length() int {
	total := 0
	for _, op := range d.Ops {
		total += op.Length()
	}
	return total
}

// BaseLen returns the length of document the delta applies to: everything
// it retains or deletes.
func (d *Delta) BaseLen() int {
	total := 0
	for _, op := range d.Ops {
		if op.Retain > 0 || op.Delete > 0 {
			total += op.Length()
		}
	}
	return total
}

// TargetLen returns the length of document the delta produces: everything
// it retains or inserts.
func (d *Delta) TargetLen() int {
	total := 0
	for _, op := range d.Ops {
		if op.Delete == 0 {
			total += op.Length()
		}
	}
	return total
}
