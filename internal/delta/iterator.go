package delta

import "math"

type opKind int

const (
	kindRetain opKind = iota
	kindInsert
	kindDelete
)

// infLen stands in for the implicit retain that extends past the end of a
// delta during composition.
const infLen = math.MaxInt

// Iter walks a delta op by op, splitting ops at arbitrary rune offsets. A
// drained iterator yields unbounded retains, which gives composition its
// implicit trailing retain.
type Iter struct {
	ops    []Op
	index  int
	offset int
}

// NewIter returns an iterator over ops.
func NewIter(ops []Op) *Iter {
	return &Iter{ops: ops}
}

// HasNext reports whether any real op remains.
func (it *Iter) HasNext() bool {
	return it.index < len(it.ops)
}

// PeekKind returns the kind of the next op, or a retain once drained.
func (it *Iter) PeekKind() opKind {
	if it.index >= len(it.ops) {
		return kindRetain
	}
	op := it.ops[it.index]
	switch {
	case op.Delete > 0:
		return kindDelete
	case op.Insert != "" || op.Embed != nil:
		return kindInsert
	default:
		return kindRetain
	}
}

// PeekLen returns the remaining length of the next op, or infLen once
// drained.
func (it *Iter) PeekLen() int {
	if it.index >= len(it.ops) {
		return infLen
	}
	return it.ops[it.index].Length() - it.offset
}

// Next consumes up to n positions of the current op and returns them as a
// standalone op. Pass n <= 0 to take the whole remainder of the current op.
func (it *Iter) Next(n int) Op {
	if n <= 0 {
		n = infLen
	}
	if it.index >= len(it.ops) {
		return Op{Retain: infLen}
	}
	op := it.ops[it.index]
	offset := it.offset
	length := op.Length()
	if n >= length-offset {
		n = length - offset
		it.index++
		it.offset = 0
	} else {
		it.offset += n
	}
	switch {
	case op.Delete > 0:
		return Op{Delete: n}
	case op.Embed != nil:
		return Op{Embed: op.Embed, Attributes: op.Attributes}
	case op.Insert != "":
		runes := []rune(op.Insert)
		return Op{Insert: string(runes[offset : offset+n]), Attributes: op.Attributes}
	default:
		return Op{Retain: n, Attributes: op.Attributes}
	}
}
