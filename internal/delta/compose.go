package delta

// Compose returns the delta equivalent to applying a and then b. When a is
// a document (insert-only), the result is the document after the change b.
// Either delta may be shorter than the other; the missing tail behaves as
// an attribute-free retain.
func Compose(a, b *Delta) *Delta {
	ai := NewIter(a.Ops)
	bi := NewIter(b.Ops)
	out := New()

	for ai.HasNext() || bi.HasNext() {
		if bi.PeekKind() == kindInsert {
			out.Push(bi.Next(0))
			continue
		}
		if ai.PeekKind() == kindDelete {
			out.Push(ai.Next(0))
			continue
		}

		n := ai.PeekLen()
		if bn := bi.PeekLen(); bn < n {
			n = bn
		}
		aop := ai.Next(n)
		bop := bi.Next(n)

		if bop.Delete > 0 {
			// Deleting what a inserted cancels both ops.
			if aop.Retain > 0 {
				out.Push(Op{Delete: bop.Delete})
			}
			continue
		}

		op := Op{}
		keepNil := aop.Retain > 0
		switch {
		case aop.Retain > 0:
			op.Retain = n
		case aop.Embed != nil:
			op.Embed = aop.Embed
		default:
			op.Insert = aop.Insert
		}
		op.Attributes = ComposeAttrs(aop.Attributes, bop.Attributes, keepNil)
		out.Push(op)
	}
	return out.Chop()
}
