package collab

import (
	"fmt"

	"github.com/dshills/richsync/internal/delta"
	"github.com/dshills/richsync/internal/richtext"
)

// translator turns sanitized editor batches into replicated model
// operations, mutating the local model as it walks the batch.
type translator struct {
	doc *richtext.Document
}

// translate applies one editor batch to the model and returns the
// operations that reproduce the same edit on any replica. The whole batch
// is validated before the first mutation, so a failed translation leaves
// the model untouched.
//
// Metas are emitted before the set operations that use them, set
// operations in document order, and minted marks after the content they
// cover, so the slice replays front to back without buffering.
func (t *translator) translate(b *delta.Delta) ([]Op, error) {
	decoded, err := t.precheck(b)
	if err != nil {
		return nil, err
	}

	var ops []Op
	offset := 0 // visible model index under the batch cursor
	for i, op := range b.Ops {
		switch {
		case op.IsInsert():
			res, err := t.doc.InsertAt(offset, op.Insert, decoded[i])
			if err != nil {
				return nil, err
			}
			if res.Meta != nil {
				ops = append(ops, Op{Kind: OpMeta, Meta: res.Meta})
			}
			runes := []rune(op.Insert)
			for k, p := range res.Positions {
				ops = append(ops, Op{Kind: OpSet, Pos: p, Text: string(runes[k])})
			}
			for k := range res.Marks {
				ops = append(ops, Op{Kind: OpMark, Mark: &res.Marks[k]})
			}
			offset += len(runes)
		case op.IsDelete():
			// Deleted slots leave the visible sequence immediately, so
			// the cursor does not advance.
			positions, err := t.doc.Delete(offset, op.Delete)
			if err != nil {
				return nil, err
			}
			for _, p := range positions {
				ops = append(ops, Op{Kind: OpDelete, Pos: p})
			}
		case op.IsRetain():
			for _, key := range attrNames(decoded[i]) {
				m, err := t.doc.MarkRange(key, decoded[i][key], offset, offset+op.Retain)
				if err != nil {
					return nil, err
				}
				if m != nil {
					ops = append(ops, Op{Kind: OpMark, Mark: m})
				}
			}
			offset += op.Retain
		default:
			return nil, fmt.Errorf("%w: op %d", ErrMalformedOp, i)
		}
	}
	return ops, nil
}

// precheck walks the batch before any mutation: embeds are rejected and
// every attribute map is decoded up front, keyed by op index.
func (t *translator) precheck(b *delta.Delta) (map[int]delta.AttrMap, error) {
	decoded := make(map[int]delta.AttrMap)
	for i, op := range b.Ops {
		if op.IsEmbed() {
			return nil, fmt.Errorf("%w: op %d", ErrEmbedUnsupported, i)
		}
		if op.Attributes == nil {
			continue
		}
		attrs, err := DecodeAttrs(op.Attributes)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		decoded[i] = attrs
	}
	return decoded, nil
}
