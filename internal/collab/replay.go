package collab

import (
	"fmt"

	"github.com/dshills/richsync/internal/delta"
	"github.com/dshills/richsync/internal/position"
	"github.com/dshills/richsync/internal/richtext"
)

// replayer applies replicated operations to the local model and builds the
// editor batch that reproduces their visible effect.
type replayer struct {
	doc *richtext.Document
}

// apply runs ops against the model and returns one composed editor batch.
// Operations the model has already absorbed change nothing, so redelivered
// batches come back empty.
//
// Metas register first as a single group, which makes the result
// independent of how the sender interleaved metas with the operations that
// reference them.
func (r *replayer) apply(ops []Op) (*delta.Delta, error) {
	var metas []position.BunchMeta
	for _, op := range ops {
		if op.Kind != OpMeta {
			continue
		}
		if op.Meta == nil {
			return nil, fmt.Errorf("%w: meta op without meta", ErrMalformedOp)
		}
		metas = append(metas, *op.Meta)
	}
	if len(metas) > 0 {
		if err := r.doc.AddMetas(metas); err != nil {
			return nil, err
		}
	}

	pending := delta.New()
	for _, op := range ops {
		var (
			step *delta.Delta
			err  error
		)
		switch op.Kind {
		case OpMeta:
			continue
		case OpSet:
			step, err = r.applySet(op)
		case OpDelete:
			step, err = r.applyDelete(op)
		case OpMark:
			step, err = r.applyMark(op)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownOpKind, op.Kind)
		}
		if err != nil {
			return nil, err
		}
		if step != nil {
			pending = delta.Compose(pending, step)
		}
	}
	return pending.Chop(), nil
}

// applySet materializes one character. The insert step carries the formats
// the character resolves to right now; marks later in the stream adjust it
// through their own steps.
func (r *replayer) applySet(op Op) (*delta.Delta, error) {
	runes := []rune(op.Text)
	if len(runes) != 1 {
		return nil, fmt.Errorf("%w: set text %q", ErrMalformedOp, op.Text)
	}
	added, err := r.doc.Set(op.Pos, runes[0])
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, nil
	}
	idx, err := r.doc.IndexOf(op.Pos)
	if err != nil {
		return nil, err
	}
	attrs, err := r.doc.FormatAt(idx)
	if err != nil {
		return nil, err
	}
	enc, err := EncodeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	return delta.New().Retain(idx, nil).Insert(op.Text, enc), nil
}

func (r *replayer) applyDelete(op Op) (*delta.Delta, error) {
	idx, visible, err := r.doc.Remove(op.Pos)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, nil
	}
	return delta.New().Retain(idx, nil).Delete(1), nil
}

// applyMark merges one mark and converts the resulting format changes to
// retain steps. Changes arrive in ascending index order, so a running
// cursor turns them into one delta.
func (r *replayer) applyMark(op Op) (*delta.Delta, error) {
	if op.Mark == nil {
		return nil, fmt.Errorf("%w: mark op without mark", ErrMalformedOp)
	}
	changes, err := r.doc.AddMark(*op.Mark)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}
	step := delta.New()
	cursor := 0
	for _, ch := range changes {
		enc, err := EncodeAttrs(ch.Attrs)
		if err != nil {
			return nil, err
		}
		step.Retain(ch.Index-cursor, nil).Retain(ch.Length, enc)
		cursor = ch.Index + ch.Length
	}
	return step, nil
}
