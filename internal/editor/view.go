// Package editor implements a headless rich-text editor view: a flat
// formatted document driven by index-addressed edit batches, the same
// surface a browser editor widget exposes. The view owns no positions and
// knows nothing about replicas; it renders whatever batches it is handed
// and notifies listeners of every change it accepts.
//
// The view enforces two native behaviors of the editor family it stands in
// for: the document always ends with a line terminator, and line-level
// formats displace one another, so setting a heading on a line clears any
// list or quote formatting there in the same stroke.
package editor

import (
	"fmt"
	"strings"

	"github.com/dshills/richsync/internal/delta"
)

// Source tags where a change originated. User and API changes notify
// listeners; silent changes do not.
type Source string

const (
	// SourceUser marks an edit made through the editing surface.
	SourceUser Source = "user"
	// SourceAPI marks a programmatic edit, such as a replayed remote
	// change.
	SourceAPI Source = "api"
	// SourceSilent applies an edit without notifying listeners.
	SourceSilent Source = "silent"
)

// Change is one accepted edit batch, after capability filtering.
type Change struct {
	Batch  *delta.Delta
	Source Source
}

// Handler receives accepted changes.
type Handler func(Change)

// exclusiveKeys are the line formats that displace each other. The view
// clears the others whenever a batch sets one.
var exclusiveKeys = []string{"blockquote", "code-block", "header", "list"}

// View is a headless editor instance. A new view holds a single line
// terminator, mirroring an empty editor. Views are driven from one
// goroutine.
type View struct {
	contents *delta.Delta
	caps     map[string][]any
	handlers []Handler
}

// ViewOption configures a View during creation.
type ViewOption func(*View)

// WithCapability registers a formatting key the view accepts. With no
// values, any value is allowed; otherwise only the listed values pass.
func WithCapability(key string, values ...any) ViewOption {
	return func(v *View) {
		v.caps[key] = values
	}
}

// NewView creates an empty editor view with the standard capability set:
// bold, italic, two heading levels, and ordered or bulleted lists.
func NewView(opts ...ViewOption) *View {
	v := &View{
		contents: delta.New().Insert("\n", nil),
		caps: map[string][]any{
			"bold":   {true},
			"italic": {true},
			"header": {1, 2},
			"list":   {"ordered", "bullet"},
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// OnChange registers a listener for accepted changes.
func (v *View) OnChange(h Handler) {
	if h != nil {
		v.handlers = append(v.handlers, h)
	}
}

// Len returns the view length in characters, terminator included.
func (v *View) Len() int {
	return v.contents.Length()
}

// Text returns the view's characters. Embedded objects render as the
// object replacement character so lengths stay index-accurate.
func (v *View) Text() string {
	var b strings.Builder
	for _, op := range v.contents.Ops {
		if op.Embed != nil {
			b.WriteRune('￼')
			continue
		}
		b.WriteString(op.Insert)
	}
	return b.String()
}

// Contents returns a copy of the view as an insert-only delta.
func (v *View) Contents() *delta.Delta {
	out := delta.New()
	for _, op := range v.contents.Ops {
		out.Push(delta.Op{
			Insert:     op.Insert,
			Embed:      op.Embed,
			Attributes: op.Attributes.Clone(),
		})
	}
	return out
}

// ApplyBatch applies one edit batch. The batch is capability-filtered,
// checked against the view bounds, and rejected outright if it would strip
// the trailing terminator. Listeners observe the filtered batch unless the
// source is silent. The returned Change carries what was actually applied.
func (v *View) ApplyBatch(b *delta.Delta, src Source) (*Change, error) {
	if b == nil || len(b.Ops) == 0 {
		return &Change{Batch: delta.New(), Source: src}, nil
	}
	if b.BaseLen() > v.Len() {
		return nil, fmt.Errorf("%w: batch needs %d characters, view holds %d", ErrOutOfBounds, b.BaseLen(), v.Len())
	}

	san := v.sanitize(b).Chop()
	if len(san.Ops) == 0 {
		return &Change{Batch: san, Source: src}, nil
	}
	next := delta.Compose(v.contents, san)
	if !endsWithTerminator(next) {
		return nil, fmt.Errorf("%w: missing trailing terminator", ErrBadBatch)
	}
	v.contents = next

	ch := Change{Batch: san, Source: src}
	if src != SourceSilent {
		for _, h := range v.handlers {
			h(ch)
		}
	}
	return &ch, nil
}

// sanitize rebuilds a batch with only supported formatting. Retains that
// set one exclusive line format gain explicit clears for the others.
func (v *View) sanitize(b *delta.Delta) *delta.Delta {
	out := delta.New()
	for _, op := range b.Ops {
		switch {
		case op.IsDelete():
			out.Delete(op.Delete)
		case op.IsRetain():
			out.Retain(op.Retain, v.filterAttrs(op.Attributes, true))
		case op.IsEmbed():
			out.InsertEmbed(op.Embed, v.filterAttrs(op.Attributes, false))
		default:
			out.Insert(op.Insert, v.filterAttrs(op.Attributes, false))
		}
	}
	return out
}

// filterAttrs drops unknown keys and disallowed values. Nil values pass
// for known keys: they are clears. On retains, setting an exclusive line
// format clears its siblings; on inserts the fresh characters carry only
// what the batch gave them, so no clears are added.
func (v *View) filterAttrs(attrs delta.AttrMap, retain bool) delta.AttrMap {
	if attrs == nil {
		return nil
	}
	out := delta.AttrMap{}
	for key, val := range attrs {
		allowed, known := v.caps[key]
		if !known {
			continue
		}
		if val == nil {
			if retain {
				out[key] = nil
			}
			continue
		}
		if len(allowed) > 0 && !valueAllowed(val, allowed) {
			continue
		}
		out[key] = val
	}
	if retain {
		for _, ex := range exclusiveKeys {
			if val, ok := out[ex]; ok && val != nil {
				for _, other := range exclusiveKeys {
					if other != ex {
						if _, set := out[other]; !set {
							out[other] = nil
						}
					}
				}
				break
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func valueAllowed(val any, allowed []any) bool {
	for _, a := range allowed {
		if delta.ValueEqual(val, a) {
			return true
		}
	}
	return false
}

func endsWithTerminator(contents *delta.Delta) bool {
	if len(contents.Ops) == 0 {
		return false
	}
	last := contents.Ops[len(contents.Ops)-1]
	return strings.HasSuffix(last.Insert, "\n")
}
