package delta

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Op is a single delta operation. Exactly one of Retain, Delete, Insert, or
// Embed is set. Attributes apply to retain and insert ops only.
type Op struct {
	Retain     int
	Delete     int
	Insert     string
	Embed      map[string]any
	Attributes AttrMap
}

// IsRetain reports whether the op skips over existing content.
func (o Op) IsRetain() bool { return o.Retain > 0 }

// IsDelete reports whether the op removes content.
func (o Op) IsDelete() bool { return o.Delete > 0 }

// IsInsert reports whether the op adds text.
func (o Op) IsInsert() bool { return o.Insert != "" }

// IsEmbed reports whether the op adds an embedded object.
func (o Op) IsEmbed() bool { return o.Embed != nil }

// Length returns the number of positions the op covers. Text inserts count
// runes; embeds count as one.
func (o Op) Length() int {
	switch {
	case o.Retain > 0:
		return o.Retain
	case o.Delete > 0:
		return o.Delete
	case o.Embed != nil:
		return 1
	default:
		return utf8.RuneCountInString(o.Insert)
	}
}

// opJSON is the wire shape shared by all op kinds. Insert carries either a
// string or an embed object.
type opJSON struct {
	Insert     any     `json:"insert,omitempty"`
	Retain     int     `json:"retain,omitempty"`
	Delete     int     `json:"delete,omitempty"`
	Attributes AttrMap `json:"attributes,omitempty"`
}

// MarshalJSON encodes the op in standard rich-text wire form.
func (o Op) MarshalJSON() ([]byte, error) {
	w := opJSON{Retain: o.Retain, Delete: o.Delete, Attributes: o.Attributes}
	switch {
	case o.Embed != nil:
		w.Insert = o.Embed
	case o.Insert != "":
		w.Insert = o.Insert
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes an op, rejecting inserts that are neither text nor
// an embed object.
func (o *Op) UnmarshalJSON(data []byte) error {
	var w opJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = Op{Retain: w.Retain, Delete: w.Delete, Attributes: w.Attributes}
	switch v := w.Insert.(type) {
	case nil:
	case string:
		o.Insert = v
	case map[string]any:
		o.Embed = v
	default:
		return fmt.Errorf("%w: insert must be text or an embed object", ErrInvalidOp)
	}
	return nil
}
