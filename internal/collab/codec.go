package collab

import (
	"fmt"
	"sort"

	"github.com/dshills/richsync/internal/delta"
)

// DecodeAttrs converts editor attributes to model attributes. All
// exclusive line keys collapse onto the synthetic block key so the model
// sees one value per paragraph no matter which editor key carried it.
// When the same batch both sets and clears exclusive keys, the set wins:
// the editor already displaced the old format, and the non-nil value is
// the state that must replicate.
func DecodeAttrs(attrs delta.AttrMap) (delta.AttrMap, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	out := delta.AttrMap{}
	blockSet := false
	for _, name := range attrNames(attrs) {
		value := attrs[name]
		k, ok := LookupKey(name)
		if !ok || !k.Exclusive() {
			out[name] = value
			continue
		}
		if value == nil {
			if _, seen := out[BlockKey]; !seen {
				out[BlockKey] = nil
			}
			continue
		}
		if blockSet {
			return nil, fmt.Errorf("%w: two exclusive line formats in one run", ErrBadAttr)
		}
		bf, err := blockFromEditor(k, value)
		if err != nil {
			return nil, err
		}
		out[BlockKey] = bf.payload()
		blockSet = true
	}
	return out, nil
}

// EncodeAttrs converts model attributes to editor attributes. A block
// clear fans out to a clear of every exclusive key, since the model does
// not record which editor key held the old format.
func EncodeAttrs(attrs delta.AttrMap) (delta.AttrMap, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	out := delta.AttrMap{}
	for _, name := range attrNames(attrs) {
		value := attrs[name]
		if name != BlockKey {
			out[name] = value
			continue
		}
		if value == nil {
			for _, k := range ExclusiveKeys() {
				out[k.Name()] = nil
			}
			continue
		}
		bf, err := parseBlockPayload(value)
		if err != nil {
			return nil, err
		}
		ek, ev := bf.editorAttr()
		out[ek] = ev
	}
	return out, nil
}

func attrNames(attrs delta.AttrMap) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
