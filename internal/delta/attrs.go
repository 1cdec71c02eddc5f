package delta

import (
	"bytes"
	"encoding/json"
)

// AttrMap carries the formatting attached to an op. Values are whatever the
// editor surface put there (booleans, numbers, strings, small objects). A
// nil value is meaningful on retain ops: it removes the attribute.
type AttrMap map[string]any

// Clone returns a shallow copy. A nil map clones to nil.
func (m AttrMap) Clone() AttrMap {
	if m == nil {
		return nil
	}
	out := make(AttrMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal reports whether two attribute maps carry the same formatting.
// Values are compared by their JSON encoding, so numbers that arrive as
// int on one side and float64 on the other still compare equal.
func (m AttrMap) Equal(other AttrMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !ValueEqual(v, ov) {
			return false
		}
	}
	return true
}

// ValueEqual compares two attribute values by JSON encoding.
func ValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// ComposeAttrs layers applied over base. Keys in applied win; keys only in
// base carry through. A nil value in applied clears the base key, and the
// nil itself survives only when keepNil is set (composition onto a retain,
// where the removal must still be expressed downstream).
func ComposeAttrs(base, applied AttrMap, keepNil bool) AttrMap {
	out := AttrMap{}
	for k, v := range applied {
		if v == nil && !keepNil {
			continue
		}
		out[k] = v
	}
	for k, v := range base {
		if _, ok := applied[k]; !ok {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DiffAttrs returns the attribute change that turns base into target: keys
// whose values differ map to the target value, and keys present only in
// base map to nil. Returns nil when the maps already agree.
func DiffAttrs(base, target AttrMap) AttrMap {
	out := AttrMap{}
	for k, v := range base {
		tv, ok := target[k]
		switch {
		case !ok:
			out[k] = nil
		case !ValueEqual(v, tv):
			out[k] = tv
		}
	}
	for k, v := range target {
		if _, ok := base[k]; !ok {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
