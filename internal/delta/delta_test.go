package delta

import (
	"encoding/json"
	"errors"
	"testing"
)

func opsEqual(a, b []Op) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Retain != b[i].Retain || a[i].Delete != b[i].Delete || a[i].Insert != b[i].Insert {
			return false
		}
		if !a[i].Attributes.Equal(b[i].Attributes) {
			return false
		}
		if (a[i].Embed == nil) != (b[i].Embed == nil) {
			return false
		}
	}
	return true
}

func TestBuilderMergesAdjacent(t *testing.T) {
	d := New().Insert("ab", nil).Insert("cd", nil).Delete(1).Delete(2)
	want := []Op{{Insert: "abcd"}, {Delete: 3}}
	if !opsEqual(d.Ops, want) {
		t.Errorf("ops = %+v, want %+v", d.Ops, want)
	}
}

func TestBuilderKeepsDistinctAttrs(t *testing.T) {
	d := New().Insert("a", AttrMap{"bold": true}).Insert("b", nil)
	if len(d.Ops) != 2 {
		t.Fatalf("expected 2 ops, got %+v", d.Ops)
	}
}

func TestBuilderInsertBeforeDelete(t *testing.T) {
	d := New().Retain(2, nil).Delete(1).Insert("x", nil)
	want := []Op{{Retain: 2}, {Insert: "x"}, {Delete: 1}}
	if !opsEqual(d.Ops, want) {
		t.Errorf("ops = %+v, want %+v", d.Ops, want)
	}

	// The swap must still merge with an insert sitting before the delete.
	d = New().Insert("a", nil).Delete(1).Insert("b", nil)
	want = []Op{{Insert: "ab"}, {Delete: 1}}
	if !opsEqual(d.Ops, want) {
		t.Errorf("ops = %+v, want %+v", d.Ops, want)
	}

	// And unshift when the delete is the first op.
	d = New().Delete(1).Insert("x", nil)
	want = []Op{{Insert: "x"}, {Delete: 1}}
	if !opsEqual(d.Ops, want) {
		t.Errorf("ops = %+v, want %+v", d.Ops, want)
	}
}

func TestBuilderSkipsNoops(t *testing.T) {
	d := New().Retain(0, nil).Insert("", nil).Delete(0).InsertEmbed(nil, nil)
	if len(d.Ops) != 0 {
		t.Errorf("expected no ops, got %+v", d.Ops)
	}
}

func TestChop(t *testing.T) {
	d := New().Insert("a", nil).Retain(2, nil).Chop()
	want := []Op{{Insert: "a"}}
	if !opsEqual(d.Ops, want) {
		t.Errorf("ops = %+v, want %+v", d.Ops, want)
	}

	// A formatting retain is not padding and must survive.
	d = New().Insert("a", nil).Retain(2, AttrMap{"bold": true}).Chop()
	if len(d.Ops) != 2 {
		t.Errorf("attributed retain was chopped: %+v", d.Ops)
	}
}

func TestLengths(t *testing.T) {
	d := New().Retain(2, nil).Insert("héllo", nil).Delete(3)
	if got := d.Length(); got != 10 {
		t.Errorf("Length() = %d, want 10", got)
	}
	if got := d.BaseLen(); got != 5 {
		t.Errorf("BaseLen() = %d, want 5", got)
	}
	if got := d.TargetLen(); got != 7 {
		t.Errorf("TargetLen() = %d, want 7", got)
	}

	e := New().InsertEmbed(map[string]any{"image": "a.png"}, nil)
	if got := e.Length(); got != 1 {
		t.Errorf("embed Length() = %d, want 1", got)
	}
}

func TestOpJSONRoundTrip(t *testing.T) {
	d := New().
		Retain(1, AttrMap{"bold": true}).
		Insert("hi", nil).
		InsertEmbed(map[string]any{"image": "a.png"}, AttrMap{"width": 40}).
		Delete(2)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Delta
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Ops) != 4 {
		t.Fatalf("expected 4 ops, got %+v", back.Ops)
	}
	if back.Ops[0].Retain != 1 || !back.Ops[0].Attributes.Equal(AttrMap{"bold": true}) {
		t.Errorf("retain op mangled: %+v", back.Ops[0])
	}
	if back.Ops[1].Insert != "hi" {
		t.Errorf("insert op mangled: %+v", back.Ops[1])
	}
	if back.Ops[2].Embed == nil || back.Ops[2].Embed["image"] != "a.png" {
		t.Errorf("embed op mangled: %+v", back.Ops[2])
	}
	if back.Ops[3].Delete != 2 {
		t.Errorf("delete op mangled: %+v", back.Ops[3])
	}
}

func TestOpJSONRejectsBadInsert(t *testing.T) {
	var op Op
	err := json.Unmarshal([]byte(`{"insert": 42}`), &op)
	if !errors.Is(err, ErrInvalidOp) {
		t.Errorf("expected ErrInvalidOp, got %v", err)
	}
}

func TestIterSplitsRunes(t *testing.T) {
	it := NewIter([]Op{{Insert: "héllo"}})
	first := it.Next(2)
	if first.Insert != "hé" {
		t.Errorf("first chunk = %q, want %q", first.Insert, "hé")
	}
	rest := it.Next(0)
	if rest.Insert != "llo" {
		t.Errorf("rest = %q, want %q", rest.Insert, "llo")
	}
	if it.HasNext() {
		t.Error("iterator should be drained")
	}
}
