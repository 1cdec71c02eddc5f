package richtext

import (
	"errors"
	"testing"

	"github.com/dshills/richsync/internal/delta"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	d := New(WithReplica("alice"))
	d.InsertAt(0, "hello\n", nil)
	d.MarkRange("bold", true, 0, 3)
	d.Delete(3, 1) // drop the second 'l'; the mark's end anchor now sits on a tombstone

	data, err := d.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if back.Replica() != "alice" {
		t.Errorf("replica = %q, want alice", back.Replica())
	}
	if got := back.Text(); got != "helo\n" {
		t.Errorf("Text() = %q, want %q", got, "helo\n")
	}
	attrs, err := back.FormatAt(0)
	if err != nil {
		t.Fatalf("FormatAt: %v", err)
	}
	if !attrs.Equal(delta.AttrMap{"bold": true}) {
		t.Errorf("FormatAt(0) = %v, want bold", attrs)
	}
}

func TestLoadKeepsTombstones(t *testing.T) {
	d := New(WithReplica("alice"))
	res, _ := d.InsertAt(0, "ab", nil)
	d.Delete(0, 1)

	data, _ := d.Save()
	back, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if added, err := back.Set(res.Positions[0], 'a'); err != nil || added {
		t.Errorf("tombstone resurrected after reload: %v, %v", added, err)
	}
	if got := back.Text(); got != "b" {
		t.Errorf("Text() = %q, want %q", got, "b")
	}
}

func TestLoadedDocumentKeepsEditing(t *testing.T) {
	d := New(WithReplica("alice"))
	res, _ := d.InsertAt(0, "ab", nil)

	data, _ := d.Save()
	back, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res2, err := back.InsertAt(2, "c", nil)
	if err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	if got := back.Text(); got != "abc" {
		t.Errorf("Text() = %q, want %q", got, "abc")
	}
	// A reloaded session must mint fresh bunches, never recycle an ID.
	if res2.Meta == nil {
		t.Fatal("expected a fresh bunch after reload")
	}
	if res2.Meta.ID == res.Meta.ID {
		t.Errorf("bunch ID %s reused after reload", res2.Meta.ID)
	}
}

func TestLoadRejectsBadState(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not json"},
		{"missing replica", `{"metas":[],"cells":[]}`},
		{"visible cell without rune", `{"replica":"a","metas":[{"id":"a_1","parent":"root","offset":-1,"clock":1}],"cells":[{"pos":{"bunch":"a_1","idx":0}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.data)); !errors.Is(err, ErrBadState) {
				t.Errorf("expected ErrBadState, got %v", err)
			}
		})
	}
}
