package collab

import (
	"errors"
	"testing"

	"github.com/dshills/richsync/internal/delta"
)

func TestDecodeInlinePassthrough(t *testing.T) {
	got, err := DecodeAttrs(delta.AttrMap{"bold": true, "italic": nil, "sparkle": "lots"})
	if err != nil {
		t.Fatalf("DecodeAttrs: %v", err)
	}
	want := delta.AttrMap{"bold": true, "italic": nil, "sparkle": "lots"}
	if !got.Equal(want) {
		t.Fatalf("decoded %v, want %v", got, want)
	}
}

func TestDecodeCollapsesBlock(t *testing.T) {
	tests := []struct {
		name string
		in   delta.AttrMap
		want string
	}{
		{"header", delta.AttrMap{"header": 2}, `["header",2]`},
		{"header float", delta.AttrMap{"header": float64(3)}, `["header",3]`},
		{"list", delta.AttrMap{"list": "bullet"}, `["list","bullet"]`},
		{"blockquote", delta.AttrMap{"blockquote": true}, `["blockquote",true]`},
		{"code", delta.AttrMap{"code-block": true}, `["code-block",true]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAttrs(tt.in)
			if err != nil {
				t.Fatalf("DecodeAttrs: %v", err)
			}
			want := delta.AttrMap{BlockKey: tt.want}
			if !got.Equal(want) {
				t.Fatalf("decoded %v, want %v", got, want)
			}
		})
	}
}

// A displacing line format arrives as one set plus clears for the other
// exclusive keys. The set must win the collapsed block value no matter how
// the map iterates.
func TestDecodeSetBeatsClear(t *testing.T) {
	in := delta.AttrMap{"header": nil, "blockquote": nil, "code-block": nil, "list": "ordered"}
	got, err := DecodeAttrs(in)
	if err != nil {
		t.Fatalf("DecodeAttrs: %v", err)
	}
	want := delta.AttrMap{BlockKey: `["list","ordered"]`}
	if !got.Equal(want) {
		t.Fatalf("decoded %v, want %v", got, want)
	}
}

func TestDecodeClearOnly(t *testing.T) {
	got, err := DecodeAttrs(delta.AttrMap{"header": nil, "list": nil})
	if err != nil {
		t.Fatalf("DecodeAttrs: %v", err)
	}
	want := delta.AttrMap{BlockKey: nil}
	if !got.Equal(want) {
		t.Fatalf("decoded %v, want %v", got, want)
	}
}

func TestDecodeRejectsBadAttrs(t *testing.T) {
	tests := []struct {
		name string
		in   delta.AttrMap
	}{
		{"two blocks", delta.AttrMap{"header": 1, "list": "bullet"}},
		{"header string", delta.AttrMap{"header": "big"}},
		{"header zero", delta.AttrMap{"header": 0}},
		{"header fraction", delta.AttrMap{"header": 1.5}},
		{"list number", delta.AttrMap{"list": 3}},
		{"list empty", delta.AttrMap{"list": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeAttrs(tt.in); !errors.Is(err, ErrBadAttr) {
				t.Fatalf("err = %v, want ErrBadAttr", err)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	if got, err := DecodeAttrs(nil); err != nil || got != nil {
		t.Fatalf("DecodeAttrs(nil) = %v, %v", got, err)
	}
	if got, err := DecodeAttrs(delta.AttrMap{}); err != nil || got != nil {
		t.Fatalf("DecodeAttrs(empty) = %v, %v", got, err)
	}
}

func TestEncodeExpandsBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want delta.AttrMap
	}{
		{"header", `["header",2]`, delta.AttrMap{"header": 2}},
		{"list", `["list","ordered"]`, delta.AttrMap{"list": "ordered"}},
		{"blockquote", `["blockquote",true]`, delta.AttrMap{"blockquote": true}},
		{"code", `["code-block",true]`, delta.AttrMap{"code-block": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeAttrs(delta.AttrMap{BlockKey: tt.in})
			if err != nil {
				t.Fatalf("EncodeAttrs: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("encoded %v, want %v", got, tt.want)
			}
		})
	}
}

// Clearing the block key fans out to every exclusive editor key, since the
// model does not record which one held the old format.
func TestEncodeBlockClearFansOut(t *testing.T) {
	got, err := EncodeAttrs(delta.AttrMap{BlockKey: nil, "bold": true})
	if err != nil {
		t.Fatalf("EncodeAttrs: %v", err)
	}
	want := delta.AttrMap{"header": nil, "list": nil, "blockquote": nil, "code-block": nil, "bold": true}
	if !got.Equal(want) {
		t.Fatalf("encoded %v, want %v", got, want)
	}
}

func TestEncodeRejectsBadPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"not a string", true},
		{"not an array", `{"header":1}`},
		{"one element", `["header"]`},
		{"inline key", `["bold",true]`},
		{"bad level", `["header","x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeAttrs(delta.AttrMap{BlockKey: tt.payload}); !errors.Is(err, ErrBadAttr) {
				t.Fatalf("err = %v, want ErrBadAttr", err)
			}
		})
	}
}

func TestBlockPayloadRoundTrip(t *testing.T) {
	in := delta.AttrMap{"header": 1}
	dec, err := DecodeAttrs(in)
	if err != nil {
		t.Fatalf("DecodeAttrs: %v", err)
	}
	out, err := EncodeAttrs(dec)
	if err != nil {
		t.Fatalf("EncodeAttrs: %v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip %v -> %v -> %v", in, dec, out)
	}
}
