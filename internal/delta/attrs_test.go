package delta

import "testing"

func TestAttrMapEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b AttrMap
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs empty", nil, AttrMap{}, true},
		{"same values", AttrMap{"bold": true}, AttrMap{"bold": true}, true},
		{"int vs float64", AttrMap{"header": 1}, AttrMap{"header": float64(1)}, true},
		{"different value", AttrMap{"bold": true}, AttrMap{"bold": false}, false},
		{"missing key", AttrMap{"bold": true}, AttrMap{"italic": true}, false},
		{"extra key", AttrMap{"bold": true}, AttrMap{"bold": true, "italic": true}, false},
		{"nil value matches nil value", AttrMap{"bold": nil}, AttrMap{"bold": nil}, true},
		{"nil value vs set value", AttrMap{"bold": nil}, AttrMap{"bold": true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestComposeAttrs(t *testing.T) {
	tests := []struct {
		name    string
		base    AttrMap
		applied AttrMap
		keepNil bool
		want    AttrMap
	}{
		{"applied wins", AttrMap{"bold": true}, AttrMap{"bold": false}, false, AttrMap{"bold": false}},
		{"base carries through", AttrMap{"bold": true}, AttrMap{"italic": true}, false, AttrMap{"bold": true, "italic": true}},
		{"nil clears without keepNil", AttrMap{"bold": true}, AttrMap{"bold": nil}, false, nil},
		{"nil survives with keepNil", nil, AttrMap{"bold": nil}, true, AttrMap{"bold": nil}},
		{"empty result is nil", nil, nil, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeAttrs(tt.base, tt.applied, tt.keepNil)
			if !got.Equal(tt.want) {
				t.Errorf("ComposeAttrs(%v, %v, %v) = %v, want %v", tt.base, tt.applied, tt.keepNil, got, tt.want)
			}
		})
	}
}

func TestDiffAttrs(t *testing.T) {
	tests := []struct {
		name   string
		base   AttrMap
		target AttrMap
		want   AttrMap
	}{
		{"no change", AttrMap{"bold": true}, AttrMap{"bold": true}, nil},
		{"added key", nil, AttrMap{"bold": true}, AttrMap{"bold": true}},
		{"removed key", AttrMap{"bold": true}, nil, AttrMap{"bold": nil}},
		{"changed value", AttrMap{"header": 1}, AttrMap{"header": 2}, AttrMap{"header": 2}},
		{"numeric tolerance", AttrMap{"header": 1}, AttrMap{"header": float64(1)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffAttrs(tt.base, tt.target)
			if !got.Equal(tt.want) {
				t.Errorf("DiffAttrs(%v, %v) = %v, want %v", tt.base, tt.target, got, tt.want)
			}
		})
	}
}
