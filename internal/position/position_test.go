package position

import "testing"

func TestPositionIsZero(t *testing.T) {
	if !(Position{}).IsZero() {
		t.Error("empty position must be zero")
	}
	if (Position{Bunch: "alice_1", Index: 0}).IsZero() {
		t.Error("addressed position must not be zero")
	}
}

func TestPositionString(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{Position{}, "<start>"},
		{Position{Bunch: "alice_1", Index: 0}, "alice_1[0]"},
		{Position{Bunch: "root", Index: 4}, "root[4]"},
	}

	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.want {
			t.Errorf("String(%v) = %q, want %q", tt.pos, got, tt.want)
		}
	}
}
