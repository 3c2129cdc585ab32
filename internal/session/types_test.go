package session

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 32 {
		t.Errorf("id length = %d, want 32", len(a))
	}
	if a == b {
		t.Error("ids not unique")
	}
}

func TestTruncateSummary(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{"  padded  ", "padded"},
		{"first line\nsecond line", "first line"},
		{strings.Repeat("a", 150), strings.Repeat("a", 97) + "..."},
	}
	for _, tc := range cases {
		if got := TruncateSummary(tc.in); got != tc.want {
			t.Errorf("TruncateSummary(%.20q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
