package ui

import "testing"

func TestTruncateColumn(t *testing.T) {
	cases := []struct {
		text  string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 5, "abcd…"},
		{"abcde", 5, "abcde"},
		{"", 3, "   "},
	}
	for _, tc := range cases {
		if got := TruncateColumn(tc.text, tc.width); got != tc.want {
			t.Errorf("TruncateColumn(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
		}
	}
}

func TestRenderMarkdownFallsBackOnRaw(t *testing.T) {
	out := RenderMarkdown("plain text", 80)
	if out == "" {
		t.Error("empty render output")
	}
}

func TestHighlightUnknownLanguage(t *testing.T) {
	out := Highlight("some text", "definitely-not-a-language")
	if out == "" {
		t.Error("empty highlight output")
	}
}
