package ui

import (
	"github.com/mattn/go-runewidth"
)

// TruncateColumn fits text into a fixed display width, padding with spaces
// and ellipsizing overlong values. Width is measured in terminal cells so
// wide runes line up.
func TruncateColumn(text string, width int) string {
	if runewidth.StringWidth(text) > width {
		return runewidth.Truncate(text, width, "…")
	}
	return runewidth.FillRight(text, width)
}
