// Package ui renders agent-term's terminal output: styled status lines,
// markdown for assistant messages, and syntax-highlighted tool results.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the UI
type Theme struct {
	Primary   lipgloss.Color // main accent color (run ids, highlights)
	Secondary lipgloss.Color // secondary accent (headers, borders)
	Success   lipgloss.Color // success states
	Error     lipgloss.Color // error states
	Warning   lipgloss.Color // warnings
	Muted     lipgloss.Color // dimmed/secondary text
	Text      lipgloss.Color // primary text
}

// DefaultTheme returns the default color theme (gruvbox)
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#b8bb26"), // gruvbox green
		Secondary: lipgloss.Color("#83a598"), // gruvbox aqua
		Success:   lipgloss.Color("#b8bb26"), // gruvbox green
		Error:     lipgloss.Color("#fb4934"), // gruvbox red
		Warning:   lipgloss.Color("#fabd2f"), // gruvbox yellow
		Muted:     lipgloss.Color("#928374"), // gruvbox gray
		Text:      lipgloss.Color("#ebdbb2"), // gruvbox foreground
	}
}

var theme = DefaultTheme()

var (
	successStyle = lipgloss.NewStyle().Foreground(theme.Success)
	errorStyle   = lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(theme.Warning)
	mutedStyle   = lipgloss.NewStyle().Foreground(theme.Muted)
	headerStyle  = lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	toolStyle    = lipgloss.NewStyle().Foreground(theme.Primary)
)

// Success renders text in the success color.
func Success(text string) string { return successStyle.Render(text) }

// Error renders text in the error color.
func Error(text string) string { return errorStyle.Render(text) }

// Warn renders text in the warning color.
func Warn(text string) string { return warnStyle.Render(text) }

// Muted renders dimmed text.
func Muted(text string) string { return mutedStyle.Render(text) }

// Header renders a section header.
func Header(text string) string { return headerStyle.Render(text) }

// Tool renders a tool name.
func Tool(text string) string { return toolStyle.Render(text) }
