// Package styles provides shared lipgloss styles for console output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/sysmedic/internal/core/task"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultPalette is the built-in theme.
var DefaultPalette = Palette{
	Primary:    lipgloss.Color("#7aa2f7"),
	Secondary:  lipgloss.Color("#7dcfff"),
	Foreground: lipgloss.Color("#c0caf5"),
	Muted:      lipgloss.Color("#565f89"),
	Success:    lipgloss.Color("#9ece6a"),
	Warning:    lipgloss.Color("#e0af68"),
	Error:      lipgloss.Color("#f7768e"),
}

// Style exports.
var (
	HeaderStyle   lipgloss.Style
	SummaryStyle  lipgloss.Style
	CommandStyle  lipgloss.Style
	OutputStyle   lipgloss.Style
	NoteStyle     lipgloss.Style
	DividerStyle  lipgloss.Style
	PromptStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	SuccessStyle  lipgloss.Style
	WarningStyle  lipgloss.Style

	statusStyles map[task.State]lipgloss.Style
)

// Status markers shown next to each worklist entry.
var statusMarkers = map[task.State]string{
	task.StateProposed: "·",
	task.StateReady:    "›",
	task.StateBlocked:  "✗",
	task.StateRunning:  "»",
	task.StateComplete: "✓",
}

// SetPalette rebuilds all global styles from a palette.
func SetPalette(p Palette) {
	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	SummaryStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	CommandStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	OutputStyle = lipgloss.NewStyle().Foreground(p.Muted)
	NoteStyle = lipgloss.NewStyle().Foreground(p.Secondary).Italic(true)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Muted)
	PromptStyle = lipgloss.NewStyle().Foreground(p.Primary)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)

	statusStyles = map[task.State]lipgloss.Style{
		task.StateProposed: lipgloss.NewStyle().Foreground(p.Muted),
		task.StateReady:    lipgloss.NewStyle().Foreground(p.Secondary),
		task.StateBlocked:  lipgloss.NewStyle().Foreground(p.Error),
		task.StateRunning:  lipgloss.NewStyle().Foreground(p.Warning),
		task.StateComplete: lipgloss.NewStyle().Foreground(p.Success),
	}
}

// StatusStyle returns the style for a task state.
func StatusStyle(s task.State) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return SummaryStyle
}

// StatusMarker returns the one-rune marker for a task state.
func StatusMarker(s task.State) string {
	if m, ok := statusMarkers[s]; ok {
		return m
	}
	return "?"
}

// nolint:gochecknoinits // bootstrap default palette before any style is accessed.
func init() {
	SetPalette(DefaultPalette)
}
