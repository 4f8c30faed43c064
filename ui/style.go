package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	HeaderStyle  = lipgloss.NewStyle().Bold(true)
)

// loaderColors follows the loaders' own branding.
var loaderColors = map[string]string{
	"forge":  "#dfa86a",
	"fabric": "#dbd0b4",
	"other":  "#8e8e8e",
	"none":   "#8e8e8e",
}

// Colorize renders text in the given lipgloss color ("205", "#ff00aa").
func Colorize(text, color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// Loader renders a loader name in its color. Unknown names are left plain.
func Loader(name string) string {
	color, ok := loaderColors[name]
	if !ok {
		return name
	}
	return Colorize(name, color)
}
