package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/stickies/internal/models"
)

// Theme defines the colors used by the board.
type Theme struct {
	Info    lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color

	Text     lipgloss.Color
	Muted    lipgloss.Color
	Selected lipgloss.Color
	Header   lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	Info:     lipgloss.Color("#5fafff"),
	Warning:  lipgloss.Color("#ffd75f"),
	Error:    lipgloss.Color("#ff5f5f"),
	Success:  lipgloss.Color("#87d787"),
	Text:     lipgloss.Color("#e4e4e4"),
	Muted:    lipgloss.Color("#767676"),
	Selected: lipgloss.Color("#ff87ff"),
	Header:   lipgloss.Color("#303030"),
}

// SeverityColor returns the accent color for sev.
func (t Theme) SeverityColor(sev models.Severity) lipgloss.Color {
	switch sev {
	case models.SeverityWarning:
		return t.Warning
	case models.SeverityError:
		return t.Error
	case models.SeveritySuccess:
		return t.Success
	}
	return t.Info
}
