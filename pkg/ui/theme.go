// Package ui provides the terminal user interface for treegrid.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors and base styles shared by every view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style // cursor row
	Checked  lipgloss.Style // selected (checkbox) rows
	Header   lipgloss.Style
	Focused  lipgloss.Style // focused column header
}

// DefaultTheme returns the Dracula-flavored theme used by the grid.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#F1FA8C"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6272A4"},
		Highlight: lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#8BE9FD"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"},
		Error:     lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5555"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E4E4E4", Dark: "#44475A"}).
		Bold(true)
	t.Checked = r.NewStyle().Foreground(t.Highlight)
	t.Header = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Focused = r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Background(t.Primary).
		Bold(true)

	return t
}
