package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the scrollable keyboard reference overlay.
type HelpModel struct {
	viewport viewport.Model
	theme    Theme
	width    int
	height   int
}

// NewHelpModel creates the help overlay.
func NewHelpModel(theme Theme) HelpModel {
	h := HelpModel{theme: theme}
	h.SetSize(80, 24)
	return h
}

// SetSize resizes the overlay and re-renders its content for the new width.
func (h *HelpModel) SetSize(width, height int) {
	h.width = width
	h.height = height

	modalWidth := helpModalWidth(width)
	contentWidth := modalWidth - 6 // border + padding
	if contentWidth < 20 {
		contentWidth = 20
	}
	contentHeight := height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	h.viewport = viewport.New(contentWidth, contentHeight)
	h.viewport.SetContent(renderHelpMarkdown(helpContent, contentWidth))
}

// Update scrolls the help text.
func (h HelpModel) Update(msg tea.Msg) (HelpModel, tea.Cmd) {
	var cmd tea.Cmd
	h.viewport, cmd = h.viewport.Update(msg)
	return h, cmd
}

// View renders the help modal centered in the screen.
func (h HelpModel) View() string {
	r := h.theme.Renderer
	modalWidth := helpModalWidth(h.width)

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(h.theme.Primary)
	footerStyle := r.NewStyle().
		Foreground(h.theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keyboard Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(h.theme.Border).Render(strings.Repeat("─", modalWidth-6)))
	b.WriteString("\n")
	b.WriteString(h.viewport.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("j/k scroll │ ? or esc to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.theme.Secondary).
		Padding(0, 2).
		Width(modalWidth)

	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, modalStyle.Render(b.String()))
}

func helpModalWidth(width int) int {
	w := 64
	if w > width-4 {
		w = width - 4
	}
	if w < 30 {
		w = 30
	}
	return w
}

// renderHelpMarkdown renders md with glamour, falling back to the raw text.
func renderHelpMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

const helpContent = `## Rows

| Key | Action |
|---|---|
| j / k | Move down / up |
| g / G | Jump to top / bottom |
| space | Select row and its descendants |
| a | Select or clear every row |
| enter / l | Expand, or move to first child |
| h | Collapse, or jump to parent |
| E / C | Expand all / collapse all |

## Columns

| Key | Action |
|---|---|
| tab / shift+tab | Focus next / previous column |
| < / > | Move focused column |
| + / - | Widen / narrow focused column |
| s | Cycle sort: descending, ascending, off |
| S | Open the sort picker |

## Other

| Key | Action |
|---|---|
| y | Copy selected ids |
| r | Reload data files |
| ? | Toggle this help |
| q | Quit |

The id column is pinned and always stays first. Sorting reorders
top-level rows only; children keep their source order.`
