package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treegrid/pkg/export"
	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/model"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.help.View()
	}
	if m.showSortPicker {
		return m.sortPicker.View()
	}

	var sb strings.Builder
	sb.WriteString(m.renderTitle())
	sb.WriteString("\n")

	if len(m.snap.Columns) == 0 || len(m.snap.Rows) == 0 {
		sb.WriteString(m.renderEmptyState())
		sb.WriteString("\n")
		sb.WriteString(m.renderFooter())
		return sb.String()
	}

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		sb.WriteString(m.renderRow(i))
		sb.WriteString("\n")
	}
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model) renderTitle() string {
	r := m.theme.Renderer
	title := r.NewStyle().Foreground(m.theme.Primary).Bold(true).Render(m.title)
	counts := fmt.Sprintf("  %d rows · %d visible · %d selected",
		m.snap.Total, len(m.snap.Rows), len(m.snap.Selected))
	return title + r.NewStyle().Foreground(m.theme.Muted).Render(counts)
}

func (m Model) renderEmptyState() string {
	r := m.theme.Renderer
	muted := r.NewStyle().Foreground(m.theme.Muted)
	if len(m.snap.Columns) == 0 {
		return muted.Render("No columns configured. Add columns to .treegrid/config.yaml.")
	}
	return muted.Render("No rows to display.")
}

// renderHeader draws the select-all checkbox and the column titles with
// their sort indicators.
func (m Model) renderHeader() string {
	var state grid.CheckState
	switch sel := len(m.snap.Selected); {
	case sel > 0 && sel == m.snap.Total:
		state = grid.Checked
	case sel > 0:
		state = grid.Indeterminate
	}

	parts := []string{m.theme.Header.Render(export.Checkbox(state))}
	for i, col := range m.snap.Columns {
		text := col.Title
		if dir, priority, ok := grid.SortDirectionOf(m.snap.Sort, col.Field); ok {
			text += " " + sortIndicator(dir, priority, len(m.snap.Sort) > 1)
		}
		cell := padCell(text, columnWidth(col))
		if i == m.focusCol {
			parts = append(parts, m.theme.Focused.Render(cell))
		} else {
			parts = append(parts, m.theme.Header.Render(cell))
		}
	}
	return m.clip(strings.Join(parts, " "))
}

func (m Model) renderRow(i int) string {
	parts := []string{export.Checkbox(m.snap.States[i])}
	for col := range m.snap.Columns {
		// Nested level columns sit under the top-level header widths.
		parts = append(parts, padCell(m.snap.Cell(i, col), columnWidth(m.snap.Columns[col])))
	}
	line := m.clipPlain(strings.Join(parts, " "))

	switch {
	case i == m.cursor:
		return m.theme.Selected.Render(line)
	case m.snap.States[i] == grid.Checked:
		return m.theme.Checked.Render(line)
	case m.snap.Rows[i].Depth > 0:
		return m.theme.Renderer.NewStyle().Foreground(m.theme.Subtext).Render(line)
	}
	return m.theme.Base.Render(line)
}

func (m Model) renderFooter() string {
	r := m.theme.Renderer

	var left string
	switch {
	case m.reloadErr != nil:
		left = r.NewStyle().Foreground(m.theme.Error).Render("reload failed: " + m.reloadErr.Error())
	case m.status != "":
		left = r.NewStyle().Foreground(m.theme.Secondary).Render(m.status)
	}

	var keys []string
	for _, b := range m.keys.ShortHelp() {
		keys = append(keys, b.Help().Key+" "+b.Help().Desc)
	}
	right := r.NewStyle().Foreground(m.theme.Muted).Render(strings.Join(keys, " • "))

	if left == "" {
		return right
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// clip truncates a styled line to the terminal width.
func (m Model) clip(line string) string {
	if m.width <= 0 || lipgloss.Width(line) <= m.width {
		return line
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

// clipPlain truncates an unstyled line to the terminal width.
func (m Model) clipPlain(line string) string {
	if m.width <= 0 {
		return line
	}
	return runewidth.Truncate(line, m.width, "…")
}

// columnWidth is the configured width, or the title plus padding.
func columnWidth(c model.ColumnConfig) int {
	if c.Width > 0 {
		return c.Width
	}
	return runewidth.StringWidth(c.Title) + 2
}

// padCell fits s into exactly width cells.
func padCell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
