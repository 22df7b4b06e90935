package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/model"
)

// SortPickerModel is a modal for editing the multi-column sort.
type SortPickerModel struct {
	columns       []model.ColumnConfig
	sort          []model.SortDescriptor
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewSortPickerModel creates a picker over columns.
func NewSortPickerModel(columns []model.ColumnConfig, sort []model.SortDescriptor, theme Theme) SortPickerModel {
	return SortPickerModel{
		columns: append([]model.ColumnConfig(nil), columns...),
		sort:    append([]model.SortDescriptor(nil), sort...),
		theme:   theme,
	}
}

// SetSize updates the picker dimensions
func (m *SortPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves selection up
func (m *SortPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *SortPickerModel) MoveDown() {
	if m.selectedIndex < len(m.columns)-1 {
		m.selectedIndex++
	}
}

// SelectedField returns the field of the highlighted column.
func (m *SortPickerModel) SelectedField() string {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.columns) {
		return m.columns[m.selectedIndex].Field
	}
	return ""
}

// Cycle advances the highlighted column through desc, asc and unsorted.
func (m *SortPickerModel) Cycle() {
	if field := m.SelectedField(); field != "" {
		m.sort = grid.CycleSort(m.sort, field)
	}
}

// Clear removes every sort descriptor.
func (m *SortPickerModel) Clear() {
	m.sort = nil
}

// Sort returns the edited descriptors.
func (m *SortPickerModel) Sort() []model.SortDescriptor {
	return append([]model.SortDescriptor(nil), m.sort...)
}

// View renders the sort picker overlay
func (m *SortPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme

	boxWidth := 50
	if m.width < 60 {
		boxWidth = m.width - 10
	}
	if boxWidth < 25 {
		boxWidth = 25
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)
	lines = append(lines, titleStyle.Render("Sort"))
	lines = append(lines, "")

	if len(m.columns) == 0 {
		lines = append(lines, t.Renderer.NewStyle().Foreground(t.Muted).Render("No columns"))
	}

	for i, col := range m.columns {
		isSelected := i == m.selectedIndex

		itemStyle := t.Renderer.NewStyle()
		if isSelected {
			itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
		} else {
			itemStyle = itemStyle.Foreground(t.Base.GetForeground())
		}

		prefix := "  "
		if isSelected {
			prefix = "> "
		}

		suffix := ""
		if dir, priority, ok := grid.SortDirectionOf(m.sort, col.Field); ok {
			dirStyle := t.Renderer.NewStyle().Foreground(t.Secondary)
			suffix = " " + dirStyle.Render(sortIndicator(dir, priority, len(m.sort) > 1))
		}

		lines = append(lines, itemStyle.Render(prefix+col.Title)+suffix)
	}

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("j/k move | enter cycle | x clear | esc close"))

	content := strings.Join(lines, "\n")

	boxStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(content),
	)
}

// sortIndicator renders a direction arrow, numbered when several columns
// take part in the sort.
func sortIndicator(dir model.SortDirection, priority int, numbered bool) string {
	arrow := "▲"
	if dir == model.SortDesc {
		arrow = "▼"
	}
	if numbered {
		return fmt.Sprintf("%s%d", arrow, priority)
	}
	return arrow
}
