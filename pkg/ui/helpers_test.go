package ui

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/model"
)

func newTestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(io.Discard))
}

func row(id int, name string, age int, children ...*model.Row) *model.Row {
	return &model.Row{ID: id, Fields: model.Fields{"name": name, "age": age}, Children: children}
}

// testRows is the tree
//
//	P1 (1)
//	├── C1 (11)
//	│   ├── GC1 (111)
//	│   └── GC2 (112)
//	└── C2 (12)
//	P2 (2)
//	├── C1 (21)
//	└── C2 (22)
func testRows() []*model.Row {
	return []*model.Row{
		row(1, "P1", 20,
			row(11, "P1 -> C1", 21,
				row(111, "P1 -> C1 -> GC1", 21),
				row(112, "P1 -> C1 -> GC2", 22),
			),
			row(12, "P1 -> C2", 22),
		),
		row(2, "P2", 22,
			row(21, "P2 -> C1", 22),
			row(22, "P2 -> C2", 24),
		),
	}
}

func testColumns() []model.ColumnConfig {
	return []model.ColumnConfig{
		{Field: "id", Title: "ID", Width: 14},
		{Field: "name", Title: "Name", Width: 20},
		{Field: "age", Title: "Age", Width: 6, Format: "n0"},
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	return newTestModelWith(t, testColumns())
}

func newTestModelWith(t *testing.T, cols []model.ColumnConfig) Model {
	t.Helper()
	s, err := grid.NewSession(testRows(), grid.Options{Columns: cols})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	m := NewModel(s, newTestTheme())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// press feeds key presses through Update.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func visibleIDs(m Model) []int {
	ids := make([]int, len(m.snap.Rows))
	for i, r := range m.snap.Rows {
		ids[i] = r.Row.ID
	}
	return ids
}

func cursorID(t *testing.T, m Model) int {
	t.Helper()
	id, ok := m.currentID()
	if !ok {
		t.Fatal("no row under the cursor")
	}
	return id
}

func columnTitles(m Model) []string {
	cols := m.session.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Title
	}
	return out
}
