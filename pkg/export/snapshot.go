// Package export renders grid snapshots to Markdown and SVG.
package export

import (
	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/model"
)

// Snapshot is a frozen copy of what the grid shows.
type Snapshot struct {
	Title    string
	Columns  []model.ColumnConfig
	Rows     []grid.VisibleRow
	Prefixes []string          // tree guides, parallel to Rows
	States   []grid.CheckState // checkbox state, parallel to Rows
	Selected []int
	Expanded []int
	Sort     []model.SortDescriptor
	Total    int // rows in the whole tree

	levels map[int][]model.ColumnConfig
}

// NewSnapshot captures the current state of s.
func NewSnapshot(s *grid.Session, title string) Snapshot {
	rows := s.VisibleRows()
	snap := Snapshot{
		Title:    title,
		Columns:  s.Columns(),
		Rows:     rows,
		Prefixes: grid.TreePrefixes(rows),
		States:   make([]grid.CheckState, len(rows)),
		Selected: s.Selection().Selected(),
		Expanded: s.Expansion().Expanded(),
		Sort:     s.Sort(),
		Total:    s.Store().Len(),
		levels:   make(map[int][]model.ColumnConfig),
	}
	for i, r := range rows {
		snap.States[i] = s.Selection().State(r.Row.ID)
		if r.Depth > 0 {
			if _, ok := snap.levels[r.Depth]; !ok {
				snap.levels[r.Depth] = s.LevelColumns(r.Depth).Columns()
			}
		}
	}
	return snap
}

// ColumnsAt returns the columns that describe rows at depth. Cells are laid
// out positionally under the top-level header.
func (s Snapshot) ColumnsAt(depth int) []model.ColumnConfig {
	if cols, ok := s.levels[depth]; ok {
		return cols
	}
	return s.Columns
}

// Cell returns the formatted text for column position col of row i. The
// first column carries the tree guide and expand glyph.
func (s Snapshot) Cell(i, col int) string {
	r := s.Rows[i]
	cols := s.ColumnsAt(r.Depth)
	text := ""
	if col < len(cols) {
		text = grid.FormatValue(cols[col], r.Row.Value(cols[col].Field))
	}
	if col == 0 {
		prefix := ""
		if i < len(s.Prefixes) {
			prefix = s.Prefixes[i]
		}
		text = prefix + grid.ExpandGlyph(r) + text
	}
	return text
}

// Checkbox renders a check state as a task-list style box.
func Checkbox(state grid.CheckState) string {
	switch state {
	case grid.Checked:
		return "[x]"
	case grid.Indeterminate:
		return "[-]"
	}
	return "[ ]"
}
