// tree.go - cursor movement, expand/collapse and expansion persistence
package ui

import (
	"log"

	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/loader"
)

// saveState persists the expanded ids. Errors are logged but do not
// interrupt the user.
func (m *Model) saveState() {
	if m.stateDir == "" {
		return
	}
	if m.projectRoot != "" && !m.ignoreChecked {
		m.ignoreChecked = true
		if err := loader.EnsureStateDirIgnored(m.projectRoot); err != nil {
			log.Printf("warning: failed to update .gitignore in %s: %v", m.projectRoot, err)
		}
	}
	path := TreeStatePath(m.stateDir)
	if err := SaveTreeState(path, m.session.Expansion().Expanded()); err != nil {
		log.Printf("warning: failed to write tree state to %s: %v", path, err)
	}
}

// SelectedRow returns the row under the cursor.
func (m *Model) SelectedRow() (grid.VisibleRow, bool) {
	if m.cursor >= 0 && m.cursor < len(m.snap.Rows) {
		return m.snap.Rows[m.cursor], true
	}
	return grid.VisibleRow{}, false
}

func (m *Model) currentID() (int, bool) {
	r, ok := m.SelectedRow()
	if !ok {
		return 0, false
	}
	return r.Row.ID, true
}

// SelectByID moves the cursor to the visible row with id.
func (m *Model) SelectByID(id int) bool {
	for i, r := range m.snap.Rows {
		if r.Row.ID == id {
			m.cursor = i
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one row.
func (m *Model) MoveDown() {
	if m.cursor < len(m.snap.Rows)-1 {
		m.cursor++
	}
	m.ensureCursorVisible()
}

// MoveUp moves the cursor up one row.
func (m *Model) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
	m.ensureCursorVisible()
}

// PageDown moves the cursor down by half a page.
func (m *Model) PageDown() {
	m.cursor += m.pageSize()
	m.clampCursor()
}

// PageUp moves the cursor up by half a page.
func (m *Model) PageUp() {
	m.cursor -= m.pageSize()
	m.clampCursor()
}

// JumpToTop moves the cursor to the first row.
func (m *Model) JumpToTop() {
	m.cursor = 0
	m.ensureCursorVisible()
}

// JumpToBottom moves the cursor to the last row.
func (m *Model) JumpToBottom() {
	m.cursor = len(m.snap.Rows) - 1
	m.clampCursor()
}

// JumpToParent moves the cursor to the parent of the current row.
func (m *Model) JumpToParent() {
	r, ok := m.SelectedRow()
	if !ok {
		return
	}
	if parent, ok := m.session.Store().ParentOf(r.Row.ID); ok {
		m.SelectByID(parent.ID)
		m.ensureCursorVisible()
	}
}

// ToggleSelected flips the checkbox of the current row.
func (m *Model) ToggleSelected() {
	r, ok := m.SelectedRow()
	if !ok {
		return
	}
	m.session.OnRowToggle(r.Row.ID, !m.session.IsSelected(r.Row.ID))
	m.refresh()
}

// ToggleAll selects every row, or clears the selection when every row is
// already selected.
func (m *Model) ToggleAll() {
	all := m.session.Selection().Len() == m.session.Store().Len()
	m.session.OnToggleAll(!all)
	m.refresh()
}

// ToggleExpand expands or collapses the current row.
func (m *Model) ToggleExpand() {
	r, ok := m.SelectedRow()
	if !ok || !r.HasChildren {
		return
	}
	m.session.OnRowExpandToggle(r.Row.ID)
	m.refresh()
	m.saveState()
}

// ExpandOrMoveToChild expands a collapsed parent, or moves to the first
// child of an expanded one. Leaves do nothing.
func (m *Model) ExpandOrMoveToChild() {
	r, ok := m.SelectedRow()
	if !ok || !r.HasChildren {
		return
	}
	if !r.Expanded {
		m.ToggleExpand()
		return
	}
	m.MoveDown()
}

// CollapseOrJumpToParent collapses an expanded parent, or jumps to the
// parent of anything else.
func (m *Model) CollapseOrJumpToParent() {
	r, ok := m.SelectedRow()
	if !ok {
		return
	}
	if r.HasChildren && r.Expanded {
		m.ToggleExpand()
		return
	}
	m.JumpToParent()
}

// ExpandAll expands every parent row.
func (m *Model) ExpandAll() {
	m.session.OnExpandAll()
	m.refresh()
	m.saveState()
}

// CollapseAll collapses every row.
func (m *Model) CollapseAll() {
	m.session.OnCollapseAll()
	m.refresh()
	m.saveState()
}

// bodyHeight is the number of grid rows that fit on screen: the title,
// header and footer lines take three.
func (m *Model) bodyHeight() int {
	h := m.height - 3
	if m.height <= 0 {
		h = 20
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) pageSize() int {
	if p := m.bodyHeight() / 2; p > 0 {
		return p
	}
	return 1
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snap.Rows) {
		m.cursor = len(m.snap.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

// ensureCursorVisible scrolls so the cursor row is inside the viewport.
func (m *Model) ensureCursorVisible() {
	h := m.bodyHeight()
	if m.cursor < m.viewportOffset {
		m.viewportOffset = m.cursor
	}
	if m.cursor >= m.viewportOffset+h {
		m.viewportOffset = m.cursor - h + 1
	}
	if m.viewportOffset < 0 {
		m.viewportOffset = 0
	}
}

// visibleRange returns the [start, end) slice of rows to render.
func (m *Model) visibleRange() (start, end int) {
	n := len(m.snap.Rows)
	if n == 0 {
		return 0, 0
	}

	visibleCount := m.bodyHeight()
	start = m.viewportOffset
	end = start + visibleCount

	if end > n {
		end = n
		start = end - visibleCount
		if start < 0 {
			start = 0
		}
	}
	if start > n {
		start = n
	}
	return start, end
}
