package grid

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// SelectColumnOffset is the number of surface columns ahead of the layout:
// the selection checkbox column sits at surface index 0.
const SelectColumnOffset = 1

// MinReorderIndex is the smallest surface index a column may be moved to.
// Surface index 1 holds the pinned id column.
const MinReorderIndex = 2

var (
	// ErrInvalidReorderTarget is returned for moves onto or before the pinned column.
	ErrInvalidReorderTarget = errors.New("invalid reorder target")
	// ErrColumnNotFound is returned when no column carries the requested title.
	ErrColumnNotFound = errors.New("column not found")
	// ErrColumnLocked is returned when the column forbids the change.
	ErrColumnLocked = errors.New("column is locked")
)

// ColumnLayout is the ordered column configuration of the top-level grid.
type ColumnLayout struct {
	columns []model.ColumnConfig
}

// NewColumnLayout copies columns into a new layout.
func NewColumnLayout(columns []model.ColumnConfig) *ColumnLayout {
	l := &ColumnLayout{columns: make([]model.ColumnConfig, len(columns))}
	copy(l.columns, columns)
	return l
}

// Columns returns a copy of the current column order.
func (l *ColumnLayout) Columns() []model.ColumnConfig {
	out := make([]model.ColumnConfig, len(l.columns))
	copy(out, l.columns)
	return out
}

// Len returns the number of columns.
func (l *ColumnLayout) Len() int {
	return len(l.columns)
}

// Column returns the first column with the given title.
func (l *ColumnLayout) Column(title string) (model.ColumnConfig, bool) {
	if i := l.indexOf(title); i >= 0 {
		return l.columns[i], true
	}
	return model.ColumnConfig{}, false
}

func (l *ColumnLayout) indexOf(title string) int {
	for i, c := range l.columns {
		if c.Title == title {
			return i
		}
	}
	return -1
}

// CheckReorder reports why moving title from surface index from to surface
// index to would be rejected, or nil if the move is allowed.
func (l *ColumnLayout) CheckReorder(title string, from, to int) error {
	if to < MinReorderIndex || to-SelectColumnOffset >= len(l.columns) {
		return fmt.Errorf("%w: %d", ErrInvalidReorderTarget, to)
	}
	src := from - SelectColumnOffset
	if src < 0 || src >= len(l.columns) || l.columns[src].Title != title {
		return fmt.Errorf("%w: %q at index %d", ErrColumnNotFound, title, from)
	}
	if src == 0 {
		return fmt.Errorf("%w: %q is pinned", ErrColumnLocked, title)
	}
	if !l.columns[src].CanReorder() {
		return fmt.Errorf("%w: %q is not reorderable", ErrColumnLocked, title)
	}
	return nil
}

// Reorder moves the column at surface index from to surface index to,
// keeping the relative order of every other column. Moves onto or before
// the pinned column, stale indices and locked columns leave the layout
// unchanged. The return value reports whether the move was applied so the
// surface can cancel the drag.
func (l *ColumnLayout) Reorder(title string, from, to int) bool {
	if err := l.CheckReorder(title, from, to); err != nil {
		return false
	}
	src, dst := from-SelectColumnOffset, to-SelectColumnOffset
	if src == dst {
		return true
	}
	col := l.columns[src]
	l.columns = append(l.columns[:src], l.columns[src+1:]...)
	l.columns = append(l.columns[:dst], append([]model.ColumnConfig{col}, l.columns[dst:]...)...)
	return true
}

// CheckResize reports why resizing title would be rejected, or nil.
func (l *ColumnLayout) CheckResize(title string) error {
	i := l.indexOf(title)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, title)
	}
	if !l.columns[i].CanResize() {
		return fmt.Errorf("%w: %q is not resizable", ErrColumnLocked, title)
	}
	return nil
}

// Resize sets the width of the first column with the given title, bounded by
// its min/max width. Unknown titles and fixed-width columns are ignored.
func (l *ColumnLayout) Resize(title string, width int) bool {
	if err := l.CheckResize(title); err != nil {
		return false
	}
	i := l.indexOf(title)
	l.columns[i].Width = l.columns[i].ClampWidth(width)
	return true
}

// ReadOnlyColumns is a column list handed to nested levels. It exposes no
// mutators.
type ReadOnlyColumns struct {
	columns []model.ColumnConfig
}

// Columns returns a copy of the columns.
func (r ReadOnlyColumns) Columns() []model.ColumnConfig {
	out := make([]model.ColumnConfig, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of columns.
func (r ReadOnlyColumns) Len() int {
	return len(r.columns)
}

// View returns a read-only snapshot of the layout.
func (l *ColumnLayout) View() ReadOnlyColumns {
	return ReadOnlyColumns{columns: l.Columns()}
}
