package grid

import (
	"github.com/vanderheijden86/treegrid/pkg/model"
)

// Options configures a new Session.
type Options struct {
	// Columns is the top-level layout. The first column is pinned.
	Columns []model.ColumnConfig
	// Levels optionally gives nested depths their own read-only column set.
	Levels map[int][]model.ColumnConfig
	// Sort is the initial top-level ordering.
	Sort []model.SortDescriptor
}

// Session is the top-level grid component. It owns the row store, both state
// engines and the column layout, and turns surface intents into state
// changes. The surface re-reads IsSelected, IsExpanded, Columns and
// VisibleRows after every intent.
type Session struct {
	store     *Store
	selection *Selection
	expansion *Expansion
	layout    *ColumnLayout
	levels    map[int]ReadOnlyColumns
	sort      []model.SortDescriptor
	order     []*model.Row
}

// NewSession builds a session over roots. Rows flagged as expanded in the
// source data start expanded.
func NewSession(roots []*model.Row, opts Options) (*Session, error) {
	store, err := NewStore(roots)
	if err != nil {
		return nil, err
	}

	s := &Session{
		store:     store,
		selection: NewSelection(store),
		expansion: NewExpansion(store),
		layout:    NewColumnLayout(opts.Columns),
		levels:    make(map[int]ReadOnlyColumns),
	}
	for depth, cols := range opts.Levels {
		if depth > 0 && len(cols) > 0 {
			s.levels[depth] = NewColumnLayout(cols).View()
		}
	}
	s.seedExpansion()
	s.OnSortChange(opts.Sort)
	return s, nil
}

func (s *Session) seedExpansion() {
	s.store.Walk(func(row *model.Row, _ int) bool {
		if row.Expanded {
			s.expansion.Expand(row.ID)
		}
		return true
	})
}

// Reload swaps in a new row tree, keeping selection and expansion for ids
// that survive.
func (s *Session) Reload(roots []*model.Row) error {
	store, err := NewStore(roots)
	if err != nil {
		return err
	}
	s.store = store
	s.selection.Rebind(store)
	s.expansion.Rebind(store)
	s.OnSortChange(s.sort)
	return nil
}

// OnRowToggle handles a row checkbox change.
func (s *Session) OnRowToggle(id int, checked bool) {
	s.selection.Toggle(id, checked)
}

// OnToggleAll handles the header select-all checkbox.
func (s *Session) OnToggleAll(checked bool) {
	s.selection.ToggleAll(checked)
}

// OnRowExpandToggle handles a click on a row's expand affordance.
func (s *Session) OnRowExpandToggle(id int) {
	s.expansion.ToggleExpand(id)
}

// OnExpandAll handles the header expand-all button.
func (s *Session) OnExpandAll() {
	s.expansion.ExpandAll()
}

// OnCollapseAll handles the header collapse-all button.
func (s *Session) OnCollapseAll() {
	s.expansion.CollapseAll()
}

// OnColumnReorder handles a column drag. It returns false when the drop was
// rejected and the surface should snap the column back.
func (s *Session) OnColumnReorder(title string, from, to int) bool {
	return s.layout.Reorder(title, from, to)
}

// OnColumnResize handles a column resize.
func (s *Session) OnColumnResize(title string, width int) bool {
	return s.layout.Resize(title, width)
}

// OnSortChange replaces the sort descriptors and reorders the top-level rows.
// Ordering always starts from load order, so an empty list restores it.
func (s *Session) OnSortChange(descs []model.SortDescriptor) {
	s.sort = append([]model.SortDescriptor(nil), descs...)
	s.order = OrderBy(s.store.Roots(), s.sort)
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id int) bool {
	return s.selection.IsSelected(id)
}

// IsExpanded reports whether id is expanded.
func (s *Session) IsExpanded(id int) bool {
	return s.expansion.IsExpanded(id)
}

// ShowDetail reports whether the children of id are rendered.
func (s *Session) ShowDetail(id int) bool {
	return s.expansion.ShowDetail(id)
}

// Columns returns the current top-level column order.
func (s *Session) Columns() []model.ColumnConfig {
	return s.layout.Columns()
}

// Layout returns the top-level column layout.
func (s *Session) Layout() *ColumnLayout {
	return s.layout
}

// LevelColumns returns the read-only column set for a nesting depth. Depths
// without their own set share the top-level columns.
func (s *Session) LevelColumns(depth int) ReadOnlyColumns {
	if cols, ok := s.levels[depth]; ok {
		return cols
	}
	return s.layout.View()
}

// TopLevel returns the top-level rows in current sort order.
func (s *Session) TopLevel() []*model.Row {
	out := make([]*model.Row, len(s.order))
	copy(out, s.order)
	return out
}

// Sort returns the current sort descriptors.
func (s *Session) Sort() []model.SortDescriptor {
	return append([]model.SortDescriptor(nil), s.sort...)
}

// VisibleRows returns the rows to draw, honoring sort order and expansion.
func (s *Session) VisibleRows() []VisibleRow {
	return Flatten(s.order, s.expansion)
}

// Store returns the current row store.
func (s *Session) Store() *Store {
	return s.store
}

// Selection returns the selection engine.
func (s *Session) Selection() *Selection {
	return s.selection
}

// Expansion returns the expansion engine.
func (s *Session) Expansion() *Expansion {
	return s.expansion
}
