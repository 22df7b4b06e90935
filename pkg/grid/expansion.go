package grid

import (
	"sort"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// Expansion tracks which rows have their child section open.
// Only rows with at least one child are ever in the set.
type Expansion struct {
	store    *Store
	expanded map[int]struct{}
}

// NewExpansion returns an expansion state with every row collapsed.
func NewExpansion(store *Store) *Expansion {
	return &Expansion{
		store:    store,
		expanded: make(map[int]struct{}),
	}
}

// IsExpanded reports whether id is in the expanded set.
func (e *Expansion) IsExpanded(id int) bool {
	_, ok := e.expanded[id]
	return ok
}

// ShowDetail reports whether the surface should render the children of id.
func (e *Expansion) ShowDetail(id int) bool {
	return e.IsExpanded(id) && e.store.HasChildren(id)
}

// ToggleExpand flips id between expanded and collapsed. Descendants are not
// touched. Leaves and unknown ids are ignored.
func (e *Expansion) ToggleExpand(id int) {
	if e.IsExpanded(id) {
		delete(e.expanded, id)
		return
	}
	e.Expand(id)
}

// Expand opens id if it has children.
func (e *Expansion) Expand(id int) {
	if !e.store.HasChildren(id) {
		return
	}
	e.expanded[id] = struct{}{}
}

// Collapse closes id.
func (e *Expansion) Collapse(id int) {
	delete(e.expanded, id)
}

// ExpandAll replaces the set with every row, at any depth, that has children.
func (e *Expansion) ExpandAll() {
	next := make(map[int]struct{})
	e.store.Walk(func(row *model.Row, _ int) bool {
		if !row.IsLeaf() {
			next[row.ID] = struct{}{}
		}
		return true
	})
	e.expanded = next
}

// CollapseAll empties the set.
func (e *Expansion) CollapseAll() {
	e.expanded = make(map[int]struct{})
}

// Len returns the number of expanded rows.
func (e *Expansion) Len() int {
	return len(e.expanded)
}

// Expanded returns the expanded ids in ascending order.
func (e *Expansion) Expanded() []int {
	ids := make([]int, 0, len(e.expanded))
	for id := range e.expanded {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Restore replaces the set with ids, skipping stale ids and leaves.
func (e *Expansion) Restore(ids []int) {
	next := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if e.store.HasChildren(id) {
			next[id] = struct{}{}
		}
	}
	e.expanded = next
}

// Rebind moves the expansion state onto a freshly loaded store, keeping only
// ids that still have children.
func (e *Expansion) Rebind(store *Store) {
	e.store = store
	e.Restore(e.Expanded())
}
