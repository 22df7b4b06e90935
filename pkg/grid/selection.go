package grid

import (
	"sort"
)

// CheckState is the tri-state shown by a row checkbox.
type CheckState int

const (
	Unchecked CheckState = iota
	Checked
	Indeterminate // some, but not all, descendants are selected
)

// Selection maintains the selected-id set.
//
// After every call that mutates it, a row with children is selected if and
// only if every one of its immediate children is selected.
type Selection struct {
	store    *Store
	selected map[int]struct{}
}

// NewSelection returns an empty selection over store.
func NewSelection(store *Store) *Selection {
	return &Selection{
		store:    store,
		selected: make(map[int]struct{}),
	}
}

// IsSelected reports whether id is in the selected set.
func (s *Selection) IsSelected(id int) bool {
	_, ok := s.selected[id]
	return ok
}

// Len returns the number of selected rows.
func (s *Selection) Len() int {
	return len(s.selected)
}

// Selected returns the selected ids in ascending order.
func (s *Selection) Selected() []int {
	ids := make([]int, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Toggle checks or unchecks id and cascades the change.
//
// Checking a row selects every descendant, then promotes each ancestor whose
// immediate children are now all selected. Unchecking a row deselects every
// descendant and every selected ancestor. Unknown ids and rows already in the
// requested state are left alone.
func (s *Selection) Toggle(id int, checked bool) {
	if _, ok := s.store.Find(id); !ok {
		return
	}
	if checked == s.IsSelected(id) {
		return
	}

	if checked {
		s.selected[id] = struct{}{}
		for _, d := range s.store.Descendants(id) {
			s.selected[d.ID] = struct{}{}
		}
		s.promoteAncestors(id)
		return
	}

	delete(s.selected, id)
	for _, d := range s.store.Descendants(id) {
		delete(s.selected, d.ID)
	}
	for p, ok := s.store.ParentOf(id); ok && s.IsSelected(p.ID); p, ok = s.store.ParentOf(p.ID) {
		delete(s.selected, p.ID)
	}
}

// promoteAncestors walks up from id selecting each parent whose immediate
// children are all selected. It stops at the first parent that is not
// complete.
func (s *Selection) promoteAncestors(id int) {
	for p, ok := s.store.ParentOf(id); ok; p, ok = s.store.ParentOf(p.ID) {
		if !s.allChildrenSelected(p.ID) {
			return
		}
		s.selected[p.ID] = struct{}{}
	}
}

func (s *Selection) allChildrenSelected(id int) bool {
	children := s.store.ChildrenOf(id)
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if !s.IsSelected(c.ID) {
			return false
		}
	}
	return true
}

// ToggleAll checks or unchecks every root, which cascades to the whole tree.
func (s *Selection) ToggleAll(checked bool) {
	for _, r := range s.store.Roots() {
		s.Toggle(r.ID, checked)
	}
}

// State returns the checkbox state for id. A row is indeterminate when it is
// not selected but at least one of its descendants is.
func (s *Selection) State(id int) CheckState {
	if s.IsSelected(id) {
		return Checked
	}
	for _, d := range s.store.Descendants(id) {
		if s.IsSelected(d.ID) {
			return Indeterminate
		}
	}
	return Unchecked
}

// Rebind moves the selection onto a freshly loaded store. Ids that no longer
// exist are dropped and the parent rule is re-established bottom-up, so a
// parent that gained an unselected child is deselected.
func (s *Selection) Rebind(store *Store) {
	s.store = store
	kept := make(map[int]struct{}, len(s.selected))
	for id := range s.selected {
		if _, ok := store.Find(id); ok {
			kept[id] = struct{}{}
		}
	}
	s.selected = kept

	for _, row := range store.postOrder() {
		if row.IsLeaf() {
			continue
		}
		if s.allChildrenSelected(row.ID) {
			s.selected[row.ID] = struct{}{}
		} else {
			delete(s.selected, row.ID)
		}
	}
}
