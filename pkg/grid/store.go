// Package grid holds the state behind the hierarchical grid: the row store,
// the selection and expansion engines, the column layout and the session
// that routes user intents to them.
//
// Nothing in this package is safe for concurrent use. A Session and
// everything it owns is driven from a single event loop.
package grid

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

var (
	// ErrNotFound is returned when a row id is not part of the tree.
	ErrNotFound = errors.New("row not found")
	// ErrDuplicateID is returned when two rows share an id.
	ErrDuplicateID = errors.New("duplicate row id")
	// ErrParentMismatch is returned when a row's parentId disagrees with the
	// row it is nested under.
	ErrParentMismatch = errors.New("parentId does not match enclosing row")
)

// Store is a read-only view over a row tree with id based lookup.
// It is built once per data load.
type Store struct {
	roots  []*model.Row
	byID   map[int]*model.Row
	depth  map[int]int
	parent map[int]*model.Row
}

// NewStore copies roots into a new store. Nested rows without a parentId get
// the id of the row they are nested under.
func NewStore(roots []*model.Row) (*Store, error) {
	s := &Store{
		byID:   make(map[int]*model.Row),
		depth:  make(map[int]int),
		parent: make(map[int]*model.Row),
	}

	for _, r := range roots {
		if r == nil {
			continue
		}
		s.roots = append(s.roots, r.Clone())
	}

	type frame struct {
		row    *model.Row
		parent *model.Row
		depth  int
	}
	stack := make([]frame, 0, len(s.roots))
	for i := len(s.roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{row: s.roots[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		row := f.row

		if _, exists := s.byID[row.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, row.ID)
		}
		if f.parent != nil {
			switch {
			case row.ParentID == nil:
				row.ParentID = model.IntPtr(f.parent.ID)
			case *row.ParentID != f.parent.ID:
				return nil, fmt.Errorf("%w: row %d declares parent %d but is nested under %d",
					ErrParentMismatch, row.ID, *row.ParentID, f.parent.ID)
			}
			s.parent[row.ID] = f.parent
		}
		s.byID[row.ID] = row
		s.depth[row.ID] = f.depth

		for i := len(row.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{row: row.Children[i], parent: row, depth: f.depth + 1})
		}
	}

	// A root may only name a parent that is not part of this data set.
	for _, r := range s.roots {
		if r.ParentID == nil {
			continue
		}
		if _, exists := s.byID[*r.ParentID]; exists {
			return nil, fmt.Errorf("%w: root row %d declares parent %d", ErrParentMismatch, r.ID, *r.ParentID)
		}
	}

	return s, nil
}

// Roots returns the top-level rows in load order.
func (s *Store) Roots() []*model.Row {
	out := make([]*model.Row, len(s.roots))
	copy(out, s.roots)
	return out
}

// Len returns the number of rows in the whole tree.
func (s *Store) Len() int {
	return len(s.byID)
}

// Find returns the row with the given id anywhere in the tree, regardless of
// whether its branch is expanded.
func (s *Store) Find(id int) (*model.Row, bool) {
	row, ok := s.byID[id]
	return row, ok
}

// Require returns an error wrapping ErrNotFound when id is not part of the
// tree.
func (s *Store) Require(id int) error {
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("unknown row id %d: %w", id, ErrNotFound)
	}
	return nil
}

// ParentOf returns the row named by the row's parentId.
func (s *Store) ParentOf(id int) (*model.Row, bool) {
	row, ok := s.byID[id]
	if !ok || row.ParentID == nil {
		return nil, false
	}
	return s.Find(*row.ParentID)
}

// ChildrenOf returns the immediate children of id, or nil for leaves and
// unknown ids.
func (s *Store) ChildrenOf(id int) []*model.Row {
	row, ok := s.byID[id]
	if !ok {
		return nil
	}
	return row.Children
}

// HasChildren reports whether id owns at least one child.
func (s *Store) HasChildren(id int) bool {
	return len(s.ChildrenOf(id)) > 0
}

// Depth returns the nesting level of id (0 = root) and whether id exists.
func (s *Store) Depth(id int) (int, bool) {
	d, ok := s.depth[id]
	return d, ok
}

// Ancestors returns the chain from the parent of id up to its root.
func (s *Store) Ancestors(id int) []*model.Row {
	var out []*model.Row
	for p := s.parent[id]; p != nil; p = s.parent[p.ID] {
		out = append(out, p)
	}
	return out
}

// Descendants returns every row below id in pre-order.
func (s *Store) Descendants(id int) []*model.Row {
	row, ok := s.byID[id]
	if !ok {
		return nil
	}
	var out []*model.Row
	stack := reversed(row.Children)
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, r)
		stack = append(stack, reversed(r.Children)...)
	}
	return out
}

// Walk visits every row in pre-order, starting from the roots. Returning
// false from fn stops the walk.
func (s *Store) Walk(fn func(row *model.Row, depth int) bool) {
	stack := reversed(s.roots)
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(r, s.depth[r.ID]) {
			return
		}
		stack = append(stack, reversed(r.Children)...)
	}
}

// postOrder returns every row with children listed before their parent.
func (s *Store) postOrder() []*model.Row {
	var pre []*model.Row
	s.Walk(func(row *model.Row, _ int) bool {
		pre = append(pre, row)
		return true
	})
	// Reversed pre-order puts every descendant ahead of its ancestors.
	return reversed(pre)
}

func reversed(rows []*model.Row) []*model.Row {
	out := make([]*model.Row, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}
