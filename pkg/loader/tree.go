package loader

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/model"
)

// ErrCycle is returned when parentId links in flat data form a loop.
var ErrCycle = errors.New("parent cycle")

// BuildTree nests flat rows under their parentId. Siblings keep their input
// order. Rows whose parent is not in the input become roots. Rows that
// already carry children keep them.
func BuildTree(flat []*model.Row) ([]*model.Row, error) {
	byID := make(map[int]*model.Row, len(flat))
	for _, r := range flat {
		if r == nil {
			continue
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %d", grid.ErrDuplicateID, r.ID)
		}
		byID[r.ID] = r
	}

	if err := checkCycles(flat, byID); err != nil {
		return nil, err
	}

	var roots []*model.Row
	for _, r := range flat {
		if r == nil {
			continue
		}
		if r.ParentID == nil {
			roots = append(roots, r)
			continue
		}
		parent, ok := byID[*r.ParentID]
		if !ok {
			log.Printf("warning: row %d references missing parent %d; showing it as a root", r.ID, *r.ParentID)
			roots = append(roots, r)
			continue
		}
		parent.Children = append(parent.Children, r)
	}
	return roots, nil
}

// checkCycles builds the parent->child graph and asks for a topological
// order; any strongly connected component is a cycle.
func checkCycles(flat []*model.Row, byID map[int]*model.Row) error {
	g := simple.NewDirectedGraph()
	for id := range byID {
		g.AddNode(simple.Node(int64(id)))
	}
	for _, r := range flat {
		if r == nil || r.ParentID == nil {
			continue
		}
		if _, ok := byID[*r.ParentID]; !ok {
			continue
		}
		if *r.ParentID == r.ID {
			return fmt.Errorf("%w: row %d is its own parent", ErrCycle, r.ID)
		}
		g.SetEdge(g.NewEdge(simple.Node(int64(*r.ParentID)), simple.Node(int64(r.ID))))
	}

	if _, err := topo.Sort(g); err != nil {
		var unorderable topo.Unorderable
		if !errors.As(err, &unorderable) || len(unorderable) == 0 {
			return fmt.Errorf("%w: %v", ErrCycle, err)
		}
		ids := make([]int, 0, len(unorderable[0]))
		for _, n := range unorderable[0] {
			ids = append(ids, int(n.ID()))
		}
		sort.Ints(ids)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = fmt.Sprint(id)
		}
		return fmt.Errorf("%w: rows %s", ErrCycle, strings.Join(parts, ", "))
	}
	return nil
}

// Flatten is the inverse of BuildTree: it lists every row in pre-order with
// ParentID filled in and Children cleared.
func Flatten(roots []*model.Row) []*model.Row {
	var out []*model.Row
	type frame struct {
		row    *model.Row
		parent *int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{row: roots[i]})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.row == nil {
			continue
		}

		flat := f.row.Clone()
		flat.Children = nil
		if f.parent != nil {
			flat.ParentID = model.IntPtr(*f.parent)
		}
		out = append(out, flat)

		id := f.row.ID
		for i := len(f.row.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{row: f.row.Children[i], parent: &id})
		}
	}
	return out
}
