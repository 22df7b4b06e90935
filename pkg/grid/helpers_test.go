package grid

import (
	"testing"

	"github.com/vanderheijden86/treegrid/pkg/model"
	"pgregory.net/rapid"
)

// Ids of the sample tree used across the tests:
//
//	P1 (1)
//	├── C1 (11)
//	│   ├── GC1 (111)
//	│   └── GC2 (112)
//	└── C2 (12)
//	P2 (2)
//	├── C1 (21)
//	└── C2 (22)
const (
	idP1  = 1
	idC1  = 11
	idGC1 = 111
	idGC2 = 112
	idC2  = 12
	idP2  = 2
	idP2a = 21
	idP2b = 22
)

func row(id int, name string, age int, children ...*model.Row) *model.Row {
	return &model.Row{
		ID:       id,
		Fields:   model.Fields{"name": name, "age": age},
		Children: children,
	}
}

func sampleRows() []*model.Row {
	return []*model.Row{
		row(idP1, "P1", 20,
			row(idC1, "P1 -> C1", 21,
				row(idGC1, "P1 -> C1 -> GC1", 21),
				row(idGC2, "P1 -> C1 -> GC2", 22),
			),
			row(idC2, "P1 -> C2", 22),
		),
		row(idP2, "P2", 22,
			row(idP2a, "P2 -> C1", 22),
			row(idP2b, "P2 -> C2", 24),
		),
	}
}

func newSampleStore(t testing.TB) *Store {
	t.Helper()
	store, err := NewStore(sampleRows())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func sampleColumns() []model.ColumnConfig {
	return []model.ColumnConfig{
		{Field: "id", Title: "ID", Width: 8, Editor: model.KindText, Filter: model.KindText},
		{Field: "name", Title: "Name", Width: 18, Editable: true, Editor: model.KindText, Filter: model.KindText},
		{Field: "age", Title: "Age", Width: 6, Editable: true, Editor: model.KindNumeric, Format: "n0", Filter: model.KindNumeric},
		{Field: "dob", Title: "Date Of Birth", Width: 12, Editable: true, Editor: model.KindDate, Format: "M/d/yyyy", Filter: model.KindDate},
		{Field: "isValid", Title: "Is valid", Width: 8, Editable: true, Editor: model.KindBoolean, Filter: model.KindBoolean},
	}
}

func titles(cols []model.ColumnConfig) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Title
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// treeFromParents builds a forest where row i+1 hangs under row
// parents[i]+1, or is a root when parents[i] < 0. parents[i] must be < i.
func treeFromParents(parents []int) []*model.Row {
	rows := make([]*model.Row, len(parents))
	var roots []*model.Row
	for i, p := range parents {
		rows[i] = &model.Row{ID: i + 1}
		if p < 0 {
			roots = append(roots, rows[i])
			continue
		}
		rows[p].Children = append(rows[p].Children, rows[i])
	}
	return roots
}

// drawTree generates a random forest of up to 40 rows.
func drawTree(t *rapid.T) (*Store, []int) {
	n := rapid.IntRange(1, 40).Draw(t, "n")
	parents := make([]int, n)
	for i := range parents {
		parents[i] = rapid.IntRange(-1, i-1).Draw(t, "parent")
	}
	store, err := NewStore(treeFromParents(parents))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return store, ids
}

// checkSelectionInvariant fails when a row with children is selected while
// one of its children is not, or vice versa.
func checkSelectionInvariant(t rapid.TB, store *Store, sel *Selection) {
	t.Helper()
	store.Walk(func(r *model.Row, _ int) bool {
		if r.IsLeaf() {
			return true
		}
		all := true
		for _, c := range r.Children {
			if !sel.IsSelected(c.ID) {
				all = false
				break
			}
		}
		if sel.IsSelected(r.ID) != all {
			t.Fatalf("row %d: selected=%v but all children selected=%v (selection %v)",
				r.ID, sel.IsSelected(r.ID), all, sel.Selected())
		}
		return true
	})
}
