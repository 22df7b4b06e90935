package grid

import (
	"testing"

	"pgregory.net/rapid"
)

// TestSelectionScenario walks the P1{C1{GC1,GC2},C2} example end to end
func TestSelectionScenario(t *testing.T) {
	store := newSampleStore(t)
	sel := NewSelection(store)

	sel.Toggle(idGC1, true)
	sel.Toggle(idGC2, true)
	if got, want := sel.Selected(), []int{idC1, idGC1, idGC2}; !equalInts(got, want) {
		t.Fatalf("after GC1, GC2: selected = %v, want %v", got, want)
	}
	if sel.IsSelected(idP1) {
		t.Error("P1 must stay unselected while C2 is unselected")
	}

	sel.Toggle(idC2, true)
	if got, want := sel.Selected(), []int{idP1, idC1, idC2, idGC1, idGC2}; !equalInts(got, want) {
		t.Fatalf("after C2: selected = %v, want %v", got, want)
	}

	sel.Toggle(idC1, false)
	if got, want := sel.Selected(), []int{idC2}; !equalInts(got, want) {
		t.Fatalf("after unchecking C1: selected = %v, want %v", got, want)
	}
}

func TestSelectionCheckParentSelectsDescendants(t *testing.T) {
	store := newSampleStore(t)
	sel := NewSelection(store)

	sel.Toggle(idP1, true)
	for _, id := range []int{idP1, idC1, idGC1, idGC2, idC2} {
		if !sel.IsSelected(id) {
			t.Errorf("expected %d selected", id)
		}
	}
	if sel.IsSelected(idP2) || sel.IsSelected(idP2a) {
		t.Error("selecting P1 must not touch P2")
	}
}

func TestSelectionUncheckLeafDropsAncestors(t *testing.T) {
	store := newSampleStore(t)
	sel := NewSelection(store)

	sel.Toggle(idP1, true)
	sel.Toggle(idGC2, false)

	if got, want := sel.Selected(), []int{idC2, idGC1}; !equalInts(got, want) {
		t.Errorf("selected = %v, want %v", got, want)
	}
}

func TestSelectionUnknownIDIsNoop(t *testing.T) {
	store := newSampleStore(t)
	sel := NewSelection(store)

	sel.Toggle(999, true)
	if sel.Len() != 0 {
		t.Errorf("expected empty selection, got %v", sel.Selected())
	}
	sel.Toggle(idGC1, true)
	sel.Toggle(999, false)
	if !equalInts(sel.Selected(), []int{idGC1}) {
		t.Errorf("unknown id changed selection: %v", sel.Selected())
	}
}

func TestSelectionToggleAll(t *testing.T) {
	store := newSampleStore(t)
	sel := NewSelection(store)

	sel.ToggleAll(true)
	if sel.Len() != store.Len() {
		t.Errorf("expected all %d rows selected, got %d", store.Len(), sel.Len())
	}
	sel.ToggleAll(false)
	if sel.Len() != 0 {
		t.Errorf("expected nothing selected, got %v", sel.Selected())
	}
}

func TestSelectionState(t *testing.T) {
	store := newSampleStore(t)
	sel := NewSelection(store)

	sel.Toggle(idGC1, true)

	tests := []struct {
		id   int
		want CheckState
	}{
		{idGC1, Checked},
		{idGC2, Unchecked},
		{idC1, Indeterminate},
		{idP1, Indeterminate},
		{idP2, Unchecked},
	}
	for _, tt := range tests {
		if got := sel.State(tt.id); got != tt.want {
			t.Errorf("State(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSelectionRebind(t *testing.T) {
	store := newSampleStore(t)
	sel := NewSelection(store)
	sel.Toggle(idP1, true)
	sel.Toggle(idP2a, true)

	// Reload: C1 gains a third, unselected child and P2 -> C1 disappears.
	rows := sampleRows()
	rows[0].Children[0].Children = append(rows[0].Children[0].Children, row(113, "P1 -> C1 -> GC3", 5))
	rows[1].Children = rows[1].Children[1:]
	next, err := NewStore(rows)
	if err != nil {
		t.Fatal(err)
	}

	sel.Rebind(next)
	if got, want := sel.Selected(), []int{idC2, idGC1, idGC2}; !equalInts(got, want) {
		t.Errorf("after rebind selected = %v, want %v", got, want)
	}
	checkSelectionInvariant(t, next, sel)
}

// TestSelectionInvariantProperty checks the parent rule after every toggle
// of a random sequence over a random tree
func TestSelectionInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store, ids := drawTree(t)
		sel := NewSelection(store)

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(t, "id")
			checked := rapid.Bool().Draw(t, "checked")
			sel.Toggle(id, checked)
			checkSelectionInvariant(t, store, sel)
		}
	})
}

// TestSelectionIdempotentProperty checks that repeating a check is a no-op
func TestSelectionIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store, ids := drawTree(t)
		sel := NewSelection(store)

		for _, id := range rapid.SliceOfN(rapid.SampledFrom(ids), 0, 10).Draw(t, "prefix") {
			sel.Toggle(id, rapid.Bool().Draw(t, "checked"))
		}

		id := rapid.SampledFrom(ids).Draw(t, "id")
		sel.Toggle(id, true)
		once := sel.Selected()
		sel.Toggle(id, true)
		if twice := sel.Selected(); !equalInts(once, twice) {
			t.Fatalf("second check of %d changed selection: %v -> %v", id, once, twice)
		}
	})
}

// TestSelectionOrderIndependenceProperty checks that selecting every child of
// a row in any order ends with the row selected exactly when the last child is
func TestSelectionOrderIndependenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store, ids := drawTree(t)

		var parents []int
		for _, id := range ids {
			if store.HasChildren(id) {
				parents = append(parents, id)
			}
		}
		if len(parents) == 0 {
			t.Skip("tree has no parent rows")
		}
		parent := rapid.SampledFrom(parents).Draw(t, "parent")
		children := store.ChildrenOf(parent)
		perm := rapid.Permutation(children).Draw(t, "order")

		sel := NewSelection(store)
		for i, c := range perm {
			sel.Toggle(c.ID, true)
			last := i == len(perm)-1
			if sel.IsSelected(parent) != last {
				t.Fatalf("after %d of %d children parent selected=%v", i+1, len(perm), sel.IsSelected(parent))
			}
		}

		reference := NewSelection(store)
		reference.Toggle(parent, true)
		if !equalInts(sel.Selected(), reference.Selected()) {
			t.Fatalf("child-by-child %v differs from selecting parent %v", sel.Selected(), reference.Selected())
		}
	})
}

// TestSelectionUncheckCascadesDownProperty checks that unchecking a row
// removes its whole subtree regardless of prior state
func TestSelectionUncheckCascadesDownProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store, ids := drawTree(t)
		sel := NewSelection(store)

		for _, id := range rapid.SliceOfN(rapid.SampledFrom(ids), 0, 15).Draw(t, "prefix") {
			sel.Toggle(id, true)
		}

		id := rapid.SampledFrom(ids).Draw(t, "id")
		sel.Toggle(id, true)
		sel.Toggle(id, false)

		if sel.IsSelected(id) {
			t.Fatalf("%d still selected", id)
		}
		for _, d := range store.Descendants(id) {
			if sel.IsSelected(d.ID) {
				t.Fatalf("descendant %d of %d still selected", d.ID, id)
			}
		}
		for _, a := range store.Ancestors(id) {
			if sel.IsSelected(a.ID) {
				t.Fatalf("ancestor %d of %d still selected", a.ID, id)
			}
		}
	})
}
