package grid

import (
	"strings"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// VisibleRow is one line of the rendered grid.
type VisibleRow struct {
	Row         *model.Row
	Depth       int  // Nesting level (0 = root)
	HasChildren bool // Shows an expand affordance
	Expanded    bool // Children follow this row
	Last        bool // Last among its siblings
}

// Flatten lists the rows the surface should draw, in order: every root, and
// below each row its children when that row is expanded.
func Flatten(roots []*model.Row, exp *Expansion) []VisibleRow {
	type frame struct {
		row   *model.Row
		depth int
		last  bool
	}
	push := func(stack []frame, rows []*model.Row, depth int) []frame {
		for i := len(rows) - 1; i >= 0; i-- {
			stack = append(stack, frame{row: rows[i], depth: depth, last: i == len(rows)-1})
		}
		return stack
	}

	var out []VisibleRow
	stack := push(nil, roots, 0)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := VisibleRow{
			Row:         f.row,
			Depth:       f.depth,
			HasChildren: !f.row.IsLeaf(),
			Last:        f.last,
		}
		v.Expanded = v.HasChildren && exp.IsExpanded(f.row.ID)
		out = append(out, v)

		if v.Expanded {
			stack = push(stack, f.row.Children, f.depth+1)
		}
	}
	return out
}

// Tree guide glyphs drawn in front of the first column.
const (
	GuideBranch = "├─ "
	GuideLast   = "└─ "
	GuidePipe   = "│  "
	GuideSpace  = "   "
)

// TreePrefixes returns the guide string for each visible row: one segment
// per ancestor level showing whether that ancestor has later siblings, then
// a branch glyph for the row itself. Roots get an empty prefix.
func TreePrefixes(rows []VisibleRow) []string {
	out := make([]string, len(rows))
	var open []bool // open[d]: the ancestor at depth d+1 has later siblings
	for i, r := range rows {
		if r.Depth == 0 {
			open = open[:0]
			continue
		}
		if len(open) > r.Depth-1 {
			open = open[:r.Depth-1]
		}
		for len(open) < r.Depth-1 {
			open = append(open, false)
		}

		var b strings.Builder
		for _, more := range open {
			if more {
				b.WriteString(GuidePipe)
			} else {
				b.WriteString(GuideSpace)
			}
		}
		if r.Last {
			b.WriteString(GuideLast)
		} else {
			b.WriteString(GuideBranch)
		}
		out[i] = b.String()
		open = append(open, !r.Last)
	}
	return out
}

// ExpandGlyph returns the expand affordance for a row: an open or closed
// triangle for rows with children, blank padding for leaves.
func ExpandGlyph(r VisibleRow) string {
	switch {
	case !r.HasChildren:
		return "  "
	case r.Expanded:
		return "▾ "
	default:
		return "▸ "
	}
}
