package grid

import (
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// OrderBy returns a copy of rows stably sorted by the descriptors, first
// descriptor first. Only the given slice is reordered; children keep their
// order. Descriptors without a field are ignored.
func OrderBy(rows []*model.Row, descs []model.SortDescriptor) []*model.Row {
	out := make([]*model.Row, len(rows))
	copy(out, rows)

	keys := make([]model.SortDescriptor, 0, len(descs))
	for _, d := range descs {
		if d.Field != "" {
			keys = append(keys, d)
		}
	}
	if len(keys) == 0 || len(out) <= 1 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := CompareValues(out[i].Value(k.Field), out[j].Value(k.Field))
			if c == 0 {
				continue
			}
			if k.Dir == model.SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out
}

// CompareValues orders two field values: nil first, then booleans, numbers,
// times and strings. Values of the same family compare naturally; strings
// that both parse as dates compare as times, other strings compare
// case-insensitively with a case-sensitive tie-break.
func CompareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return compareInts(ra, rb)
	}

	switch ra {
	case rankNil:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case rankTime:
		at, bt := a.(time.Time), b.(time.Time)
		return at.Compare(bt)
	}

	// Two date strings compare as dates, so 1/5/2020 sorts after 12/1/2019.
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Compare(bt)
		}
	}
	as, bs := toString(a), toString(b)
	if c := strings.Compare(strings.ToLower(as), strings.ToLower(bs)); c != 0 {
		return c
	}
	return strings.Compare(as, bs)
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankTime
	rankString
)

func valueRank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	case string:
		return rankString
	}
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	return rankString
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CycleSort applies a header click on field to descs using multiple-sort
// semantics: an unsorted field is appended descending, a descending field
// becomes ascending, and an ascending field is removed.
func CycleSort(descs []model.SortDescriptor, field string) []model.SortDescriptor {
	out := make([]model.SortDescriptor, 0, len(descs)+1)
	found := false
	for _, d := range descs {
		if d.Field != field {
			out = append(out, d)
			continue
		}
		found = true
		if d.Dir == model.SortDesc {
			out = append(out, model.SortDescriptor{Field: field, Dir: model.SortAsc})
		}
	}
	if !found {
		out = append(out, model.SortDescriptor{Field: field, Dir: model.SortDesc})
	}
	return out
}

// SortDirectionOf returns the direction and 1-based priority of field in
// descs, or ok=false when the field is unsorted.
func SortDirectionOf(descs []model.SortDescriptor, field string) (dir model.SortDirection, priority int, ok bool) {
	for i, d := range descs {
		if d.Field == field {
			return d.Dir, i + 1, true
		}
	}
	return "", 0, false
}
