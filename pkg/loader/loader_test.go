package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// shape renders a tree as "1(11(111,112),12),2" for compact comparisons.
func shape(rows []*model.Row) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		s := strconv.Itoa(r.ID)
		if len(r.Children) > 0 {
			s += "(" + shape(r.Children) + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, ",")
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"rows.json", FormatJSON, false},
		{"rows.JSONL", FormatJSONL, false},
		{"rows.ndjson", FormatJSONL, false},
		{"rows.yml", FormatYAML, false},
		{"rows.yaml", FormatYAML, false},
		{"rows.db", FormatSQLite, false},
		{"rows.sqlite", FormatSQLite, false},
		{"rows.csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat(%q) error = %v", tt.path, err)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestLoadRowsFromFile_NestedJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rows.json", `[
  {"id": 1, "name": "P1", "children": [
    {"id": 11, "name": "C1", "children": [{"id": 111}, {"id": 112}]},
    {"id": 12}
  ]},
  {"id": 2, "name": "P2"}
]`)

	rows, err := LoadRowsFromFile(path)
	if err != nil {
		t.Fatalf("LoadRowsFromFile failed: %v", err)
	}
	if got, want := shape(rows), "1(11(111,112),12),2"; got != want {
		t.Errorf("shape = %s, want %s", got, want)
	}
}

// TestLoadRowsFromFile_FlatJSON verifies a flat array is nested by parentId
func TestLoadRowsFromFile_FlatJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rows.json", `[
  {"id": 11, "parentId": 1},
  {"id": 1},
  {"id": 12, "parentId": 1},
  {"id": 2}
]`)

	rows, err := LoadRowsFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := shape(rows), "1(11,12),2"; got != want {
		t.Errorf("shape = %s, want %s", got, want)
	}
}

func TestLoadRowsFromFile_JSONL(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rows.jsonl", `{"id": 1, "name": "P1", "isExpanded": true}
{"id": 11, "parentId": 1, "name": "C1"}

{"id": 111, "parentId": 11}
{"id": 99, "parentId": 500, "name": "orphan"}
`)

	rows, err := LoadRowsFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := shape(rows), "1(11(111)),99"; got != want {
		t.Errorf("shape = %s, want %s", got, want)
	}
	if !rows[0].Expanded {
		t.Error("isExpanded should carry over")
	}
}

func TestLoadRowsFromFile_JSONLErrorLine(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rows.jsonl", "{\"id\": 1}\n{\"id\": 2\n")

	_, err := LoadRowsFromFile(path)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if le.Line != 2 || le.Path != path {
		t.Errorf("LoadError = %+v", le)
	}
	if !strings.Contains(err.Error(), "rows.jsonl:2") {
		t.Errorf("error should name file and line: %v", err)
	}
}

func TestLoadRowsFromFile_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rows.yaml", `
- id: 1
  name: P1
  children:
    - id: 11
      age: 21
- id: 2
`)
	rows, err := LoadRowsFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := shape(rows), "1(11),2"; got != want {
		t.Errorf("shape = %s, want %s", got, want)
	}
}

func TestLoadRowsFromFile_Empty(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"empty.json", "empty.jsonl", "empty.yaml"} {
		rows, err := LoadRowsFromFile(writeFile(t, dir, name, ""))
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if len(rows) != 0 {
			t.Errorf("%s: expected no rows, got %d", name, len(rows))
		}
	}
}

func TestLoadRowsFromFile_Missing(t *testing.T) {
	_, err := LoadRowsFromFile(filepath.Join(t.TempDir(), "nope.json"))
	var le *LoadError
	if !errors.As(err, &le) || !os.IsNotExist(errors.Unwrap(err)) {
		t.Errorf("expected LoadError wrapping not-exist, got %v", err)
	}
}

func TestBuildTree_Cycle(t *testing.T) {
	tests := []struct {
		name string
		rows []*model.Row
	}{
		{"self", []*model.Row{{ID: 1, ParentID: model.IntPtr(1)}}},
		{"pair", []*model.Row{
			{ID: 1, ParentID: model.IntPtr(2)},
			{ID: 2, ParentID: model.IntPtr(1)},
			{ID: 3},
		}},
		{"long", []*model.Row{
			{ID: 1, ParentID: model.IntPtr(3)},
			{ID: 2, ParentID: model.IntPtr(1)},
			{ID: 3, ParentID: model.IntPtr(2)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildTree(tt.rows); !errors.Is(err, ErrCycle) {
				t.Errorf("expected ErrCycle, got %v", err)
			}
		})
	}
}

func TestBuildTree_Duplicate(t *testing.T) {
	_, err := BuildTree([]*model.Row{{ID: 1}, {ID: 1}})
	if !errors.Is(err, grid.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	roots := []*model.Row{
		{ID: 1, Children: []*model.Row{{ID: 11, Children: []*model.Row{{ID: 111}}}, {ID: 12}}},
		{ID: 2},
	}
	flat := Flatten(roots)

	var order []int
	for _, r := range flat {
		order = append(order, r.ID)
		if len(r.Children) != 0 {
			t.Errorf("flattened row %d kept children", r.ID)
		}
	}
	if !reflect.DeepEqual(order, []int{1, 11, 111, 12, 2}) {
		t.Errorf("Flatten order = %v", order)
	}
	if flat[2].ParentID == nil || *flat[2].ParentID != 11 {
		t.Errorf("row 111 parentId = %v", flat[2].ParentID)
	}

	rebuilt, err := BuildTree(flat)
	if err != nil {
		t.Fatal(err)
	}
	if got := shape(rebuilt); got != "1(11(111),12),2" {
		t.Errorf("rebuilt shape = %s", got)
	}
	if len(roots[0].Children) != 2 {
		t.Error("Flatten must not modify its input")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.db")
	roots := []*model.Row{
		{ID: 1, Expanded: true, Fields: model.Fields{"name": "P1"}, Children: []*model.Row{
			{ID: 11, Fields: model.Fields{"name": "C1", "age": 21}},
			{ID: 12},
		}},
		{ID: 2, Fields: model.Fields{"name": "P2"}},
	}
	if err := SaveSQLite(context.Background(), path, roots); err != nil {
		t.Fatalf("SaveSQLite failed: %v", err)
	}

	rows, err := LoadRowsFromFile(path)
	if err != nil {
		t.Fatalf("LoadRowsFromFile failed: %v", err)
	}
	if got, want := shape(rows), "1(11,12),2"; got != want {
		t.Errorf("shape = %s, want %s", got, want)
	}
	if !rows[0].Expanded {
		t.Error("expanded flag lost")
	}
	if _, leaked := rows[0].Fields[model.KeyIsExpanded]; leaked {
		t.Error("isExpanded should not stay in fields")
	}
	if rows[0].Children[0].Fields["age"] != float64(21) {
		t.Errorf("age = %#v", rows[0].Children[0].Fields["age"])
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	roots := []*model.Row{
		{ID: 1, Expanded: true, Fields: model.Fields{"name": "P1"}, Children: []*model.Row{
			{ID: 11, ParentID: model.IntPtr(1), Fields: model.Fields{"name": "P1 -> C1"}},
		}},
		{ID: 2, Fields: model.Fields{"name": "P2 & co"}},
	}
	if err := SaveJSON(path, roots); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"P1 -> C1"`, `"P2 & co"`, `"isExpanded": true`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in\n%s", want, data)
		}
	}

	rows, err := LoadRowsFromFile(path)
	if err != nil {
		t.Fatalf("LoadRowsFromFile failed: %v", err)
	}
	if got, want := shape(rows), "1(11),2"; got != want {
		t.Errorf("shape = %s, want %s", got, want)
	}
	if !rows[0].Expanded || rows[0].Children[0].Fields["name"] != "P1 -> C1" {
		t.Errorf("rows did not survive the round trip: %+v", rows[0])
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `[{"id": 1, "children": [{"id": 11}]}]`)
	b := writeFile(t, dir, "b.jsonl", "{\"id\": 2}\n{\"id\": 21, \"parentId\": 2}\n")
	c := writeFile(t, dir, "c.yaml", "- id: 3\n")

	rows, err := LoadAll(context.Background(), []string{c, a, b})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := shape(rows), "3,1(11),2(21)"; got != want {
		t.Errorf("shape = %s, want %s", got, want)
	}

	bad := writeFile(t, dir, "bad.json", "{")
	if _, err := LoadAll(context.Background(), []string{a, bad}); err == nil {
		t.Error("expected an error for a broken file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadAll(ctx, []string{a}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `[{"id": 1}]`)
	b := writeFile(t, dir, "b.json", `[{"id": 2}]`)

	h1, err := Fingerprint([]string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := Fingerprint([]string{b, a})
	if h1 != h2 {
		t.Error("fingerprint should not depend on path order")
	}
	if len(h1) != 64 {
		t.Errorf("expected 32-byte hex digest, got %q", h1)
	}

	writeFile(t, dir, "b.json", `[{"id": 3}]`)
	h3, _ := Fingerprint([]string{a, b})
	if h3 == h1 {
		t.Error("fingerprint should change with content")
	}

	if _, err := Fingerprint([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing file")
	}
}
