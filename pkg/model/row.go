package model

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Reserved keys of the flat row encoding. Every other key is a field.
const (
	KeyID         = "id"
	KeyParentID   = "parentId"
	KeyChildren   = "children"
	KeyIsExpanded = "isExpanded"
)

// Fields holds the opaque per-row values keyed by field name.
type Fields map[string]any

// Row is one node of the hierarchical data set.
type Row struct {
	ID       int    // Unique across the whole tree
	ParentID *int   // nil for roots
	Fields   Fields // name, age, dob, ...
	Children []*Row // Ordered children; empty for leaves
	Expanded bool   // Initial expansion hint from the source data
}

// IsLeaf reports whether the row has no children.
func (r *Row) IsLeaf() bool {
	return len(r.Children) == 0
}

// Value returns the value stored for field. The reserved "id" and
// "parentId" keys resolve to the row's identity so they can be sorted and
// displayed like any other column.
func (r *Row) Value(field string) any {
	switch field {
	case KeyID:
		return r.ID
	case KeyParentID:
		if r.ParentID == nil {
			return nil
		}
		return *r.ParentID
	}
	if r.Fields == nil {
		return nil
	}
	return r.Fields[field]
}

// Clone creates a deep copy of the row and its subtree. Field values are
// copied shallowly.
func (r *Row) Clone() *Row {
	if r == nil {
		return nil
	}
	clone := &Row{ID: r.ID, Expanded: r.Expanded}
	if r.ParentID != nil {
		v := *r.ParentID
		clone.ParentID = &v
	}
	if r.Fields != nil {
		clone.Fields = make(Fields, len(r.Fields))
		for k, v := range r.Fields {
			clone.Fields[k] = v
		}
	}
	if r.Children != nil {
		clone.Children = make([]*Row, 0, len(r.Children))
		for _, child := range r.Children {
			if child != nil {
				clone.Children = append(clone.Children, child.Clone())
			}
		}
	}
	return clone
}

// IntPtr is a convenience for building rows with a parent id.
func IntPtr(v int) *int {
	return &v
}

// UnmarshalJSON decodes the flat object form used by data files:
//
//	{"id": 11, "parentId": 1, "name": "P1 -> C1", "children": [...]}
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	idRaw, ok := raw[KeyID]
	if !ok {
		return fmt.Errorf("row is missing %q", KeyID)
	}

	*r = Row{}
	if err := json.Unmarshal(idRaw, &r.ID); err != nil {
		return fmt.Errorf("row id: %w", err)
	}
	for key, value := range raw {
		switch key {
		case KeyID:
		case KeyParentID:
			var parent *int
			if err := json.Unmarshal(value, &parent); err != nil {
				return fmt.Errorf("row %d parentId: %w", r.ID, err)
			}
			r.ParentID = parent
		case KeyChildren:
			if err := json.Unmarshal(value, &r.Children); err != nil {
				return fmt.Errorf("row %d children: %w", r.ID, err)
			}
		case KeyIsExpanded:
			if err := json.Unmarshal(value, &r.Expanded); err != nil {
				return fmt.Errorf("row %d isExpanded: %w", r.ID, err)
			}
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("row %d field %s: %w", r.ID, key, err)
			}
			if r.Fields == nil {
				r.Fields = make(Fields)
			}
			r.Fields[key] = v
		}
	}
	return nil
}

// MarshalJSON encodes the row back into the flat object form.
func (r *Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[KeyID] = r.ID
	if r.ParentID != nil {
		out[KeyParentID] = *r.ParentID
	}
	if r.Expanded {
		out[KeyIsExpanded] = true
	}
	if len(r.Children) > 0 {
		out[KeyChildren] = r.Children
	}
	return json.MarshalNoEscape(out)
}

// UnmarshalYAML decodes the same flat form from a YAML mapping.
func (r *Row) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: row must be a mapping", value.Line)
	}

	*r = Row{}
	hasID := false
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, value.Content[i+1]
		switch key {
		case KeyID:
			if err := val.Decode(&r.ID); err != nil {
				return fmt.Errorf("line %d: row id: %w", val.Line, err)
			}
			hasID = true
		case KeyParentID:
			var parent *int
			if err := val.Decode(&parent); err != nil {
				return fmt.Errorf("line %d: parentId: %w", val.Line, err)
			}
			r.ParentID = parent
		case KeyChildren:
			if err := val.Decode(&r.Children); err != nil {
				return err
			}
		case KeyIsExpanded:
			if err := val.Decode(&r.Expanded); err != nil {
				return fmt.Errorf("line %d: isExpanded: %w", val.Line, err)
			}
		default:
			var v any
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("line %d: field %s: %w", val.Line, key, err)
			}
			if r.Fields == nil {
				r.Fields = make(Fields)
			}
			r.Fields[key] = v
		}
	}
	if !hasID {
		return fmt.Errorf("line %d: row is missing %q", value.Line, KeyID)
	}
	return nil
}

// FieldNames returns the sorted union of field names used anywhere in rows.
func FieldNames(rows []*Row) []string {
	seen := make(map[string]bool)
	var walk func(rs []*Row)
	walk = func(rs []*Row) {
		for _, r := range rs {
			if r == nil {
				continue
			}
			for k := range r.Fields {
				seen[k] = true
			}
			walk(r.Children)
		}
	}
	walk(rows)

	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
