package model

import (
	"fmt"
	"strings"
)

// ValueKind is the editor/filter family of a column
type ValueKind string

const (
	KindBoolean ValueKind = "boolean"
	KindText    ValueKind = "text"
	KindNumeric ValueKind = "numeric"
	KindDate    ValueKind = "date"
)

// IsValid returns true if the kind is a recognized value.
// The empty kind is accepted and treated as text.
func (k ValueKind) IsValid() bool {
	switch k {
	case "", KindBoolean, KindText, KindNumeric, KindDate:
		return true
	}
	return false
}

// ColumnConfig describes one grid column
type ColumnConfig struct {
	Field       string    `yaml:"field" json:"field"`
	Title       string    `yaml:"title" json:"title"`
	Editable    bool      `yaml:"editable,omitempty" json:"editable,omitempty"`
	Editor      ValueKind `yaml:"editor,omitempty" json:"editor,omitempty"`
	Width       int       `yaml:"width,omitempty" json:"width,omitempty"` // Terminal cells
	Format      string    `yaml:"format,omitempty" json:"format,omitempty"`
	Filter      ValueKind `yaml:"filter,omitempty" json:"filter,omitempty"`
	MinWidth    int       `yaml:"min_width,omitempty" json:"min_width,omitempty"`
	MaxWidth    int       `yaml:"max_width,omitempty" json:"max_width,omitempty"`
	Reorderable *bool     `yaml:"reorderable,omitempty" json:"reorderable,omitempty"` // nil = true
	Resizable   *bool     `yaml:"resizable,omitempty" json:"resizable,omitempty"`     // nil = true
}

// CanReorder reports whether the column may be dragged to a new position.
func (c ColumnConfig) CanReorder() bool {
	return c.Reorderable == nil || *c.Reorderable
}

// CanResize reports whether the column width may change.
func (c ColumnConfig) CanResize() bool {
	return c.Resizable == nil || *c.Resizable
}

// ClampWidth bounds width by the column's MinWidth/MaxWidth when they are set.
func (c ColumnConfig) ClampWidth(width int) int {
	if c.MinWidth > 0 && width < c.MinWidth {
		width = c.MinWidth
	}
	if c.MaxWidth > 0 && width > c.MaxWidth {
		width = c.MaxWidth
	}
	if width < 1 {
		width = 1
	}
	return width
}

// Validate checks if the column configuration is logically valid
func (c *ColumnConfig) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("column field cannot be empty")
	}
	if c.Title == "" {
		return fmt.Errorf("column %s: title cannot be empty", c.Field)
	}
	if !c.Editor.IsValid() {
		return fmt.Errorf("column %s: invalid editor: %s", c.Field, c.Editor)
	}
	if !c.Filter.IsValid() {
		return fmt.Errorf("column %s: invalid filter: %s", c.Field, c.Filter)
	}
	if c.Width < 0 {
		return fmt.Errorf("column %s: width cannot be negative", c.Field)
	}
	if c.MinWidth > 0 && c.MaxWidth > 0 && c.MinWidth > c.MaxWidth {
		return fmt.Errorf("column %s: min_width (%d) exceeds max_width (%d)", c.Field, c.MinWidth, c.MaxWidth)
	}
	return nil
}

// SortDirection is the ordering of one sort key
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// IsValid returns true if the direction is a recognized value
func (d SortDirection) IsValid() bool {
	return d == SortAsc || d == SortDesc
}

// SortDescriptor is one key of a multi-key sort.
type SortDescriptor struct {
	Field string        `yaml:"field" json:"field"`
	Dir   SortDirection `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// String renders the descriptor as "field:dir".
func (s SortDescriptor) String() string {
	return s.Field + ":" + string(s.Dir)
}

// ParseSortDescriptors parses "name:desc,age" style lists. A key without a
// direction sorts ascending.
func ParseSortDescriptors(s string) ([]SortDescriptor, error) {
	var out []SortDescriptor
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		d := SortDescriptor{Field: strings.TrimSpace(field), Dir: SortAsc}
		if dir != "" {
			d.Dir = SortDirection(strings.ToLower(strings.TrimSpace(dir)))
		}
		if d.Field == "" {
			return nil, fmt.Errorf("sort key %q has no field", part)
		}
		if !d.Dir.IsValid() {
			return nil, fmt.Errorf("sort key %q: invalid direction %q (expected asc or desc)", part, dir)
		}
		out = append(out, d)
	}
	return out, nil
}
