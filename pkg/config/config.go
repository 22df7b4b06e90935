// Package config loads the grid configuration (.treegrid/config.yaml).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// Config represents the grid configuration file
type Config struct {
	// Data lists data files or glob patterns, relative to the project root
	Data []string `yaml:"data,omitempty" json:"data,omitempty"`

	// Columns is the top-level column layout; the first column is pinned.
	// When empty, columns are inferred from the loaded rows.
	Columns []model.ColumnConfig `yaml:"columns,omitempty" json:"columns,omitempty"`

	// Levels gives nested depths (1 = children of roots) their own read-only
	// column sets
	Levels map[int][]model.ColumnConfig `yaml:"levels,omitempty" json:"levels,omitempty"`

	// Sort is the initial top-level ordering (default: id ascending)
	Sort []model.SortDescriptor `yaml:"sort,omitempty" json:"sort,omitempty"`

	// Watch enables live reload when data files change (default: true)
	Watch *bool `yaml:"watch,omitempty" json:"watch,omitempty"`

	// Debounce is the quiet period before a reload, e.g. "250ms"
	Debounce string `yaml:"debounce,omitempty" json:"debounce,omitempty"`

	// Discovery controls data file scanning when no files are configured
	Discovery DiscoveryConfig `yaml:"discovery,omitempty" json:"discovery,omitempty"`
}

// DiscoveryConfig controls automatic data file discovery
type DiscoveryConfig struct {
	// MaxDepth limits directory traversal depth (default: 2)
	MaxDepth int `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`
}

// DefaultConfig returns the configuration used when no file is found
func DefaultConfig() Config {
	return Config{
		Sort: []model.SortDescriptor{{Field: model.KeyID, Dir: model.SortAsc}},
		Discovery: DiscoveryConfig{
			MaxDepth: 2,
		},
	}
}

// DefaultColumns returns the standard column set for people-style data.
// InferColumns uses these definitions for any of their fields present in
// the data.
func DefaultColumns() []model.ColumnConfig {
	return []model.ColumnConfig{
		{Field: "id", Title: "ID", Editor: model.KindText, Width: 12, Filter: model.KindText},
		{Field: "name", Title: "Name", Editable: true, Editor: model.KindText, Width: 24, Filter: model.KindText},
		{Field: "age", Title: "Age", Editable: true, Editor: model.KindNumeric, Width: 8, Format: "n0", Filter: model.KindNumeric},
		{Field: "dob", Title: "Date Of Birth", Editable: true, Editor: model.KindDate, Width: 14, Format: "M/d/yyyy", Filter: model.KindDate},
		{Field: "isValid", Title: "Is valid", Editable: true, Editor: model.KindBoolean, Width: 9, Filter: model.KindBoolean},
	}
}

// LoadConfig loads a configuration file, applying defaults for anything
// the file leaves out.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if len(config.Sort) == 0 {
		config.Sort = DefaultConfig().Sort
	}
	if config.Discovery.MaxDepth <= 0 {
		config.Discovery.MaxDepth = DefaultConfig().Discovery.MaxDepth
	}
	for i := range config.Sort {
		if config.Sort[i].Dir == "" {
			config.Sort[i].Dir = model.SortAsc
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &config, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	for i := range c.Columns {
		if err := c.Columns[i].Validate(); err != nil {
			return fmt.Errorf("columns[%d]: %w", i, err)
		}
	}
	for depth, cols := range c.Levels {
		if depth < 1 {
			return fmt.Errorf("levels: depth %d must be 1 or more", depth)
		}
		for i := range cols {
			if err := cols[i].Validate(); err != nil {
				return fmt.Errorf("levels[%d][%d]: %w", depth, i, err)
			}
		}
	}
	for i, s := range c.Sort {
		if s.Field == "" {
			return fmt.Errorf("sort[%d]: field is required", i)
		}
		if !s.Dir.IsValid() {
			return fmt.Errorf("sort[%d]: invalid direction %q", i, s.Dir)
		}
	}
	if c.Debounce != "" {
		if d, err := time.ParseDuration(c.Debounce); err != nil || d < 0 {
			return fmt.Errorf("debounce: invalid duration %q", c.Debounce)
		}
	}
	return nil
}

// WatchEnabled reports whether live reload is on
func (c *Config) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// DebounceDuration returns the configured debounce, or 0 for the watcher
// default.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ColumnsFor returns the configured columns, or columns inferred from rows
// when none are configured.
func (c *Config) ColumnsFor(rows []*model.Row) []model.ColumnConfig {
	if len(c.Columns) > 0 {
		out := make([]model.ColumnConfig, len(c.Columns))
		copy(out, c.Columns)
		return out
	}
	return InferColumns(rows)
}

// InferColumns builds a layout for rows: the id column first, then the
// default columns whose field appears in the data, then every other field
// in name order.
func InferColumns(rows []*model.Row) []model.ColumnConfig {
	names := model.FieldNames(rows)
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	defaults := DefaultColumns()
	cols := []model.ColumnConfig{defaults[0]}
	used := map[string]bool{model.KeyID: true, model.KeyParentID: true}
	for _, d := range defaults[1:] {
		if present[d.Field] {
			cols = append(cols, d)
			used[d.Field] = true
		}
	}
	for _, n := range names {
		if used[n] {
			continue
		}
		cols = append(cols, model.ColumnConfig{Field: n, Title: n, Width: 16, Editor: model.KindText, Filter: model.KindText})
	}
	return cols
}

// ExampleConfig returns a fully populated configuration for `tg -init`
func ExampleConfig() Config {
	watch := true
	return Config{
		Data:    []string{"data/*.json"},
		Columns: DefaultColumns(),
		Levels: map[int][]model.ColumnConfig{
			1: {
				{Field: "id", Title: "ID", Width: 12},
				{Field: "name", Title: "Name", Width: 24},
			},
		},
		Sort:      DefaultConfig().Sort,
		Watch:     &watch,
		Debounce:  "200ms",
		Discovery: DefaultConfig().Discovery,
	}
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
