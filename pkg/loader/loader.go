// Package loader reads row trees from data files.
//
// Supported sources are chosen by file extension:
//
//	.json           array of nested rows (or flat rows carrying parentId)
//	.jsonl, .ndjson one flat row per line
//	.yaml, .yml     list of nested rows
//	.db, .sqlite    SQLite table rows(id, parent_id, position, fields)
package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// ErrUnsupportedFormat is returned for file extensions no source handles.
var ErrUnsupportedFormat = errors.New("unsupported data format")

// LoadError describes a failure to read or parse one data file.
type LoadError struct {
	Path  string
	Line  int // 1-based line for line-oriented formats, 0 otherwise
	Cause error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s:%d: %v", e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Format identifies a data source kind.
type Format string

const (
	FormatJSON   Format = "json"
	FormatJSONL  Format = "jsonl"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// DetectFormat maps a file name to its source format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// LoadRowsFromFile reads the row tree stored at path.
func LoadRowsFromFile(path string) ([]*model.Row, error) {
	return LoadRowsFromFileContext(context.Background(), path)
}

// LoadRowsFromFileContext is LoadRowsFromFile with cancellation for sources
// that support it.
func LoadRowsFromFileContext(ctx context.Context, path string) ([]*model.Row, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	if format == FormatSQLite {
		return loadSQLite(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	defer f.Close()

	rows, err := LoadRowsFromReader(f, format)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Cause: err}
	}
	return rows, nil
}

// LoadRowsFromReader parses rows in the given text format. Flat input is
// assembled into a tree with BuildTree.
func LoadRowsFromReader(r io.Reader, format Format) ([]*model.Row, error) {
	var rows []*model.Row
	switch format {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatJSONL:
		var err error
		rows, err = parseJSONL(r)
		if err != nil {
			return nil, err
		}
		return BuildTree(rows)
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	rows = compact(rows)
	if isFlat(rows) {
		return BuildTree(rows)
	}
	return rows, nil
}

// parseJSONL decodes one row per non-blank line.
func parseJSONL(r io.Reader) ([]*model.Row, error) {
	var rows []*model.Row
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		row := &model.Row{}
		if err := json.Unmarshal(text, row); err != nil {
			return nil, &LoadError{Line: line, Cause: err}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func compact(rows []*model.Row) []*model.Row {
	out := rows[:0]
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// isFlat reports whether a top-level list refers to itself through parentId,
// which means the rows still need to be nested.
func isFlat(rows []*model.Row) bool {
	ids := make(map[int]bool, len(rows))
	for _, r := range rows {
		ids[r.ID] = true
	}
	for _, r := range rows {
		if r.ParentID != nil && ids[*r.ParentID] {
			return true
		}
	}
	return false
}
