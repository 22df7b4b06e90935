package ui

import (
	"log"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treegrid/pkg/config"
	"github.com/vanderheijden86/treegrid/pkg/grid"
)

// TreeState is the persisted expansion state of the grid, saved to
// <state dir>/tree-state.json so expanded rows survive restarts.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": [1, 11, 2]
//	}
//
// Selection is not persisted. Unknown ids are dropped on load; a missing or
// corrupt file means nothing starts expanded beyond the source data hints.
type TreeState struct {
	Version  int   `json:"version"`
	Expanded []int `json:"expanded"`
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

// TreeStatePath returns the path to the tree state file inside stateDir.
func TreeStatePath(stateDir string) string {
	return filepath.Join(stateDir, config.StateFileName)
}

// LoadTreeState reads the saved state at path. ok is false when the file is
// missing, unreadable, or from another schema version.
func LoadTreeState(path string) (state TreeState, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		// File doesn't exist = first run
		return TreeState{}, false
	}
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return TreeState{}, false
	}
	if state.Version != TreeStateVersion {
		log.Printf("warning: tree state version %d not supported, using defaults", state.Version)
		return TreeState{}, false
	}
	return state, true
}

// SaveTreeState writes the expanded ids to path, creating its directory.
func SaveTreeState(path string, expanded []int) error {
	if expanded == nil {
		expanded = []int{}
	}
	data, err := json.MarshalIndent(TreeState{Version: TreeStateVersion, Expanded: expanded}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreTreeState applies the expansion saved in stateDir to s. Ids no
// longer in the data are dropped.
func RestoreTreeState(s *grid.Session, stateDir string) bool {
	if stateDir == "" {
		return false
	}
	state, ok := LoadTreeState(TreeStatePath(stateDir))
	if !ok {
		return false
	}
	s.Expansion().Restore(state.Expanded)
	return true
}
