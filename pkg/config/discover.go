package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vanderheijden86/treegrid/pkg/loader"
)

// EnvDir overrides project root discovery.
const EnvDir = "TREEGRID_DIR"

// ConfigFileName is the config file inside the state directory.
const ConfigFileName = "config.yaml"

// StateFileName is the saved tree state inside the state directory.
const StateFileName = "tree-state.json"

// DetectProjectRoot finds the project root: $TREEGRID_DIR when set, else
// the nearest ancestor of the working directory holding a .treegrid/
// directory.
func DetectProjectRoot() (string, bool) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return expandHome(dir), true
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findProjectRoot(dir)
}

// findProjectRoot walks up from dir looking for a .treegrid/ directory.
func findProjectRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		stateDir := filepath.Join(dir, loader.StateDirName)
		if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// StateDir returns the state directory for a project root.
func StateDir(root string) string {
	return filepath.Join(root, loader.StateDirName)
}

// FindConfig returns the config file of the detected project, or
// os.ErrNotExist.
func FindConfig() (string, error) {
	root, ok := DetectProjectRoot()
	if !ok {
		return "", os.ErrNotExist
	}
	path := filepath.Join(StateDir(root), ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// Load finds and loads the project configuration. A missing file yields
// DefaultConfig.
func Load() (*Config, string, error) {
	path, err := FindConfig()
	if errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		return &cfg, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	cfg, err := LoadConfig(path)
	return cfg, path, err
}

// ResolveDataFiles expands the configured data patterns relative to root.
// When no patterns are configured the root is scanned for data files.
func (c *Config) ResolveDataFiles(root string) ([]string, error) {
	if len(c.Data) == 0 {
		return scanForData(root, c.Discovery.MaxDepth), nil
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range c.Data {
		pattern = expandHome(pattern)
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

// scanForData walks a directory tree up to maxDepth levels deep, collecting
// files in a supported data format.
func scanForData(root string, maxDepth int) []string {
	root = expandHome(root)
	if maxDepth <= 0 {
		maxDepth = 2
	}
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		name := d.Name()
		if d.IsDir() {
			currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if currentDepth > maxDepth {
				return filepath.SkipDir
			}
			// Skip hidden directories, including the state directory
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if _, err := loader.DetectFormat(name); err == nil {
			results = append(results, path)
		}
		return nil
	})

	return results
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
