// This file handles automatic .gitignore management for the state directory.
package loader

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// StateDirName is the per-project directory holding config and saved state.
const StateDirName = ".treegrid"

// EnsureStateDirIgnored ensures that .treegrid/ is listed in the project's
// .gitignore file so saved tree state does not end up in commits.
//
// The function is idempotent. It creates .gitignore if needed, appends the
// pattern only when no existing line already covers the directory, and
// leaves the rest of the file untouched.
func EnsureStateDirIgnored(projectDir string) error {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	gitignorePath := filepath.Join(projectDir, ".gitignore")

	alreadyPresent, err := isIgnored(gitignorePath, StateDirName)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if alreadyPresent {
		return nil
	}

	return appendToGitignore(gitignorePath, StateDirName+"/")
}

// isIgnored checks if dir is already covered by the .gitignore file.
func isIgnored(path, dir string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if matchesDirPattern(line, dir) {
			return true, nil
		}
	}

	return false, scanner.Err()
}

// matchesDirPattern checks if a gitignore line covers dir.
func matchesDirPattern(line, dir string) bool {
	normalized := strings.TrimPrefix(line, "/")

	switch normalized {
	case dir, dir + "/", dir + "/*", dir + "/**", dir + "/**/*":
		return true
	}
	return false
}

// appendToGitignore appends a pattern to the .gitignore file, creating it if
// needed. A newline is added first when the file does not end with one.
func appendToGitignore(path string, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	const header = "# treegrid saved state\n"
	var toWrite string
	if len(content) == 0 {
		toWrite = header + pattern + "\n"
	} else {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n" + header + pattern + "\n"
	}

	_, err = file.WriteString(toWrite)
	return err
}
