package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/treegrid/pkg/grid"
)

// GenerateMarkdown creates a markdown report of the visible grid
func GenerateMarkdown(snap Snapshot) (string, error) {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", snap.Title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Rows**: %d\n", snap.Total))
	sb.WriteString(fmt.Sprintf("- **Visible**: %d\n", len(snap.Rows)))
	sb.WriteString(fmt.Sprintf("- **Selected**: %d\n", len(snap.Selected)))
	sb.WriteString(fmt.Sprintf("- **Expanded**: %d\n", len(snap.Expanded)))
	if len(snap.Sort) > 0 {
		keys := make([]string, len(snap.Sort))
		for i, s := range snap.Sort {
			keys[i] = s.String()
		}
		sb.WriteString(fmt.Sprintf("- **Sort**: %s\n", strings.Join(keys, ", ")))
	}
	sb.WriteString("\n")

	sb.WriteString("## Grid\n\n")
	if len(snap.Columns) == 0 {
		sb.WriteString("_No columns configured._\n\n")
		return sb.String(), nil
	}

	sb.WriteString("| |")
	for _, c := range snap.Columns {
		sb.WriteString(" " + escapeCell(c.Title) + " |")
	}
	sb.WriteString("\n|---|")
	for range snap.Columns {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")

	for i := range snap.Rows {
		sb.WriteString("| " + Checkbox(snap.States[i]) + " |")
		for col := range snap.Columns {
			sb.WriteString(" " + escapeCell(snap.Cell(i, col)) + " |")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(snap.Selected) > 0 {
		sb.WriteString("## Selected\n\n")
		ids := make([]string, len(snap.Selected))
		for i, id := range snap.Selected {
			ids[i] = fmt.Sprint(id)
		}
		sb.WriteString(strings.Join(ids, ", ") + "\n\n")
	}

	return sb.String(), nil
}

// escapeCell keeps a value inside one markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// SaveMarkdownToFile writes the markdown report of s to a file
func SaveMarkdownToFile(s *grid.Session, title, filename string) error {
	content, err := GenerateMarkdown(NewSnapshot(s, title))
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
