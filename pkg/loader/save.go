package loader

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// SaveJSON writes roots as an indented array of nested rows, the form
// LoadRowsFromFile reads back from a .json file.
func SaveJSON(path string, roots []*model.Row) error {
	if roots == nil {
		roots = []*model.Row{}
	}
	data, err := json.MarshalIndentWithOption(roots, "", "  ", json.DisableHTMLEscape())
	if err != nil {
		return fmt.Errorf("encoding rows: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
