package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/treegrid/pkg/config"
	"github.com/vanderheijden86/treegrid/pkg/export"
	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/loader"
	"github.com/vanderheijden86/treegrid/pkg/model"
	"github.com/vanderheijden86/treegrid/pkg/ui"
	"github.com/vanderheijden86/treegrid/pkg/version"
)

// debugEnv names the file bubbletea logs to while the TUI runs.
const debugEnv = "TREEGRID_DEBUG"

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	initFlag := flag.Bool("init", false, "Write an example .treegrid/config.yaml in the current directory")
	configPath := flag.String("config", "", "Config file (default: .treegrid/config.yaml of the detected project)")
	selectIDs := flag.String("select", "", "Comma-separated row ids to select")
	expandIDs := flag.String("expand", "", "Comma-separated row ids to expand, along with their ancestors")
	expandAll := flag.Bool("expand-all", false, "Expand every row")
	sortSpec := flag.String("sort", "", "Top-level sort, e.g. 'age:desc,name'")
	robotState := flag.Bool("robot-state", false, "Output grid state as JSON for AI agents")
	exportMD := flag.String("export-md", "", "Export the grid to a Markdown file")
	exportSVG := flag.String("export-svg", "", "Export the grid to an SVG file")
	exportSQLite := flag.String("export-sqlite", "", "Write the loaded rows to a SQLite database")
	exportJSON := flag.String("export-json", "", "Write the loaded rows to a nested JSON file")
	noWatch := flag.Bool("no-watch", false, "Disable live reload when data files change")
	flag.Parse()

	if *help {
		fmt.Println("Usage: tg [options] [data files...]")
		fmt.Println("\nA terminal tree grid for hierarchical JSON, JSONL, YAML and SQLite data.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("tg %s\n", version.Version)
		os.Exit(0)
	}

	if *initFlag {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting current directory: %v\n", err)
			os.Exit(1)
		}
		path, err := initProject(cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing project: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
		os.Exit(0)
	}

	cfg, root, err := loadProject(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	paths, err := resolveDataPaths(flag.Args(), cfg, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving data files: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Println("No data files found. Pass files as arguments or list them under 'data:' in .treegrid/config.yaml.")
		os.Exit(0)
	}

	ctx := context.Background()
	rows, err := loader.LoadAll(ctx, paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading data: %v\n", err)
		os.Exit(1)
	}

	opts, err := sessionOptions(cfg, rows, *sortSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session, err := grid.NewSession(rows, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building grid: %v\n", err)
		os.Exit(1)
	}

	out := outputs{
		robotState: *robotState,
		sqlite:     *exportSQLite,
		jsonRows:   *exportJSON,
		markdown:   *exportMD,
		svg:        *exportSVG,
	}
	interactive := !out.any() && term.IsTerminal(int(os.Stdout.Fd()))

	var stateDir string
	if interactive && root != "" {
		stateDir = config.StateDir(root)
		ui.RestoreTreeState(session, stateDir)
	}

	in, err := parseIntents(*selectIDs, *expandIDs, *expandAll)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := in.apply(session); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	title := titleFor(paths)

	if out.any() {
		if err := writeOutputs(ctx, os.Stdout, os.Stderr, session, title, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Piped output gets the Markdown rendering of the initial view.
	if !interactive {
		md, err := export.GenerateMarkdown(export.NewSnapshot(session, title))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(md)
		os.Exit(0)
	}

	if os.Getenv(debugEnv) != "" {
		f, err := tea.LogToFile(os.Getenv(debugEnv), "tg")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		// Warnings would corrupt the alternate screen.
		log.SetOutput(io.Discard)
	}

	m := ui.NewModel(session, ui.DefaultTheme(lipgloss.DefaultRenderer()))
	m.SetTitle(title)
	m.SetStateDir(stateDir, root)

	// The worker exists even without watching so the refresh key works. It
	// must be bound before NewProgram copies the model.
	hash, err := loader.Fingerprint(paths)
	if err != nil {
		log.Printf("warning: fingerprinting data files: %v", err)
	}
	sender := &programSender{}
	worker, err := ui.NewReloadWorker(ui.WorkerConfig{
		Paths:         paths,
		DebounceDelay: cfg.DebounceDuration(),
		Program:       sender,
		InitialHash:   hash,
		DisableWatch:  *noWatch || !cfg.WatchEnabled(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
	} else {
		m.SetReloader(worker)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	sender.p = p

	if worker != nil {
		if err := worker.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		}
		defer worker.Stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running treegrid: %v\n", err)
		os.Exit(1)
	}
}

// programSender forwards reload messages once the program exists.
type programSender struct {
	p *tea.Program
}

func (s *programSender) Send(msg tea.Msg) {
	if s.p != nil {
		s.p.Send(msg)
	}
}

// outputs are the headless results requested on the command line.
type outputs struct {
	robotState bool
	sqlite     string
	jsonRows   string
	markdown   string
	svg        string
}

func (o outputs) any() bool {
	return o.robotState || o.sqlite != "" || o.jsonRows != "" || o.markdown != "" || o.svg != ""
}

// writeOutputs writes every requested export, then the robot state to
// stdout. Progress lines go to stderr when stdout carries JSON.
func writeOutputs(ctx context.Context, stdout, stderr io.Writer, s *grid.Session, title string, o outputs) error {
	progress := stdout
	if o.robotState {
		progress = stderr
	}
	exports := []struct {
		path  string
		label string
		save  func(string) error
	}{
		{o.sqlite, "Writing rows to", func(path string) error {
			return loader.SaveSQLite(ctx, path, s.Store().Roots())
		}},
		{o.jsonRows, "Writing rows to", func(path string) error {
			return loader.SaveJSON(path, s.Store().Roots())
		}},
		{o.markdown, "Exporting to", func(path string) error {
			return export.SaveMarkdownToFile(s, title, path)
		}},
		{o.svg, "Exporting to", func(path string) error {
			return export.SaveSVGToFile(s, title, path)
		}},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		fmt.Fprintf(progress, "%s %s...\n", e.label, e.path)
		if err := e.save(e.path); err != nil {
			return fmt.Errorf("exporting %s: %w", e.path, err)
		}
		fmt.Fprintln(progress, "Done!")
	}

	if o.robotState {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(buildRobotState(s, title)); err != nil {
			return fmt.Errorf("encoding state: %w", err)
		}
	}
	return nil
}

// loadProject loads the configuration and returns the project root. An
// explicit config path makes its project the root; otherwise the root is
// discovered from the working directory and may be empty.
func loadProject(configPath string) (*config.Config, string, error) {
	if configPath == "" {
		cfg, _, err := config.Load()
		if err != nil {
			return nil, "", err
		}
		root, _ := config.DetectProjectRoot()
		return cfg, root, nil
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, projectRootFor(configPath), nil
}

// projectRootFor maps a config file to its project: the parent of the
// .treegrid directory holding it, or else the directory it lives in.
func projectRootFor(configPath string) string {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	dir := filepath.Dir(abs)
	if filepath.Base(dir) == loader.StateDirName {
		return filepath.Dir(dir)
	}
	return dir
}

// resolveDataPaths prefers files named on the command line over the
// configured ones.
func resolveDataPaths(args []string, cfg *config.Config, root string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = cwd
	}
	return cfg.ResolveDataFiles(root)
}

func sessionOptions(cfg *config.Config, rows []*model.Row, sortSpec string) (grid.Options, error) {
	opts := grid.Options{
		Columns: cfg.ColumnsFor(rows),
		Levels:  cfg.Levels,
		Sort:    cfg.Sort,
	}
	if sortSpec != "" {
		descs, err := model.ParseSortDescriptors(sortSpec)
		if err != nil {
			return grid.Options{}, fmt.Errorf("invalid -sort: %w", err)
		}
		opts.Sort = descs
	}
	return opts, nil
}

// initProject writes an example config under dir/.treegrid and makes sure
// git ignores that directory. An existing config is never overwritten.
func initProject(dir string) (string, error) {
	path := filepath.Join(config.StateDir(dir), config.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	data, err := config.ExampleConfig().Marshal()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	if err := loader.EnsureStateDirIgnored(dir); err != nil {
		return "", fmt.Errorf("updating .gitignore: %w", err)
	}
	return path, nil
}

func titleFor(paths []string) string {
	if len(paths) == 1 {
		return filepath.Base(paths[0])
	}
	return fmt.Sprintf("treegrid (%d files)", len(paths))
}

// intents are the grid actions requested on the command line, replayed
// against the session before anything is shown.
type intents struct {
	selectIDs []int
	expandIDs []int
	expandAll bool
}

func parseIntents(selectIDs, expandIDs string, expandAll bool) (intents, error) {
	sel, err := parseIDs(selectIDs)
	if err != nil {
		return intents{}, fmt.Errorf("invalid -select: %w", err)
	}
	exp, err := parseIDs(expandIDs)
	if err != nil {
		return intents{}, fmt.Errorf("invalid -expand: %w", err)
	}
	return intents{selectIDs: sel, expandIDs: exp, expandAll: expandAll}, nil
}

// parseIDs parses a comma-separated id list. Blank entries are skipped.
func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a row id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (in intents) apply(s *grid.Session) error {
	store := s.Store()
	for _, id := range append(append([]int(nil), in.selectIDs...), in.expandIDs...) {
		if err := store.Require(id); err != nil {
			return err
		}
	}

	if in.expandAll {
		s.OnExpandAll()
	}
	for _, id := range in.expandIDs {
		for _, a := range store.Ancestors(id) {
			s.Expansion().Expand(a.ID)
		}
		s.Expansion().Expand(id)
	}
	for _, id := range in.selectIDs {
		if !s.IsSelected(id) {
			s.OnRowToggle(id, true)
		}
	}
	return nil
}

// robotState is the -robot-state output.
type robotState struct {
	Title    string                 `json:"title"`
	Total    int                    `json:"total"`
	Columns  []robotColumn          `json:"columns"`
	Sort     []model.SortDescriptor `json:"sort"`
	Order    []int                  `json:"order"`
	Selected []int                  `json:"selected"`
	Expanded []int                  `json:"expanded"`
	Visible  []robotRow             `json:"visible"`
}

type robotColumn struct {
	Title string `json:"title"`
	Field string `json:"field"`
	Width int    `json:"width,omitempty"`
}

type robotRow struct {
	ID       int    `json:"id"`
	Depth    int    `json:"depth"`
	Expanded bool   `json:"expanded,omitempty"`
	Checked  string `json:"checked"`
}

func buildRobotState(s *grid.Session, title string) robotState {
	snap := export.NewSnapshot(s, title)
	out := robotState{
		Title:    snap.Title,
		Total:    snap.Total,
		Columns:  make([]robotColumn, 0, len(snap.Columns)),
		Sort:     snap.Sort,
		Order:    make([]int, 0, len(s.TopLevel())),
		Selected: snap.Selected,
		Expanded: snap.Expanded,
		Visible:  make([]robotRow, 0, len(snap.Rows)),
	}
	if out.Sort == nil {
		out.Sort = []model.SortDescriptor{}
	}
	if out.Selected == nil {
		out.Selected = []int{}
	}
	if out.Expanded == nil {
		out.Expanded = []int{}
	}
	for _, c := range snap.Columns {
		out.Columns = append(out.Columns, robotColumn{Title: c.Title, Field: c.Field, Width: c.Width})
	}
	for _, r := range s.TopLevel() {
		out.Order = append(out.Order, r.ID)
	}
	for i, r := range snap.Rows {
		out.Visible = append(out.Visible, robotRow{
			ID:       r.Row.ID,
			Depth:    r.Depth,
			Expanded: r.Expanded,
			Checked:  checkedName(snap.States[i]),
		})
	}
	return out
}

func checkedName(state grid.CheckState) string {
	switch state {
	case grid.Checked:
		return "checked"
	case grid.Indeterminate:
		return "partial"
	default:
		return "unchecked"
	}
}
