package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treegrid/pkg/export"
	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/model"
)

// resizeStep is how many cells +/- change a column width.
const resizeStep = 2

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// Reloader reloads the data files on request. *ReloadWorker satisfies it.
type Reloader interface {
	TriggerRefresh()
}

// Model is the bubbletea model for the tree grid. It owns the session and is
// the only code that mutates it.
type Model struct {
	session *grid.Session
	snap    export.Snapshot // what the grid currently shows
	theme   Theme
	keys    KeyMap
	title   string

	cursor         int // index into snap.Rows
	viewportOffset int // first rendered row
	focusCol       int // index into the top-level columns
	width          int
	height         int

	status    string
	reloadErr *ReloadError
	reloader  Reloader

	showHelp       bool
	help           HelpModel
	showSortPicker bool
	sortPicker     SortPickerModel

	// Persistence
	stateDir      string // directory holding tree-state.json
	projectRoot   string // directory whose .gitignore covers stateDir
	ignoreChecked bool
}

// NewModel creates the grid model over s.
func NewModel(s *grid.Session, theme Theme) Model {
	m := Model{
		session: s,
		theme:   theme,
		keys:    DefaultKeyMap(),
		title:   "treegrid",
		help:    NewHelpModel(theme),
	}
	m.refresh()
	return m
}

// SetTitle sets the title shown above the grid.
func (m *Model) SetTitle(title string) {
	m.title = title
	m.refresh()
}

// SetStateDir enables expansion persistence under dir. projectRoot, when
// set, gets dir added to its .gitignore on the first write. Use
// RestoreTreeState to load what was saved there.
func (m *Model) SetStateDir(dir, projectRoot string) {
	m.stateDir = dir
	m.projectRoot = projectRoot
}

// SetReloader binds the refresh key to r.
func (m *Model) SetReloader(r Reloader) {
	m.reloader = r
}

// Session returns the grid session.
func (m Model) Session() *grid.Session {
	return m.session
}

// Status returns the footer status message.
func (m Model) Status() string {
	return m.status
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle(m.title)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.sortPicker.SetSize(msg.Width, msg.Height)
		m.ensureCursorVisible()
		return m, nil

	case RowsReloadedMsg:
		if err := m.session.Reload(msg.Rows); err != nil {
			m.status = fmt.Sprintf("reload rejected: %v", err)
		} else {
			m.reloadErr = nil
			m.status = fmt.Sprintf("reloaded %d rows", m.session.Store().Len())
		}
		m.refresh()
		return m, nil

	case ReloadErrorMsg:
		m.reloadErr = msg.Err
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			return m.updateHelp(msg)
		}
		if m.showSortPicker {
			return m.updateSortPicker(msg), nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "?", "esc", "q":
		m.showHelp = false
		return m, nil
	}
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

func (m Model) updateSortPicker(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "j", "down":
		m.sortPicker.MoveDown()
	case "k", "up":
		m.sortPicker.MoveUp()
	case "enter", " ":
		m.sortPicker.Cycle()
		m.applySort(m.sortPicker.Sort())
	case "x":
		m.sortPicker.Clear()
		m.applySort(nil)
	case "esc", "S", "q":
		m.showSortPicker = false
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.MoveDown()
	case key.Matches(msg, m.keys.PageUp):
		m.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.JumpToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.JumpToBottom()
	case key.Matches(msg, m.keys.Toggle):
		m.ToggleSelected()
	case key.Matches(msg, m.keys.ToggleAll):
		m.ToggleAll()
	case key.Matches(msg, m.keys.Expand):
		m.ExpandOrMoveToChild()
	case key.Matches(msg, m.keys.Collapse):
		m.CollapseOrJumpToParent()
	case key.Matches(msg, m.keys.ExpandAll):
		m.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		m.CollapseAll()
	case key.Matches(msg, m.keys.NextColumn):
		m.FocusColumn(m.focusCol + 1)
	case key.Matches(msg, m.keys.PrevColumn):
		m.FocusColumn(m.focusCol - 1)
	case key.Matches(msg, m.keys.MoveLeft):
		m.MoveColumn(-1)
	case key.Matches(msg, m.keys.MoveRight):
		m.MoveColumn(1)
	case key.Matches(msg, m.keys.Widen):
		m.ResizeColumn(resizeStep)
	case key.Matches(msg, m.keys.Narrow):
		m.ResizeColumn(-resizeStep)
	case key.Matches(msg, m.keys.Sort):
		m.CycleSortFocused()
	case key.Matches(msg, m.keys.SortPicker):
		m.sortPicker = NewSortPickerModel(m.session.Columns(), m.session.Sort(), m.theme)
		m.sortPicker.SetSize(m.width, m.height)
		m.showSortPicker = true
	case key.Matches(msg, m.keys.Copy):
		m.CopySelected()
	case key.Matches(msg, m.keys.Refresh):
		if m.reloader == nil {
			m.status = "reload unavailable"
			break
		}
		m.reloader.TriggerRefresh()
		m.status = "reloading..."
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	}
	return m, nil
}

// refresh re-reads the session after an intent, keeping the cursor on the
// same row when it is still visible.
func (m *Model) refresh() {
	prev, hadPrev := m.currentID()
	m.snap = export.NewSnapshot(m.session, m.title)
	if hadPrev && m.SelectByID(prev) {
		m.ensureCursorVisible()
		return
	}
	m.clampCursor()
}

// FocusColumn moves column focus to index i of the top-level columns.
func (m *Model) FocusColumn(i int) {
	n := len(m.snap.Columns)
	if n == 0 {
		m.focusCol = 0
		return
	}
	m.focusCol = (i%n + n) % n
}

// FocusedColumn returns the focused top-level column.
func (m *Model) FocusedColumn() (model.ColumnConfig, bool) {
	if m.focusCol < 0 || m.focusCol >= len(m.snap.Columns) {
		return model.ColumnConfig{}, false
	}
	return m.snap.Columns[m.focusCol], true
}

// MoveColumn shifts the focused column by delta positions. Rejected moves
// leave the layout unchanged and explain why in the status line.
func (m *Model) MoveColumn(delta int) {
	col, ok := m.FocusedColumn()
	if !ok {
		return
	}
	from := m.focusCol + grid.SelectColumnOffset
	to := from + delta
	if err := m.session.Layout().CheckReorder(col.Title, from, to); err != nil {
		m.status = fmt.Sprintf("cannot move %s: %v", col.Title, err)
		return
	}
	m.session.OnColumnReorder(col.Title, from, to)
	m.focusCol = to - grid.SelectColumnOffset
	m.refresh()
}

// ResizeColumn changes the focused column width by delta cells.
func (m *Model) ResizeColumn(delta int) {
	col, ok := m.FocusedColumn()
	if !ok {
		return
	}
	if err := m.session.Layout().CheckResize(col.Title); err != nil {
		m.status = fmt.Sprintf("cannot resize %s: %v", col.Title, err)
		return
	}
	m.session.OnColumnResize(col.Title, columnWidth(col)+delta)
	m.refresh()
}

// CycleSortFocused cycles the sort of the focused column.
func (m *Model) CycleSortFocused() {
	col, ok := m.FocusedColumn()
	if !ok {
		return
	}
	m.applySort(grid.CycleSort(m.session.Sort(), col.Field))
}

func (m *Model) applySort(descs []model.SortDescriptor) {
	m.session.OnSortChange(descs)
	m.refresh()
}

// CopySelected copies the selected ids to the clipboard.
func (m *Model) CopySelected() {
	ids := m.session.Selection().Selected()
	if len(ids) == 0 {
		m.status = "nothing selected"
		return
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	if err := writeClipboard(strings.Join(parts, ",")); err != nil {
		m.status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("copied %d ids", len(ids))
}
