package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the grid key bindings.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Toggle      key.Binding
	ToggleAll   key.Binding
	Expand      key.Binding
	Collapse    key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	NextColumn  key.Binding
	PrevColumn  key.Binding
	MoveLeft    key.Binding
	MoveRight   key.Binding
	Widen       key.Binding
	Narrow      key.Binding
	Sort        key.Binding
	SortPicker  key.Binding
	Copy        key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		ToggleAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		Expand:      key.NewBinding(key.WithKeys("enter", "l", "right"), key.WithHelp("enter/l", "expand")),
		Collapse:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "collapse")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		NextColumn:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next column")),
		PrevColumn:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev column")),
		MoveLeft:    key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "move column left")),
		MoveRight:   key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "move column right")),
		Widen:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "widen column")),
		Narrow:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "narrow column")),
		Sort:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		SortPicker:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sort picker")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy ids")),
		Refresh:     key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "reload")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Expand, k.Collapse, k.NextColumn, k.Sort, k.Help, k.Quit}
}
