package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Back       key.Binding

	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	Add      key.Binding
	Generate key.Binding
	Open     key.Binding
	Archived key.Binding
	Delete   key.Binding
	RunNext  key.Binding
	Refresh  key.Binding

	Copy       key.Binding
	Save       key.Binding
	Logs       key.Binding
	FilterLogs key.Binding
}

// defaultKeyMap returns the default key bindings.
func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:       key.NewBinding(key.WithKeys("?", "h"), key.WithHelp("?", "help")),
		CycleTheme: key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "queue")),

		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:    key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),

		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Generate: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate id")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "generate selected")),
		Archived: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open archived")),
		Delete:   key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		RunNext:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "run next")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),

		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy code")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save code")),
		Logs:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		FilterLogs: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "logs: selected only")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Generate, k.Open, k.Delete, k.RunNext, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Add, k.Generate, k.Open, k.Archived, k.Delete, k.RunNext, k.Refresh},
		{k.Copy, k.Save, k.Logs, k.FilterLogs},
		{k.CycleTheme, k.Back, k.Help, k.Quit},
	}
}
