package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Run      key.Binding
	Reset    key.Binding
	NextCard key.Binding
	PrevCard key.Binding
	Details  key.Binding
	CopyCard key.Binding
	CopyIn   key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Tab      key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Run, k.Reset, k.NextCard, k.Details, k.CopyCard, k.CopyIn, k.Tab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Run, k.Reset},
		{k.PrevCard, k.NextCard, k.Details, k.CopyCard, k.CopyIn},
		{k.ScrollUp, k.ScrollDn, k.Tab, k.Quit},
	}
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "scenario")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next scenario")),
	Run:      key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("⏎/r", "run")),
	Reset:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
	NextCard: key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "card")),
	PrevCard: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous card")),
	Details:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
	CopyCard: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy card")),
	CopyIn:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy input")),
	ScrollUp: key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
	ScrollDn: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
	Tab:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "view")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q/esc", "quit")),
}
