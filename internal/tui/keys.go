package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Toggle    key.Binding
	AddExact  key.Binding
	AddRegex  key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Reorder   key.Binding
	TestURL   key.Binding
	Reload    key.Binding
	Quit      key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	SwapRegex key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	MoveUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "raise priority")),
	MoveDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "lower priority")),
	Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "enable/disable")),
	AddExact:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add URL")),
	AddRegex:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "add regex")),
	Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	Delete:    key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
	Reorder:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "toggle reorder")),
	TestURL:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test URL")),
	Reload:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Confirm:   key.NewBinding(key.WithKeys("enter")),
	Cancel:    key.NewBinding(key.WithKeys("esc")),
	SwapRegex: key.NewBinding(key.WithKeys("tab")),
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.MoveUp, k.MoveDown, k.Toggle, k.AddExact, k.AddRegex, k.Edit, k.Delete, k.Reorder, k.TestURL, k.Quit}
}
