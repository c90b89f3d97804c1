package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Edit    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Form    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Submit  key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Form:    key.NewBinding(key.WithKeys("a", "tab"), key.WithHelp("a/tab", "form")),
		Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "table")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// tableHelp and formHelp implement help.KeyMap for the two focus areas.
type tableHelp struct{ k keyMap }

func (h tableHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Edit, h.k.Delete, h.k.Refresh, h.k.Form, h.k.Quit}
}

func (h tableHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.ShortHelp()} }

type formHelp struct{ k keyMap }

func (h formHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Submit, h.k.Next, h.k.Prev, h.k.Back}
}

func (h formHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h.ShortHelp()} }
