package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send        key.Binding
	Newline     key.Binding
	NewChat     key.Binding
	NextSession key.Binding
	PrevSession key.Binding
	Delete      key.Binding
	Theme       key.Binding
	Attach      key.Binding
	Prompt      key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Cancel      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewChat, k.NextSession, k.Attach, k.Prompt, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Newline, k.Attach, k.Prompt},
		{k.NewChat, k.NextSession, k.PrevSession, k.Delete},
		{k.ScrollUp, k.ScrollDown, k.Theme, k.Help, k.Quit},
	}
}

// The compose textarea also binds several ctrl keys; these are matched first.
var defaultKeyMap = keyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Newline: key.NewBinding(
		key.WithKeys("alt+enter"),
		key.WithHelp("alt+enter", "newline"),
	),
	NewChat: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", "new chat"),
	),
	NextSession: key.NewBinding(
		key.WithKeys("ctrl+o", "ctrl+down"),
		key.WithHelp("ctrl+o", "next chat"),
	),
	PrevSession: key.NewBinding(
		key.WithKeys("ctrl+up"),
		key.WithHelp("ctrl+↑", "previous chat"),
	),
	Delete: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "delete chat"),
	),
	Theme: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "theme"),
	),
	Attach: key.NewBinding(
		key.WithKeys("ctrl+a"),
		key.WithHelp("ctrl+a", "attach image"),
	),
	Prompt: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "suggestion"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "scroll down"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}
