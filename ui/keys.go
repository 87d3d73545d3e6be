package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle     key.Binding
	Stop       key.Binding
	CaretLeft  key.Binding
	CaretRight key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Faster     key.Binding
	Slower     key.Binding
	PitchUp    key.Binding
	PitchDown  key.Binding
	Louder     key.Binding
	Quieter    key.Binding
	Voice      key.Binding
	Edit       key.Binding
	Reload     key.Binding
	Copy       key.Binding
	Paste      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space", "enter"),
		key.WithHelp("space", "play/pause"),
	),
	Stop: key.NewBinding(
		key.WithKeys("s", "esc"),
		key.WithHelp("s/esc", "stop"),
	),
	CaretLeft: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "previous word"),
	),
	CaretRight: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next word"),
	),
	Top: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g/home", "go to top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G/end", "go to bottom"),
	),
	Faster: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "faster"),
	),
	Slower: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "slower"),
	),
	PitchUp: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "pitch up"),
	),
	PitchDown: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "pitch down"),
	),
	Louder: key.NewBinding(
		key.WithKeys(">", "."),
		key.WithHelp(">", "louder"),
	),
	Quieter: key.NewBinding(
		key.WithKeys("<", ","),
		key.WithHelp("<", "quieter"),
	),
	Voice: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "next voice"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit document"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload document"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y", "c"),
		key.WithHelp("y", "copy document"),
	),
	Paste: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "paste document"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stop, k.Faster, k.Slower, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stop, k.CaretLeft, k.CaretRight, k.Top, k.Bottom},
		{k.Faster, k.Slower, k.PitchUp, k.PitchDown, k.Louder, k.Quieter, k.Voice},
		{k.Edit, k.Reload, k.Copy, k.Paste, k.Help, k.Quit},
	}
}
