package watch

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap defines key bindings for the live view
type keyMap struct {
	Hold   key.Binding
	MinMax key.Binding
	Save   key.Binding
	Reset  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hold, k.MinMax, k.Save, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Hold, k.MinMax, k.Save},
		{k.Reset, k.Help, k.Quit},
	}
}

func defaultKeys() keyMap {
	return keyMap{
		Hold: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hold"),
		),
		MinMax: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "min/max"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save reading"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset stats"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
