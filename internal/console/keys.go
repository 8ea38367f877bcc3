package console

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the console key bindings.
type KeyMap struct {
	Capture   key.Binding
	PrevRoom  key.Binding
	NextRoom  key.Binding
	PrevDraw  key.Binding
	NextDraw  key.Binding
	Apply     key.Binding
	Reload    key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Retry     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Capture: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "capture"),
		),
		PrevRoom: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "room"),
		),
		NextRoom: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "room"),
		),
		PrevDraw: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "drawer"),
		),
		NextDraw: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "drawer"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter", "a"),
			key.WithHelp("enter", "apply location"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+l", "f5"),
			key.WithHelp("ctrl+l", "reload"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "retry"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}
