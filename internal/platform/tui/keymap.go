package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/flappy-neat/internal/core"
)

// KeyMap defines the key bindings while a run is on screen.
type KeyMap struct {
	Jump    key.Binding
	Pause   key.Binding
	Restart key.Binding
	Fast    key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Jump, k.Pause, k.Restart, k.Fast, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Jump, k.Pause, k.Restart},
		{k.Fast, k.Quit},
	}
}

// PlayKeyMap returns the bindings for manual play.
func PlayKeyMap() KeyMap {
	k := baseKeyMap()
	k.Fast.SetEnabled(false)
	return k
}

// WatchKeyMap returns the bindings for watching agents. The agents fly
// themselves, so jumping and restarting are disabled.
func WatchKeyMap() KeyMap {
	k := baseKeyMap()
	k.Jump.SetEnabled(false)
	k.Restart.SetEnabled(false)
	return k
}

func baseKeyMap() KeyMap {
	return KeyMap{
		Jump: key.NewBinding(
			key.WithKeys(" ", "up", "w"),
			key.WithHelp("space/up", "flap"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", "esc"),
			key.WithHelp("p", "pause"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Fast: key.NewBinding(
			key.WithKeys("f", "tab"),
			key.WithHelp("f", "fast forward"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// MapKeyToFrame records the simulation action for a key in frame.
// Pause, restart and fast forward are display concerns and are returned
// for the model to handle.
func (k KeyMap) MapKeyToFrame(msg tea.KeyMsg, frame *core.InputFrame) core.Action {
	switch {
	case key.Matches(msg, k.Quit):
		frame.Set(core.ActionQuit)
		return core.ActionQuit
	case key.Matches(msg, k.Jump):
		frame.Set(core.ActionJump)
		return core.ActionJump
	case key.Matches(msg, k.Pause):
		return core.ActionPause
	}
	return core.ActionNone
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionHistory
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "tab", "h":
		return MenuActionHistory
	}

	return MenuActionNone
}
