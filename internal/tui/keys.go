package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the board.
type KeyMap struct {
	// Collection lifecycle.
	Add  key.Binding
	Save key.Binding
	Undo key.Binding

	// Focused note.
	FocusNext   key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Pin         key.Binding
	Breakpoints key.Binding
	Info        key.Binding
	Warning     key.Binding
	Error       key.Binding
	Success     key.Binding

	// Select-mode.
	SelectMode key.Binding
	Select     key.Binding
	AlignH     key.Binding // Same x for every selected note.
	AlignV     key.Binding // Same y for every selected note.
	NudgeUp    key.Binding
	NudgeDown  key.Binding
	NudgeLeft  key.Binding
	NudgeRight key.Binding

	// Modal answers.
	Confirm key.Binding
	Decline key.Binding

	// Escape leaves edit mode, cancels a drag or exits select-mode.
	Escape key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add"),
	),
	Save: key.NewBinding(
		key.WithKeys("s", "ctrl+s"),
		key.WithHelp("s", "save"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "undo"),
	),
	FocusNext: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next note"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e", "enter"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	Pin: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pin"),
	),
	Breakpoints: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "visibility"),
	),
	Info: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1-4", "severity"),
	),
	Warning: key.NewBinding(key.WithKeys("2")),
	Error:   key.NewBinding(key.WithKeys("3")),
	Success: key.NewBinding(key.WithKeys("4")),
	SelectMode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "select mode"),
	),
	Select: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("Space", "select"),
	),
	AlignH: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "align horizontal"),
	),
	AlignV: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "align vertical"),
	),
	NudgeUp: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("←↑↓→", "nudge"),
	),
	NudgeDown:  key.NewBinding(key.WithKeys("down")),
	NudgeLeft:  key.NewBinding(key.WithKeys("left")),
	NudgeRight: key.NewBinding(key.WithKeys("right")),
	Confirm: key.NewBinding(
		key.WithKeys("y", "enter"),
		key.WithHelp("y", "yes"),
	),
	Decline: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n", "no"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "done"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
