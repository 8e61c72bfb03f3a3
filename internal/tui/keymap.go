package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	NextMonth key.Binding
	PrevMonth key.Binding

	// Editing
	Edit        key.Binding
	ToggleType  key.Binding
	Increment   key.Binding
	Decrement   key.Binding
	AddRow      key.Binding
	AddMonth    key.Binding
	EditMonth   key.Binding
	DeleteRow   key.Binding
	DeleteMonth key.Binding

	// Application
	Save      key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "right"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next month"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("Shift+Tab", "previous month"),
		),

		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("Enter/e", "edit cell"),
		),
		ToggleType: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle referral type"),
		),
		Increment: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "increment"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "decrement"),
		),
		AddRow: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add source"),
		),
		AddMonth: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "add month"),
		),
		EditMonth: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "edit month label"),
		),
		DeleteRow: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete source"),
		),
		DeleteMonth: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete month"),
		),

		Save: key.NewBinding(
			key.WithKeys("ctrl+s", "s"),
			key.WithHelp("s", "save"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q/Esc", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Save, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.NextMonth, k.PrevMonth, k.AddMonth, k.EditMonth},
		{k.Edit, k.ToggleType, k.Increment, k.Decrement},
		{k.AddRow, k.DeleteRow, k.DeleteMonth},
		{k.Save, k.Help, k.Quit},
	}
}
