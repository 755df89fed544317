package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding the picker reacts to. It implements help.KeyMap.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	MoveUp      key.Binding
	MoveDown    key.Binding
	ToggleRun   key.Binding
	ToggleDebug key.Binding
	DelayUp     key.Binding
	DelayDown   key.Binding
	Inspect     key.Binding
	Edit        key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	Help        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("shift+up", "K"),
			key.WithHelp("⇧↑/K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("shift+down", "J"),
			key.WithHelp("⇧↓/J", "move down"),
		),
		ToggleRun: key.NewBinding(
			key.WithKeys(" ", "r"),
			key.WithHelp("space/r", "run"),
		),
		ToggleDebug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "debug"),
		),
		DelayUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "delay +1s"),
		),
		DelayDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "delay -1s"),
		),
		Inspect: key.NewBinding(
			key.WithKeys("i", "tab"),
			key.WithHelp("i", "details"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit config"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter", "ctrl+s"),
			key.WithHelp("enter", "launch"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("esc/q", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleRun, k.ToggleDebug, k.MoveUp, k.MoveDown, k.Confirm, k.Cancel, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown},
		{k.ToggleRun, k.ToggleDebug, k.Inspect, k.Edit},
		{k.DelayUp, k.DelayDown},
		{k.Confirm, k.Cancel, k.Help},
	}
}
