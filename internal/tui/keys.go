package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	First  key.Binding
	Last   key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Left:   key.NewBinding(key.WithKeys("left", "h", "a"), key.WithHelp("←/h", "left")),
	Right:  key.NewBinding(key.WithKeys("right", "l", "d"), key.WithHelp("→/l", "right")),
	Up:     key.NewBinding(key.WithKeys("up", "k", "w"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j", "s"), key.WithHelp("↓/j", "down")),
	First:  key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first")),
	Last:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last")),
	Reload: key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reload")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.First, k.Last, k.Reload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
