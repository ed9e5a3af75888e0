package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	toggleHelp key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	undo       key.Binding
	redo       key.Binding
	clearRedo  key.Binding
	clear      key.Binding
	refresh    key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "stack up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "stack down")),
		undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		redo:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "redo")),
		clearRedo:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear redo")),
		clear:      key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear stack")),
		refresh:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.undo, k.redo, k.clearRedo, k.toggleHelp, k.quit}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.refresh},
		{k.undo, k.redo, k.clearRedo, k.clear},
		{k.toggleHelp, k.quit},
	}
}
