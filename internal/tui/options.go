package tui

import "charm.land/bubbles/v2/key"

type KeyOverrides struct {
	Undo      string
	Redo      string
	ClearRedo string
}

type Option func(*Model)

func WithKeyOverrides(overrides KeyOverrides) Option {
	return func(m *Model) {
		if overrides.Undo != "" {
			m.keys.undo = key.NewBinding(key.WithKeys(overrides.Undo), key.WithHelp(overrides.Undo, "undo"))
		}
		if overrides.Redo != "" {
			m.keys.redo = key.NewBinding(key.WithKeys(overrides.Redo), key.WithHelp(overrides.Redo, "redo"))
		}
		if overrides.ClearRedo != "" {
			m.keys.clearRedo = key.NewBinding(key.WithKeys(overrides.ClearRedo), key.WithHelp(overrides.ClearRedo, "clear redo"))
		}
	}
}
