// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the chat TUI. The composer owns
// the keyboard, so everything here is either a control chord or a key
// the composer has no use for (page up/down, arrows).
type KeyMap struct {
	// Transcript scrollback.
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// Composer history recall.
	HistoryPrevious key.Binding
	HistoryNext     key.Binding

	// Composer line navigation.
	LineStart key.Binding
	LineEnd   key.Binding

	// ClearInput empties the composer.
	ClearInput key.Binding

	Send key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set. Readline-style line
// navigation (ctrl+a/ctrl+e) alongside Home/End.
var DefaultKeyMap = KeyMap{
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "scroll down"),
	),
	HistoryPrevious: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "history"),
	),
	HistoryNext: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "history"),
	),
	LineStart: key.NewBinding(
		key.WithKeys("home", "ctrl+a"),
		key.WithHelp("C-a", "line start"),
	),
	LineEnd: key.NewBinding(
		key.WithKeys("end", "ctrl+e"),
		key.WithHelp("C-e", "line end"),
	),
	ClearInput: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "clear input"),
	),
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "send"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
}
