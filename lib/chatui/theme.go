// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the chat TUI. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Transcript roles.
	SelfName  lipgloss.Color // Our own display name.
	PeerName  lipgloss.Color // Other human participants.
	AgentName lipgloss.Color // Debate agents.
	Timestamp lipgloss.Color

	// Transcript line categories.
	SystemText lipgloss.Color // Joins, leaves, room changes.
	DebateText lipgloss.Color // Debate lifecycle lines.
	ErrorText  lipgloss.Color // Server errors and terminal failures.

	// Connection state indicator.
	StateHealthy lipgloss.Color
	StateHealing lipgloss.Color
	StateDown    lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	TypingText       lipgloss.Color

	// Status bar notices.
	NoticeInfo  lipgloss.Color
	NoticeWarn  lipgloss.Color
	NoticeError lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed for
// 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelfName:  lipgloss.Color("114"), // green
	PeerName:  lipgloss.Color("75"),  // blue
	AgentName: lipgloss.Color("141"), // light purple
	Timestamp: lipgloss.Color("240"), // dim gray

	SystemText: lipgloss.Color("245"), // gray
	DebateText: lipgloss.Color("220"), // amber
	ErrorText:  lipgloss.Color("196"), // red

	StateHealthy: lipgloss.Color("114"), // green
	StateHealing: lipgloss.Color("220"), // amber
	StateDown:    lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	TypingText:       lipgloss.Color("245"),

	NoticeInfo:  lipgloss.Color("252"),
	NoticeWarn:  lipgloss.Color("220"),
	NoticeError: lipgloss.Color("196"),
}
