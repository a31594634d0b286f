// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// composerHistoryLimit bounds the submit history ring.
const composerHistoryLimit = 100

// composer is the single-line input editor at the bottom of the
// screen. It implements cursor editing over a rune buffer plus a
// shell-style submit history recalled with up/down.
type composer struct {
	buffer []rune
	cursor int

	// history holds previously submitted lines, oldest first.
	// historyIndex == len(history) means the live line is being
	// edited; anything less means a history entry is displayed.
	history      []string
	historyIndex int

	// draft preserves the live line while browsing history so coming
	// back down restores it.
	draft []rune
}

func newComposer() composer {
	return composer{}
}

// value returns the current line.
func (c *composer) value() string {
	return string(c.buffer)
}

// empty reports whether the line has no content.
func (c *composer) empty() bool {
	return len(c.buffer) == 0
}

// insert adds runes at the cursor. Editing while a history entry is
// displayed forks it into the live line.
func (c *composer) insert(runes []rune) {
	c.detachHistory()
	for _, character := range runes {
		c.buffer = append(c.buffer, 0)
		copy(c.buffer[c.cursor+1:], c.buffer[c.cursor:])
		c.buffer[c.cursor] = character
		c.cursor++
	}
}

// backspace removes the rune before the cursor.
func (c *composer) backspace() {
	if c.cursor == 0 {
		return
	}
	c.detachHistory()
	c.buffer = append(c.buffer[:c.cursor-1], c.buffer[c.cursor:]...)
	c.cursor--
}

// deleteForward removes the rune under the cursor.
func (c *composer) deleteForward() {
	if c.cursor >= len(c.buffer) {
		return
	}
	c.detachHistory()
	c.buffer = append(c.buffer[:c.cursor], c.buffer[c.cursor+1:]...)
}

func (c *composer) left() {
	if c.cursor > 0 {
		c.cursor--
	}
}

func (c *composer) right() {
	if c.cursor < len(c.buffer) {
		c.cursor++
	}
}

func (c *composer) lineStart() { c.cursor = 0 }

func (c *composer) lineEnd() { c.cursor = len(c.buffer) }

// clear empties the line and returns to the live edit position.
func (c *composer) clear() {
	c.buffer = nil
	c.cursor = 0
	c.draft = nil
	c.historyIndex = len(c.history)
}

// submit returns the current line, pushes it onto the history, and
// resets the editor. Blank lines are returned but not recorded.
func (c *composer) submit() string {
	line := string(c.buffer)
	if strings.TrimSpace(line) != "" {
		c.history = append(c.history, line)
		if len(c.history) > composerHistoryLimit {
			c.history = c.history[len(c.history)-composerHistoryLimit:]
		}
	}
	c.clear()
	return line
}

// historyPrevious replaces the line with the previous history entry.
// The live line is stashed on first use so historyNext can restore it.
func (c *composer) historyPrevious() {
	if c.historyIndex == 0 || len(c.history) == 0 {
		return
	}
	if c.historyIndex == len(c.history) {
		c.draft = append([]rune(nil), c.buffer...)
	}
	c.historyIndex--
	c.buffer = []rune(c.history[c.historyIndex])
	c.cursor = len(c.buffer)
}

// historyNext moves toward the live line, restoring the stashed draft
// when it walks off the end of the history.
func (c *composer) historyNext() {
	if c.historyIndex >= len(c.history) {
		return
	}
	c.historyIndex++
	if c.historyIndex == len(c.history) {
		c.buffer = c.draft
		c.draft = nil
	} else {
		c.buffer = []rune(c.history[c.historyIndex])
	}
	c.cursor = len(c.buffer)
}

// detachHistory forks a displayed history entry into the live line so
// edits never mutate the history itself.
func (c *composer) detachHistory() {
	if c.historyIndex == len(c.history) {
		return
	}
	c.buffer = append([]rune(nil), c.buffer...)
	c.historyIndex = len(c.history)
	c.draft = nil
}

// view renders the prompt and the line with a block cursor, in the
// same reverse-video style the rest of the UI uses for inline editing.
// Lines wider than the terminal scroll horizontally so the cursor
// stays visible.
func (c *composer) view(theme Theme, width int) string {
	prompt := "> "
	visible := width - len(prompt) - 1
	if visible < 1 {
		visible = 1
	}

	// Slide the window so the cursor is always inside it.
	start := 0
	if c.cursor >= visible {
		start = c.cursor - visible + 1
	}
	end := start + visible
	if end > len(c.buffer) {
		end = len(c.buffer)
	}
	window := c.buffer[start:end]
	cursor := c.cursor - start

	cursorStyle := lipgloss.NewStyle().Reverse(true)
	promptStyle := lipgloss.NewStyle().Foreground(theme.FaintText)
	textStyle := lipgloss.NewStyle().Foreground(theme.NormalText)

	var line string
	if cursor >= len(window) {
		line = textStyle.Render(string(window)) + cursorStyle.Render(" ")
	} else {
		before := string(window[:cursor])
		atCursor := string(window[cursor : cursor+1])
		after := string(window[cursor+1:])
		line = textStyle.Render(before) + cursorStyle.Render(atCursor) + textStyle.Render(after)
	}

	return promptStyle.Render(prompt) + line
}
