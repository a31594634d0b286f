// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// transcriptLimit caps retained scrollback. The server replays at most
// the last 50 messages on join; the rest accumulates live.
const transcriptLimit = 500

// entryKind selects the rendering style for a transcript entry.
type entryKind int

const (
	entryMessage entryKind = iota
	entrySystem
	entryDebate
	entryError
)

// entry is one transcript item, kept in semantic form so the pane can
// re-wrap everything when the terminal is resized.
type entry struct {
	kind entryKind
	when time.Time

	// Message fields.
	sender string
	self   bool
	agent  bool

	text string
}

// transcript is the scrollback pane. It renders entries into a
// viewport and follows the bottom edge unless the user has scrolled
// up, in which case new entries accumulate without yanking the view.
type transcript struct {
	viewport viewport.Model
	theme    Theme
	entries  []entry
	width    int
	ready    bool
}

func newTranscript(theme Theme) transcript {
	return transcript{theme: theme}
}

// setSize resizes the viewport and re-wraps all content. One column
// is reserved for the scrollbar.
func (t *transcript) setSize(width, height int) {
	t.width = width - 1
	if t.width < 1 {
		t.width = 1
	}
	t.viewport.Width = t.width
	t.viewport.Height = height
	t.ready = true
	t.refresh(true)
}

// append adds an entry, trimming the scrollback cap, and keeps the
// view glued to the bottom only if it was there already.
func (t *transcript) append(item entry) {
	t.entries = append(t.entries, item)
	if len(t.entries) > transcriptLimit {
		t.entries = t.entries[len(t.entries)-transcriptLimit:]
	}
	t.refresh(t.viewport.AtBottom())
}

// clear drops all entries, typically on a room change.
func (t *transcript) clear() {
	t.entries = nil
	t.refresh(true)
}

// refresh re-renders all entries into the viewport.
func (t *transcript) refresh(follow bool) {
	if !t.ready {
		return
	}
	lines := make([]string, 0, len(t.entries))
	for _, item := range t.entries {
		lines = append(lines, t.render(item))
	}
	t.viewport.SetContent(strings.Join(lines, "\n"))
	if follow {
		t.viewport.GotoBottom()
	}
}

func (t *transcript) scrollUp()   { t.viewport.HalfViewUp() }
func (t *transcript) scrollDown() { t.viewport.HalfViewDown() }

func (t *transcript) view() string {
	bar := renderScrollbar(
		t.theme,
		t.viewport.Height,
		t.viewport.TotalLineCount(),
		t.viewport.Height,
		t.viewport.YOffset,
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, t.viewport.View(), bar)
}

// contains reports whether any entry's text contains the substring.
// Used by tests; cheaper than scraping the rendered view.
func (t *transcript) contains(substring string) bool {
	for _, item := range t.entries {
		if strings.Contains(item.text, substring) {
			return true
		}
	}
	return false
}

// text joins all entry texts. Used by tests to count occurrences.
func (t *transcript) text() string {
	parts := make([]string, 0, len(t.entries))
	for _, item := range t.entries {
		parts = append(parts, item.text)
	}
	return strings.Join(parts, "\n")
}

// render produces the wrapped, styled lines for one entry.
func (t *transcript) render(item entry) string {
	stamp := lipgloss.NewStyle().
		Foreground(t.theme.Timestamp).
		Render(item.when.Format("15:04"))

	var body string
	switch item.kind {
	case entryMessage:
		nameColor := t.theme.PeerName
		name := item.sender
		switch {
		case item.agent:
			nameColor = t.theme.AgentName
			name = "⚙ " + name
		case item.self:
			nameColor = t.theme.SelfName
		}
		styledName := lipgloss.NewStyle().Foreground(nameColor).Bold(true).Render(name)
		text := lipgloss.NewStyle().Foreground(t.theme.NormalText).Render(item.text)
		body = styledName + " " + text

	case entrySystem:
		body = lipgloss.NewStyle().Foreground(t.theme.SystemText).Render("-- " + item.text)

	case entryDebate:
		body = lipgloss.NewStyle().Foreground(t.theme.DebateText).Render("⚖ " + item.text)

	case entryError:
		body = lipgloss.NewStyle().Foreground(t.theme.ErrorText).Render("!! " + item.text)
	}

	return lipgloss.NewStyle().Width(t.width).Render(stamp + " " + body)
}
