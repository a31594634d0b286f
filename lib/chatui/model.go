// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parleychat/parley/session"
	"github.com/parleychat/parley/wire"
)

const (
	// noticeFadeDelay is how long a status-bar notice stays visible
	// before fading back to the help line.
	noticeFadeDelay = 5 * time.Second

	// typingIdleDelay is how long after the last keystroke the
	// composer counts as idle and sends the typing-stop signal.
	typingIdleDelay = 3 * time.Second

	// typingPruneInterval drives expiry of peer typing indicators
	// whose TTL lapsed without an explicit stop.
	typingPruneInterval = time.Second
)

// chromeLines is the fixed vertical chrome around the transcript:
// header, separator, typing line, composer, status line.
const chromeLines = 5

// sessionEventMsg wraps one session event for the update loop.
type sessionEventMsg struct {
	event session.Event
}

// noticeFadeMsg clears the status-bar notice whose sequence number it
// carries. A stale sequence means a newer notice replaced it.
type noticeFadeMsg struct {
	seq int
}

// typingIdleMsg asks the model to check whether the local user went
// idle since the last keystroke.
type typingIdleMsg struct{}

// typingPruneMsg drives expiry of peer typing indicators.
type typingPruneMsg struct{}

// typingEntry is one peer currently typing, with the local deadline
// derived from the server's TTL.
type typingEntry struct {
	user    wire.User
	expires time.Time
}

// Model is the root bubbletea model for the chat client. It renders
// the transcript, composer, connection state, roster, typing
// indicators, and debate banner, and forwards input to the
// Controller.
type Model struct {
	ctrl   Controller
	config UIConfig
	theme  Theme
	keys   KeyMap

	width  int
	height int
	ready  bool

	transcript transcript
	composer   composer

	// Connection picture, maintained from lifecycle events.
	state      session.State
	room       string
	attempt    int
	retryDelay time.Duration

	online      []wire.User
	onlineCount int

	typing       []typingEntry
	pruneRunning bool

	debate session.DebateStatus

	selfTyping    bool
	lastKeystroke time.Time
	idlePending   bool

	notice      string
	noticeLevel slog.Level
	noticeSeq   int

	quitting bool
}

// NewModel creates the chat model. The controller is usually a
// *session.Session; tests substitute a fake.
func NewModel(ctrl Controller, config UIConfig) Model {
	return Model{
		ctrl:       ctrl,
		config:     config,
		theme:      DefaultTheme,
		keys:       DefaultKeyMap,
		transcript: newTranscript(DefaultTheme),
		composer:   newComposer(),
		state:      ctrl.Status().State,
		room:       ctrl.Room(),
	}
}

func (model Model) Init() tea.Cmd {
	return listenForSessionEvent(model.ctrl.Events())
}

// listenForSessionEvent blocks on the session's event channel and
// delivers the next event as a message. Re-armed after every event;
// a closed channel ends the listen loop.
func listenForSessionEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg{event: event}
	}
}

func scheduleTypingIdle(after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return typingIdleMsg{}
	})
}

func scheduleTypingPrune() tea.Cmd {
	return tea.Tick(typingPruneInterval, func(time.Time) tea.Msg {
		return typingPruneMsg{}
	})
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.transcript.setSize(message.Width, model.transcriptHeight())
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)

	case sessionEventMsg:
		return model.handleSessionEvent(message.event)

	case logRecordMsg:
		return model, model.notify(message.Level, message.Summary)

	case noticeFadeMsg:
		if message.seq == model.noticeSeq {
			model.notice = ""
		}
		return model, nil

	case typingIdleMsg:
		return model.handleTypingIdle()

	case typingPruneMsg:
		return model.handleTypingPrune()
	}

	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		model.quitting = true
		return model, tea.Quit

	case key.Matches(message, model.keys.ScrollUp):
		model.transcript.scrollUp()

	case key.Matches(message, model.keys.ScrollDown):
		model.transcript.scrollDown()

	case key.Matches(message, model.keys.HistoryPrevious):
		model.composer.historyPrevious()

	case key.Matches(message, model.keys.HistoryNext):
		model.composer.historyNext()

	case key.Matches(message, model.keys.LineStart):
		model.composer.lineStart()

	case key.Matches(message, model.keys.LineEnd):
		model.composer.lineEnd()

	case key.Matches(message, model.keys.ClearInput):
		model.composer.clear()

	case key.Matches(message, model.keys.Send):
		return model.handleSubmit()

	case message.Type == tea.KeyBackspace:
		model.composer.backspace()

	case message.Type == tea.KeyDelete:
		model.composer.deleteForward()

	case message.Type == tea.KeyLeft:
		model.composer.left()

	case message.Type == tea.KeyRight:
		model.composer.right()

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		model.composer.insert(message.Runes)
		return model.noteKeystroke()
	}

	return model, nil
}

// noteKeystroke sends the typing-start signal on the first keystroke
// of a burst and arms the idle check that will send the matching
// stop.
func (model Model) noteKeystroke() (tea.Model, tea.Cmd) {
	model.lastKeystroke = time.Now()
	if !model.selfTyping && model.state == session.StateConnected {
		if err := model.ctrl.SendTyping(true); err == nil {
			model.selfTyping = true
		}
	}
	if model.selfTyping && !model.idlePending {
		model.idlePending = true
		return model, scheduleTypingIdle(typingIdleDelay)
	}
	return model, nil
}

func (model Model) handleTypingIdle() (tea.Model, tea.Cmd) {
	model.idlePending = false
	if !model.selfTyping {
		return model, nil
	}
	elapsed := time.Since(model.lastKeystroke)
	if elapsed < typingIdleDelay {
		model.idlePending = true
		return model, scheduleTypingIdle(typingIdleDelay - elapsed)
	}
	model.selfTyping = false
	// Best effort: the server expires typing state on its own TTL.
	_ = model.ctrl.SendTyping(false)
	return model, nil
}

func (model Model) handleTypingPrune() (tea.Model, tea.Cmd) {
	now := time.Now()
	var kept []typingEntry
	for _, item := range model.typing {
		if item.expires.After(now) {
			kept = append(kept, item)
		}
	}
	model.typing = kept
	if len(kept) > 0 {
		return model, scheduleTypingPrune()
	}
	model.pruneRunning = false
	return model, nil
}

func (model Model) handleSessionEvent(event session.Event) (tea.Model, tea.Cmd) {
	commands := []tea.Cmd{listenForSessionEvent(model.ctrl.Events())}

	switch event := event.(type) {
	case session.MessageEvent:
		model.transcript.append(entry{
			kind:   entryMessage,
			when:   event.SentAt,
			sender: event.Sender.Name,
			self:   event.Sender.ID == model.config.SelfID,
			agent:  event.Agent,
			text:   event.Content,
		})

	case session.PresenceEvent:
		model.online = event.Users
		model.onlineCount = event.Count

	case session.TypingEvent:
		if event.Active {
			model.upsertTyping(event)
			if !model.pruneRunning {
				model.pruneRunning = true
				commands = append(commands, scheduleTypingPrune())
			}
		} else {
			model.removeTyping(event.User.ID)
		}

	case session.SystemEvent:
		if event.Text != "" {
			kind := entrySystem
			if strings.HasPrefix(event.Action, wire.DebateActionPrefix) {
				kind = entryDebate
			}
			model.transcript.append(entry{kind: kind, when: time.Now(), text: event.Text})
		}

	case session.DebateEvent:
		model.debate = event.Status
		if event.Phase == session.DebateFailed && event.Err != "" {
			commands = append(commands, model.notify(slog.LevelError, "debate: "+event.Err))
		}

	case session.ErrorEvent:
		text := event.Message
		if event.ResetIn > 0 {
			text = fmt.Sprintf("%s (retry in %s)", event.Message, event.ResetIn)
		}
		commands = append(commands, model.notify(slog.LevelWarn, text))

	case session.Connected:
		model.state = session.StateConnected
		model.room = event.Room
		model.attempt = 0
		text := "connected to #" + event.Room
		if event.Reconnected {
			text = "reconnected to #" + event.Room
		}
		model.transcript.append(entry{kind: entrySystem, when: time.Now(), text: text})

	case session.Reconnecting:
		model.state = session.StateReconnecting
		model.attempt = event.Attempt
		model.retryDelay = event.Delay
		if event.Attempt == 1 {
			model.transcript.append(entry{kind: entryError, when: time.Now(), text: "connection lost, retrying"})
		}

	case session.Closed:
		model.state = model.ctrl.Status().State
		model.resetRoomState()
		if event.Err != nil {
			model.transcript.append(entry{kind: entryError, when: time.Now(), text: event.Err.Error()})
			commands = append(commands, model.notify(slog.LevelError, event.Err.Error()))
		}

	case session.RoomLeft:
		model.state = session.StateConnecting
		model.transcript.clear()
		model.resetRoomState()
		model.transcript.append(entry{kind: entrySystem, when: time.Now(), text: "left #" + event.Room})
	}

	return model, tea.Batch(commands...)
}

func (model Model) handleSubmit() (tea.Model, tea.Cmd) {
	line := model.composer.submit()
	parsed := parseInput(line)

	switch parsed.kind {
	case commandSend:
		if strings.TrimSpace(parsed.arg) == "" {
			return model, nil
		}
		return model.sendMessage(parsed.arg)

	case commandRoom:
		if parsed.arg == "" {
			return model, model.notify(slog.LevelWarn, "usage: /room <name>")
		}
		if err := model.ctrl.ChangeRoom(parsed.arg); err != nil {
			return model, model.notify(slog.LevelError, err.Error())
		}

	case commandDebate:
		if parsed.arg == "" {
			return model, model.notify(slog.LevelWarn, "usage: /debate <topic>")
		}
		request := session.DebateRequest{
			Topic:     parsed.arg,
			AgentA:    model.config.agentA(),
			AgentB:    model.config.agentB(),
			MaxRounds: model.config.DebateRounds,
		}
		if err := model.ctrl.StartDebate(request); err != nil {
			return model, model.notify(slog.LevelError, err.Error())
		}

	case commandStop:
		if err := model.ctrl.StopDebate(); err != nil {
			return model, model.notify(slog.LevelError, err.Error())
		}

	case commandClear:
		model.transcript.clear()

	case commandHelp:
		model.transcript.append(entry{kind: entrySystem, when: time.Now(), text: helpText})

	case commandQuit:
		model.quitting = true
		return model, tea.Quit

	case commandUnknown:
		return model, model.notify(slog.LevelWarn, fmt.Sprintf("unknown command /%s (try /help)", parsed.arg))
	}

	return model, nil
}

func (model Model) sendMessage(text string) (tea.Model, tea.Cmd) {
	if model.selfTyping {
		model.selfTyping = false
		_ = model.ctrl.SendTyping(false)
	}
	if _, err := model.ctrl.SendMessage(text); err != nil {
		return model, model.notify(slog.LevelError, sendErrorText(err))
	}
	return model, nil
}

// sendErrorText renders a send failure for the status bar.
func sendErrorText(err error) string {
	var capacity *session.CapacityError
	switch {
	case errors.As(err, &capacity):
		return fmt.Sprintf("message too long: %d/%d characters", capacity.Length, capacity.Limit)
	case errors.Is(err, session.ErrNotConnected):
		return "not connected, message not sent"
	case errors.Is(err, session.ErrSessionClosed):
		return "session closed"
	}
	return err.Error()
}

// notify posts a transient status-bar notice and returns the command
// that fades it.
func (model *Model) notify(level slog.Level, text string) tea.Cmd {
	model.notice = text
	model.noticeLevel = level
	model.noticeSeq++
	seq := model.noticeSeq
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{seq: seq}
	})
}

func (model *Model) upsertTyping(event session.TypingEvent) {
	expires := time.Now().Add(event.TTL)
	for index := range model.typing {
		if model.typing[index].user.ID == event.User.ID {
			model.typing[index].expires = expires
			return
		}
	}
	model.typing = append(model.typing, typingEntry{user: event.User, expires: expires})
}

func (model *Model) removeTyping(userID string) {
	for index := range model.typing {
		if model.typing[index].user.ID == userID {
			model.typing = append(model.typing[:index], model.typing[index+1:]...)
			return
		}
	}
}

// resetRoomState drops per-room view state: roster, typing
// indicators, debate banner, and the local typing flag.
func (model *Model) resetRoomState() {
	model.online = nil
	model.onlineCount = 0
	model.typing = nil
	model.debate = session.DebateStatus{}
	model.selfTyping = false
}

func (model Model) transcriptHeight() int {
	height := model.height - chromeLines
	if height < 1 {
		height = 1
	}
	return height
}

func (model Model) View() string {
	if !model.ready {
		return "Connecting..."
	}
	if model.quitting {
		return ""
	}

	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))

	sections := []string{
		model.renderHeader(),
		model.transcript.view(),
		separator,
		model.renderTypingLine(),
		model.composer.view(model.theme, model.width),
		model.renderStatusLine(),
	}
	return strings.Join(sections, "\n")
}

func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render("parley")
	room := lipgloss.NewStyle().
		Foreground(model.theme.PeerName).
		Render("#" + model.room)

	glyph, label, color := model.stateIndicator()
	stateView := lipgloss.NewStyle().
		Foreground(color).
		Render(glyph + " " + label)

	parts := []string{title, room, stateView}
	if model.onlineCount > 0 {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render(fmt.Sprintf("%d online", model.onlineCount)))
	}
	if model.debate.Active {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(model.theme.DebateText).
			Render(model.debateBanner()))
	}
	return " " + strings.Join(parts, "  ")
}

func (model Model) stateIndicator() (glyph, label string, color lipgloss.Color) {
	switch model.state {
	case session.StateConnected:
		return "●", "connected", model.theme.StateHealthy
	case session.StateConnecting:
		return "◌", "connecting", model.theme.StateHealing
	case session.StateReconnecting:
		retry := fmt.Sprintf("reconnecting (attempt %d, in %s)", model.attempt, model.retryDelay)
		return "◌", retry, model.theme.StateHealing
	case session.StateClosed:
		return "○", "closed", model.theme.StateDown
	}
	return "○", "offline", model.theme.StateDown
}

func (model Model) debateBanner() string {
	banner := "⚖ " + model.debate.AgentA + " vs " + model.debate.AgentB
	if model.debate.CurrentRound > 0 {
		if model.debate.MaxRounds > 0 {
			banner += fmt.Sprintf("  round %d/%d", model.debate.CurrentRound, model.debate.MaxRounds)
		} else {
			banner += fmt.Sprintf("  round %d", model.debate.CurrentRound)
		}
	}
	return banner
}

func (model Model) renderTypingLine() string {
	if len(model.typing) == 0 {
		return ""
	}
	style := lipgloss.NewStyle().
		Foreground(model.theme.TypingText).
		Italic(true)
	names := make([]string, 0, len(model.typing))
	for _, item := range model.typing {
		names = append(names, item.user.Name)
	}
	switch len(names) {
	case 1:
		return style.Render(" " + names[0] + " is typing…")
	case 2:
		return style.Render(" " + names[0] + " and " + names[1] + " are typing…")
	}
	return style.Render(fmt.Sprintf(" %d people are typing…", len(names)))
}

func (model Model) renderStatusLine() string {
	if model.notice != "" {
		color := model.theme.NoticeInfo
		switch {
		case model.noticeLevel >= slog.LevelError:
			color = model.theme.NoticeError
		case model.noticeLevel >= slog.LevelWarn:
			color = model.theme.NoticeWarn
		}
		return lipgloss.NewStyle().
			Foreground(color).
			Render(" " + model.notice)
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.HelpText).
		Render(" Enter send  PgUp/PgDn scroll  ↑/↓ history  /help commands  C-c quit")
}
