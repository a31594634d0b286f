// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/parleychat/parley/wire"
)

// Event is what the session delivers on its Events channel: decoded
// server traffic and connection lifecycle changes. The set is closed;
// consumers switch on the concrete type. Envelope-derived events
// arrive in wire order, at most one per envelope.
type Event interface {
	isEvent()
}

// MessageEvent is a chat message, content already sanitized. Agent is
// true for debate agent turns; Meta then carries the provider detail
// ("provider", "model", "current_round").
type MessageEvent struct {
	Room     string
	Sender   wire.User
	Content  string
	SentAt   time.Time
	ClientID string
	Agent    bool
	Meta     wire.Meta
}

// PresenceEvent is a full roster replacement. Users is the complete
// current membership; anyone absent has left.
type PresenceEvent struct {
	Room  string
	Users []wire.User
	Count int
}

// TypingEvent reports one participant starting or stopping typing.
// TTL is the server's advisory expiry: with no further signal, the
// indicator should be considered stale after TTL. The session itself
// never expires entries; pruning on TTL is the consumer's call.
type TypingEvent struct {
	Room   string
	User   wire.User
	Active bool
	TTL    time.Duration
}

// SystemEvent is a server notice: membership changes and debate
// lifecycle actions, verbatim. Debate actions additionally produce a
// DebateEvent after the tracker applies them.
type SystemEvent struct {
	Room   string
	Action string
	Text   string
	Meta   wire.Meta
}

// ErrorEvent is a server-reported failure. Advisory: connection state
// never changes because of one. Message is display-ready; for
// rate_limited it is the fixed client text and ResetIn carries the
// server's cooldown hint when present.
type ErrorEvent struct {
	Room    string
	Code    string
	Message string
	ResetIn time.Duration
}

// DebatePhase labels what a DebateEvent reports.
type DebatePhase int

const (
	// DebateConfirmed acknowledges a start request. Not yet running.
	DebateConfirmed DebatePhase = iota

	// DebateStarted means the debate is live; Status carries the
	// configuration the server announced.
	DebateStarted

	// DebateRoundAdvanced means the current round or speaker moved.
	DebateRoundAdvanced

	// DebateStopped means the debate ended; TotalRounds, Duration,
	// and Reason describe the run that just finished.
	DebateStopped

	// DebateFailed reports an orchestration error. An active debate
	// stays active until the server stops it.
	DebateFailed
)

// String returns the phase name for logs.
func (p DebatePhase) String() string {
	switch p {
	case DebateConfirmed:
		return "confirmed"
	case DebateStarted:
		return "started"
	case DebateRoundAdvanced:
		return "round"
	case DebateStopped:
		return "stopped"
	case DebateFailed:
		return "failed"
	}
	return "unknown"
}

// DebateEvent reports a debate tracker transition. Status is the
// snapshot after applying the transition. TotalRounds, Duration, and
// Reason are populated for DebateStopped only; Err for DebateFailed.
type DebateEvent struct {
	Phase       DebatePhase
	Status      DebateStatus
	TotalRounds int
	Duration    time.Duration
	Reason      string
	Err         string
}

// Connected reports a live connection. Reconnected is true when the
// session healed from a drop rather than opening fresh, so UIs can
// say "reconnected" instead of "joined".
type Connected struct {
	Room        string
	Reconnected bool
}

// Reconnecting reports a scheduled heal: attempt number (1-based),
// the delay before it dials, and the failure that caused it.
type Reconnecting struct {
	Attempt int
	Delay   time.Duration
	Err     error
}

// Closed reports the end of connectivity. Err is nil after a manual
// Disconnect and a *TerminalError when the session gave up. Exactly
// one Closed is delivered per run of the machine; a fresh Connect
// starts a new run.
type Closed struct {
	Err error
}

// RoomLeft reports departure from a room during ChangeRoom. The
// Connected event for the new room follows once the dial succeeds.
type RoomLeft struct {
	Room string
}

func (MessageEvent) isEvent()  {}
func (PresenceEvent) isEvent() {}
func (TypingEvent) isEvent()   {}
func (SystemEvent) isEvent()   {}
func (ErrorEvent) isEvent()    {}
func (DebateEvent) isEvent()   {}
func (Connected) isEvent()     {}
func (Reconnecting) isEvent()  {}
func (Closed) isEvent()        {}
func (RoomLeft) isEvent()      {}
