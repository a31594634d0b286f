// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/parleychat/parley/session"

// Controller is the slice of the session API the TUI drives. It is
// satisfied by [*session.Session]; tests substitute a fake so UI
// behavior can be exercised without a transport.
type Controller interface {
	// Events is the stream the model consumes. The channel is never
	// closed; the model simply stops reading when the program exits.
	Events() <-chan session.Event

	SendMessage(content string) (clientID string, err error)
	SendTyping(active bool) error
	StartDebate(request session.DebateRequest) error
	StopDebate() error
	ChangeRoom(room string) error

	// Room is the session's current target room, shown in the header
	// before the first Connected event arrives.
	Room() string
	Status() session.Status
}

// UIConfig carries the pieces of client configuration the TUI needs.
type UIConfig struct {
	// SelfID marks transcript messages authored by this client so they
	// render in the own-message style.
	SelfID string

	// DebateAgents are the agent ids used by /debate, side A first.
	// Empty entries leave the choice to the server.
	DebateAgents []string

	// DebateRounds is the round budget requested by /debate. Zero lets
	// the server pick its default.
	DebateRounds int
}

// agentA returns the configured side-A agent id, if any.
func (c UIConfig) agentA() string {
	if len(c.DebateAgents) > 0 {
		return c.DebateAgents[0]
	}
	return ""
}

// agentB returns the configured side-B agent id, if any.
func (c UIConfig) agentB() string {
	if len(c.DebateAgents) > 1 {
		return c.DebateAgents[1]
	}
	return ""
}
