// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/parleychat/parley/wire"
)

// DebateStatus is a snapshot of the debate the server is running in
// the current room. Zero value means no debate. CurrentRound is 0
// until the first round announcement arrives.
type DebateStatus struct {
	Active       bool
	ID           string
	Topic        string
	AgentA       string
	AgentB       string
	MaxRounds    int
	MaxDuration  time.Duration
	CurrentRound int
	CurrentAgent string
}

// debateTracker folds server debate announcements into a DebateStatus.
// Only server announcements move it: sending a start or stop request
// changes nothing until the server answers. Not safe for concurrent
// use; the session serializes access under its mutex.
type debateTracker struct {
	status DebateStatus
}

// apply folds one system action into the tracker. The returned event
// is meaningful only when eventful is true; non-debate actions and
// announcements that arrive out of order report eventful false.
func (t *debateTracker) apply(action, text string, meta wire.Meta) (event DebateEvent, eventful bool) {
	switch action {
	case wire.ActionDebateConfirmed:
		return DebateEvent{Phase: DebateConfirmed, Status: t.status}, true

	case wire.ActionDebateStarted:
		t.status = DebateStatus{
			Active: true,
			ID:     meta.String("debate_id"),
			Topic:  meta.String("topic"),
			AgentA: meta.String("agent_a"),
			AgentB: meta.String("agent_b"),
		}
		if rounds, ok := meta.Int("max_rounds"); ok && rounds > 0 {
			t.status.MaxRounds = rounds
		}
		if limit, ok := meta.Duration("max_duration", time.Millisecond); ok {
			t.status.MaxDuration = limit
		}
		return DebateEvent{Phase: DebateStarted, Status: t.status}, true

	case wire.ActionDebateRound:
		if !t.status.Active {
			return DebateEvent{}, false
		}
		round, ok := meta.Int("current_round")
		if !ok || round < 1 || round < t.status.CurrentRound {
			return DebateEvent{}, false
		}
		if t.status.MaxRounds > 0 && round > t.status.MaxRounds {
			return DebateEvent{}, false
		}
		t.status.CurrentRound = round
		t.status.CurrentAgent = meta.String("current_agent")
		return DebateEvent{Phase: DebateRoundAdvanced, Status: t.status}, true

	case wire.ActionDebateStopped:
		if !t.status.Active {
			return DebateEvent{}, false
		}
		t.status = DebateStatus{}
		event = DebateEvent{Phase: DebateStopped, Status: t.status}
		if rounds, ok := meta.Int("total_rounds"); ok {
			event.TotalRounds = rounds
		}
		event.Duration, _ = meta.Duration("duration", time.Millisecond)
		event.Reason = meta.String("reason")
		return event, true

	case wire.ActionDebateError:
		reason := meta.String("error")
		if reason == "" {
			reason = text
		}
		return DebateEvent{Phase: DebateFailed, Status: t.status, Err: reason}, true
	}
	return DebateEvent{}, false
}

// reset drops any tracked debate, for room changes and disconnects.
func (t *debateTracker) reset() {
	t.status = DebateStatus{}
}
