// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	"github.com/parleychat/parley/lib/sanitize"
	"github.com/parleychat/parley/wire"
)

// defaultTypingTTL applies when a typing envelope carries no ttl hint.
const defaultTypingTTL = 5 * time.Second

// translate folds one decoded envelope into session state and returns
// the events to deliver, in arrival order. Caller holds mu.
func (s *Session) translate(envelope wire.Envelope) []Event {
	switch envelope.Type {
	case wire.KindMessage:
		return []Event{s.messageEvent(envelope)}
	case wire.KindPresence:
		return []Event{s.presenceEvent(envelope)}
	case wire.KindTyping:
		return s.typingEvents(envelope)
	case wire.KindSystem:
		return s.systemEvents(envelope)
	case wire.KindError:
		return []Event{s.errorEvent(envelope)}
	default:
		// Decode rejects kinds outside the closed set, so this arm only
		// fires if the set grows without a matching case here.
		s.logger.Debug("dropping unhandled envelope kind", "type", envelope.Type)
		return nil
	}
}

func (s *Session) messageEvent(envelope wire.Envelope) Event {
	return MessageEvent{
		Room:     envelope.Room,
		Sender:   envelope.User,
		Content:  sanitize.Strip(envelope.Content),
		SentAt:   time.UnixMilli(envelope.TS),
		ClientID: envelope.ClientID,
		Agent:    envelope.FromAgent(),
		Meta:     envelope.Meta,
	}
}

func (s *Session) presenceEvent(envelope wire.Envelope) Event {
	users := envelope.Meta.Users("users")
	count, ok := envelope.Meta.Int("online_count")
	if !ok {
		count = len(users)
	}
	s.roster.replace(users, count)
	return PresenceEvent{Room: envelope.Room, Users: users, Count: count}
}

// typingEvents drops echoes of this user's own indicator and
// suppresses signals that change nothing, so consumers only redraw on
// real transitions.
func (s *Session) typingEvents(envelope wire.Envelope) []Event {
	if envelope.User.ID == s.config.User.ID {
		return nil
	}
	active := envelope.Content == wire.TypingStarted
	ttl := defaultTypingTTL
	if hint, ok := envelope.Meta.Duration("ttl", time.Second); ok {
		ttl = hint
	}
	if !s.roster.setTyping(envelope.User, active) {
		return nil
	}
	return []Event{TypingEvent{
		Room:   envelope.Room,
		User:   envelope.User,
		Active: active,
		TTL:    ttl,
	}}
}

// systemEvents always surfaces the notice itself; a debate action
// additionally yields the tracker's transition, after the notice.
func (s *Session) systemEvents(envelope wire.Envelope) []Event {
	action := envelope.Meta.String("action")
	events := []Event{SystemEvent{
		Room:   envelope.Room,
		Action: action,
		Text:   envelope.Content,
		Meta:   envelope.Meta,
	}}
	if debateEvent, eventful := s.debate.apply(action, envelope.Content, envelope.Meta); eventful {
		events = append(events, debateEvent)
	}
	return events
}

func (s *Session) errorEvent(envelope wire.Envelope) Event {
	code := envelope.ErrorCode()
	message := envelope.Content
	var resetIn time.Duration
	if code == wire.CodeRateLimited {
		message = wire.RateLimitedText
		resetIn, _ = envelope.Meta.Duration("reset_in", time.Second)
	}
	if message == "" {
		message = "server reported an error"
	}
	return ErrorEvent{Room: envelope.Room, Code: code, Message: message, ResetIn: resetIn}
}
