// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// DecodeError describes why a frame failed to decode into a
// well-formed envelope. The session drops these frames silently; the
// reason exists for debug logging, never for user display.
type DecodeError struct {
	Reason string
	err    error
}

func (e *DecodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("decode envelope: %s: %v", e.Reason, e.err)
	}
	return fmt.Sprintf("decode envelope: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.err
}

// Decode parses a frame into an envelope and verifies the structural
// invariants every well-formed envelope satisfies: a known type, a
// non-empty room, a user with both id and name, and a positive
// timestamp. Unknown meta keys pass through untouched so newer servers
// can ship additional payload without breaking older clients.
func Decode(data []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Envelope{}, &DecodeError{Reason: "invalid JSON", err: err}
	}
	if err := envelope.check(); err != nil {
		return Envelope{}, err
	}
	return envelope, nil
}

// Encode serializes an envelope after checking the same structural
// invariants Decode enforces, so a client can never put a frame on the
// wire that a compliant peer would drop.
func Encode(envelope Envelope) ([]byte, error) {
	if err := envelope.check(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

func (e Envelope) check() error {
	if !e.Type.Valid() {
		return &DecodeError{Reason: fmt.Sprintf("unknown type %q", e.Type)}
	}
	if e.Room == "" {
		return &DecodeError{Reason: "empty room"}
	}
	if e.User.ID == "" {
		return &DecodeError{Reason: "missing user id"}
	}
	if e.User.Name == "" {
		return &DecodeError{Reason: "missing user name"}
	}
	if e.TS <= 0 {
		return &DecodeError{Reason: "missing timestamp"}
	}
	return nil
}

// ContentLength counts content length the way the server does: unicode
// characters, not bytes.
func ContentLength(content string) int {
	return utf8.RuneCountInString(content)
}

// NewMessage builds an outbound chat message envelope.
func NewMessage(room string, user User, content, clientID string, ts int64) Envelope {
	return Envelope{
		Type:     KindMessage,
		Room:     room,
		User:     user,
		Content:  content,
		TS:       ts,
		ClientID: clientID,
	}
}

// NewTyping builds a typing indicator envelope. Active maps to the
// "started" content value, inactive to "stopped".
func NewTyping(room string, user User, active bool, ts int64) Envelope {
	content := TypingStopped
	if active {
		content = TypingStarted
	}
	return Envelope{
		Type:    KindTyping,
		Room:    room,
		User:    user,
		Content: content,
		TS:      ts,
	}
}

// NewSystem builds an outbound system envelope carrying an action and
// its parameters. The meta map is used as given; callers must not
// mutate it afterward.
func NewSystem(room string, user User, action string, meta Meta, ts int64) Envelope {
	if meta == nil {
		meta = Meta{}
	}
	meta["action"] = action
	return Envelope{
		Type: KindSystem,
		Room: room,
		User: user,
		TS:   ts,
		Meta: meta,
	}
}
