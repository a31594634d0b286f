// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the chat protocol: the JSON envelope exchanged
// over the WebSocket, the closed set of envelope kinds, the system
// action and error code vocabularies, and the connection close codes.
//
// The package is organized around the protocol surface:
//
//   - envelope.go: envelope structure, kinds, users, meta accessors
//   - codec.go: encoding, decoding, structural validation
//   - protocol.go: actions, error codes, close codes, limits
//
// Everything here is pure data handling: no I/O, no state. The session
// package owns what happens to an envelope after it is decoded.
package wire

import (
	"fmt"
	"time"
)

// Kind identifies the envelope variant. The set is closed: decoding
// rejects anything else, and dispatch switches over it exhaustively.
type Kind string

const (
	// KindMessage is a chat message. Content carries the text; agent
	// authored messages mark meta "agent" true.
	KindMessage Kind = "message"

	// KindPresence is a full roster broadcast. Meta "users" carries the
	// complete current membership; the receiver replaces, never merges.
	KindPresence Kind = "presence"

	// KindTyping is a typing indicator. Content is "started" or
	// "stopped"; the user field names the typist.
	KindTyping Kind = "typing"

	// KindSystem is a server notice. Meta "action" selects the
	// behavior: membership changes and the debate lifecycle.
	KindSystem Kind = "system"

	// KindError is a server-reported failure. Meta "code" (or the
	// legacy top-level code field) carries the machine-readable code.
	KindError Kind = "error"
)

// ParseKind validates a wire type string against the closed kind set.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMessage, KindPresence, KindTyping, KindSystem, KindError:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown envelope type %q", s)
}

// Valid reports whether the kind is a member of the closed set.
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

// User identifies a chat participant. ID is the stable identity key;
// Name is the display name shown to other participants.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Meta is the kind-specific envelope payload. Values come straight from
// JSON decoding, so numbers are float64 and nested objects are
// map[string]any. The accessors below absorb that so callers never
// type-assert raw JSON shapes.
type Meta map[string]any

// String returns the value for key when it is a string, else "".
func (m Meta) String(key string) string {
	value, _ := m[key].(string)
	return value
}

// Int returns the value for key when it is any JSON number form.
func (m Meta) Int(key string) (int, bool) {
	switch value := m[key].(type) {
	case float64:
		return int(value), true
	case int:
		return value, true
	case int64:
		return int(value), true
	}
	return 0, false
}

// Bool returns the value for key when it is a boolean, else false.
func (m Meta) Bool(key string) bool {
	value, _ := m[key].(bool)
	return value
}

// Duration returns the value for key scaled by unit, for meta fields
// that carry second or millisecond counts. Missing, non-numeric, and
// non-positive values report false.
func (m Meta) Duration(key string, unit time.Duration) (time.Duration, bool) {
	value, ok := m.Int(key)
	if !ok || value <= 0 {
		return 0, false
	}
	return time.Duration(value) * unit, true
}

// Users decodes a list of participants under key. Entries that are not
// objects or that lack an id or name are skipped: a partially damaged
// roster broadcast still yields the usable remainder.
func (m Meta) Users(key string) []User {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	users := make([]User, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, _ := fields["id"].(string)
		name, _ := fields["name"].(string)
		if id == "" || name == "" {
			continue
		}
		avatar, _ := fields["avatar"].(string)
		users = append(users, User{ID: id, Name: name, Avatar: avatar})
	}
	return users
}

// Envelope is one protocol frame, exactly one JSON object per WebSocket
// text message in both directions. TS is unix milliseconds. ClientID is
// a sender-chosen key for echo detection and idempotency. Code is the
// legacy position for error codes; meta "code" is canonical and wins
// when both are present.
type Envelope struct {
	Type     Kind   `json:"type"`
	Room     string `json:"room"`
	User     User   `json:"user"`
	Content  string `json:"content,omitempty"`
	TS       int64  `json:"ts"`
	ClientID string `json:"client_id,omitempty"`
	Meta     Meta   `json:"meta,omitempty"`
	Code     string `json:"code,omitempty"`
}

// ErrorCode returns the machine-readable code of an error envelope,
// preferring meta "code" over the legacy top-level field.
func (e Envelope) ErrorCode() string {
	if code := e.Meta.String("code"); code != "" {
		return code
	}
	return e.Code
}

// FromAgent reports whether a message envelope was authored by a debate
// agent rather than a human participant.
func (e Envelope) FromAgent() bool {
	return e.Meta.Bool("agent")
}
