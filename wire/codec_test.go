// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeValidEnvelope(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"type": "message",
		"room": "general",
		"user": {"id": "u1", "name": "Ada", "avatar": "https://pix/a.png"},
		"content": "hello",
		"ts": 1724400000000,
		"client_id": "c-1",
		"meta": {"agent": true, "provider": "gpt-4"}
	}`)

	envelope, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if envelope.Type != KindMessage {
		t.Errorf("type: got %q, want %q", envelope.Type, KindMessage)
	}
	if envelope.Room != "general" {
		t.Errorf("room: got %q, want general", envelope.Room)
	}
	if envelope.User.ID != "u1" || envelope.User.Name != "Ada" {
		t.Errorf("user: got %+v", envelope.User)
	}
	if envelope.TS != 1724400000000 {
		t.Errorf("ts: got %d", envelope.TS)
	}
	if !envelope.FromAgent() {
		t.Error("FromAgent: got false, want true")
	}
	if provider := envelope.Meta.String("provider"); provider != "gpt-4" {
		t.Errorf("meta provider: got %q", provider)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data string
	}{
		{
			name: "invalid json",
			data: `{"type": "message",`,
		},
		{
			name: "unknown type",
			data: `{"type": "broadcast", "room": "general", "user": {"id": "u1", "name": "Ada"}, "ts": 1}`,
		},
		{
			name: "missing type",
			data: `{"room": "general", "user": {"id": "u1", "name": "Ada"}, "ts": 1}`,
		},
		{
			name: "empty room",
			data: `{"type": "message", "room": "", "user": {"id": "u1", "name": "Ada"}, "ts": 1}`,
		},
		{
			name: "missing user id",
			data: `{"type": "message", "room": "general", "user": {"name": "Ada"}, "ts": 1}`,
		},
		{
			name: "missing user name",
			data: `{"type": "message", "room": "general", "user": {"id": "u1"}, "ts": 1}`,
		},
		{
			name: "missing timestamp",
			data: `{"type": "message", "room": "general", "user": {"id": "u1", "name": "Ada"}}`,
		},
		{
			name: "negative timestamp",
			data: `{"type": "message", "room": "general", "user": {"id": "u1", "name": "Ada"}, "ts": -5}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(test.data))
			if err == nil {
				t.Fatal("Decode: expected error, got nil")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("error type: got %T, want *DecodeError", err)
			}
		})
	}
}

func TestDecodeToleratesUnknownMetaKeys(t *testing.T) {
	t.Parallel()
	data := []byte(`{
		"type": "system",
		"room": "general",
		"user": {"id": "server", "name": "Server"},
		"ts": 1,
		"meta": {"action": "user_joined", "future_field": {"nested": [1, 2]}}
	}`)

	envelope, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if action := envelope.Meta.String("action"); action != ActionUserJoined {
		t.Errorf("action: got %q, want %q", action, ActionUserJoined)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	original := NewMessage("general", User{ID: "u1", Name: "Ada"}, "hi there", "c-42", 1724400000000)

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Type != original.Type || decoded.Room != original.Room ||
		decoded.Content != original.Content || decoded.ClientID != original.ClientID ||
		decoded.TS != original.TS {
		t.Errorf("round trip: got %+v, want %+v", decoded, original)
	}
}

func TestEncodeRejectsInvalidEnvelope(t *testing.T) {
	t.Parallel()
	_, err := Encode(Envelope{Type: KindMessage, Room: "general"})
	if err == nil {
		t.Fatal("Encode: expected error for missing user, got nil")
	}
}

func TestErrorCodePrefersMeta(t *testing.T) {
	t.Parallel()
	envelope := Envelope{
		Meta: Meta{"code": CodeRateLimited},
		Code: CodeInvalidPayload,
	}
	if code := envelope.ErrorCode(); code != CodeRateLimited {
		t.Errorf("ErrorCode: got %q, want %q", code, CodeRateLimited)
	}

	legacy := Envelope{Code: CodeInvalidJSON}
	if code := legacy.ErrorCode(); code != CodeInvalidJSON {
		t.Errorf("ErrorCode legacy: got %q, want %q", code, CodeInvalidJSON)
	}
}

func TestMetaAccessors(t *testing.T) {
	t.Parallel()
	meta := Meta{
		"topic":      "tabs vs spaces",
		"max_rounds": float64(6),
		"agent":      true,
		"ttl":        float64(7),
		"reset_in":   float64(0),
		"users": []any{
			map[string]any{"id": "u1", "name": "Ada"},
			map[string]any{"id": "", "name": "ghost"},
			map[string]any{"name": "no-id"},
			"not an object",
			map[string]any{"id": "u2", "name": "Grace", "avatar": "https://pix/g.png"},
		},
	}

	if got := meta.String("topic"); got != "tabs vs spaces" {
		t.Errorf("String: got %q", got)
	}
	if got := meta.String("missing"); got != "" {
		t.Errorf("String missing key: got %q, want empty", got)
	}
	rounds, ok := meta.Int("max_rounds")
	if !ok || rounds != 6 {
		t.Errorf("Int: got %d ok=%v, want 6 true", rounds, ok)
	}
	if _, ok := meta.Int("topic"); ok {
		t.Error("Int on string value: got ok=true, want false")
	}
	if !meta.Bool("agent") {
		t.Error("Bool: got false, want true")
	}
	ttl, ok := meta.Duration("ttl", time.Second)
	if !ok || ttl != 7*time.Second {
		t.Errorf("Duration: got %v ok=%v, want 7s true", ttl, ok)
	}
	if _, ok := meta.Duration("reset_in", time.Second); ok {
		t.Error("Duration on non-positive value: got ok=true, want false")
	}
	if _, ok := meta.Duration("missing", time.Second); ok {
		t.Error("Duration missing key: got ok=true, want false")
	}

	users := meta.Users("users")
	if len(users) != 2 {
		t.Fatalf("Users: got %d entries, want 2 (damaged entries skipped)", len(users))
	}
	if users[0].ID != "u1" || users[1].ID != "u2" {
		t.Errorf("Users: got %+v", users)
	}
	if users[1].Avatar != "https://pix/g.png" {
		t.Errorf("Users avatar: got %q", users[1].Avatar)
	}
}

func TestContentLengthCountsCharacters(t *testing.T) {
	t.Parallel()
	if got := ContentLength("héllo"); got != 5 {
		t.Errorf("ContentLength: got %d, want 5", got)
	}
	if got := ContentLength("日本語"); got != 3 {
		t.Errorf("ContentLength multibyte: got %d, want 3", got)
	}
}

func TestNewTypingContentValues(t *testing.T) {
	t.Parallel()
	user := User{ID: "u1", Name: "Ada"}
	if envelope := NewTyping("general", user, true, 1); envelope.Content != TypingStarted {
		t.Errorf("active typing content: got %q, want %q", envelope.Content, TypingStarted)
	}
	if envelope := NewTyping("general", user, false, 1); envelope.Content != TypingStopped {
		t.Errorf("inactive typing content: got %q, want %q", envelope.Content, TypingStopped)
	}
}

func TestNewSystemSetsAction(t *testing.T) {
	t.Parallel()
	envelope := NewSystem("general", User{ID: "u1", Name: "Ada"}, ActionDebateStart, Meta{"topic": "go vs rust"}, 1)
	if action := envelope.Meta.String("action"); action != ActionDebateStart {
		t.Errorf("action: got %q, want %q", action, ActionDebateStart)
	}
	if topic := envelope.Meta.String("topic"); topic != "go vs rust" {
		t.Errorf("topic: got %q", topic)
	}
}
