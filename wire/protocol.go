// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "regexp"

// System action constants, carried in meta "action" of system
// envelopes. The debate actions drive the server-moderated LLM debate:
// the client requests start/stop, the server owns every state
// transition and reports them back.
const (
	// ActionUserJoined announces a participant entering the room.
	// Meta "user" carries the participant.
	ActionUserJoined = "user_joined"

	// ActionUserLeft announces a participant leaving the room.
	ActionUserLeft = "user_left"

	// ActionDebateStart requests a debate. Client to server only.
	// Meta: "topic" (required), "agent_a", "agent_b", "max_rounds".
	// The server clamps max_rounds to 1..20 and defaults it to 6.
	ActionDebateStart = "llm_debate_start"

	// ActionDebateStop requests the active debate end. Client to
	// server only.
	ActionDebateStop = "llm_debate_stop"

	// ActionDebateConfirmed acknowledges a start request before
	// orchestration begins. Meta: "topic". Not a state change: the
	// debate is running only once ActionDebateStarted arrives.
	ActionDebateConfirmed = "llm_debate_confirmed"

	// ActionDebateStarted announces a running debate. Meta:
	// "debate_id", "topic", "agent_a", "agent_b", "max_rounds",
	// "max_duration" (milliseconds).
	ActionDebateStarted = "llm_debate_started"

	// ActionDebateRound announces a turn. Meta: "current_round"
	// (1-based), "current_agent", "max_rounds". Agents alternate by
	// round parity.
	ActionDebateRound = "llm_debate_round"

	// ActionDebateStopped announces the end of a debate. Meta:
	// "total_rounds", "duration" (milliseconds), "reason" (manual,
	// max_rounds, max_duration, turn_timeout, error, or a provider
	// tagged llm_error_* value).
	ActionDebateStopped = "llm_debate_stopped"

	// ActionDebateError reports an orchestration failure. Meta:
	// "error". An active debate stays active; the server follows with
	// ActionDebateStopped when it gives up.
	ActionDebateError = "llm_debate_error"
)

// DebateActionPrefix is shared by every debate action, so consumers can
// classify a system envelope as debate traffic without enumerating the
// set.
const DebateActionPrefix = "llm_debate"

// Error code constants, carried in meta "code" of error envelopes.
const (
	// CodeMessageTooLong rejects content over MaxContentLength.
	CodeMessageTooLong = "message_too_long"

	// CodeRateLimited rejects a send that exceeded the sender's token
	// bucket. Meta "reset_in" carries seconds until the bucket refills.
	CodeRateLimited = "rate_limited"

	// CodeInvalidPayload rejects a structurally invalid envelope.
	CodeInvalidPayload = "invalid_payload"

	// CodeInvalidJSON rejects a frame that is not valid JSON.
	CodeInvalidJSON = "invalid_json"

	// CodeDebateStartFailed rejects a debate start request (already
	// running, unknown agents, orchestrator unavailable).
	CodeDebateStartFailed = "debate_start_failed"

	// CodeLLMError reports a provider failure mid-debate.
	CodeLLMError = "llm_error"
)

// RateLimitedText is the fixed message shown for CodeRateLimited
// regardless of what text the server sent. The server's wording is not
// part of the contract; the code is.
const RateLimitedText = "You're sending messages too quickly. Wait a few seconds and try again."

// Typing indicator content values.
const (
	TypingStarted = "started"
	TypingStopped = "stopped"
)

// WebSocket close codes with protocol meaning. CloseNormal through
// CloseInternalError are the RFC 6455 codes the server actually uses;
// CloseNoRetry is the application range code reserved for "do not
// reconnect". CloseAbnormal is never sent on the wire: clients record
// it when a connection dies without a close frame.
const (
	CloseNormal          = 1000
	CloseAbnormal        = 1006
	ClosePolicyViolation = 1008
	CloseMessageTooBig   = 1009
	CloseInternalError   = 1011
	CloseNoRetry         = 4000
)

// PermanentCloseCode reports whether a close code forbids reconnecting.
// The server closes with ClosePolicyViolation on a rejected token, so
// retrying would only repeat the rejection.
func PermanentCloseCode(code int) bool {
	switch code {
	case CloseNormal, ClosePolicyViolation, CloseMessageTooBig, CloseInternalError, CloseNoRetry:
		return true
	}
	return false
}

// MaxContentLength is the server's limit on message content, counted
// in unicode characters. Longer sends come back as CodeMessageTooLong.
const MaxContentLength = 1000

// MaxRoomLength is the server's limit on room name length.
const MaxRoomLength = 50

// MaxDebateRounds is the server's ceiling on the max_rounds field of a
// debate start request.
const MaxDebateRounds = 20

// roomPattern is the server's room name rule: 1..50 word characters or
// hyphens. Anything else is rejected at the HTTP layer before upgrade.
var roomPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// ValidRoom reports whether a room name will be accepted server-side.
func ValidRoom(room string) bool {
	return roomPattern.MatchString(room)
}
