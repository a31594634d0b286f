// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by session operations. Match with errors.Is.
var (
	// ErrNotConnected rejects sends outside the Connected state.
	// Nothing is queued: the caller retries after the next Connected
	// event if it still wants to.
	ErrNotConnected = errors.New("session: not connected")

	// ErrEmptyMessage rejects whitespace-only message content.
	ErrEmptyMessage = errors.New("session: empty message")

	// ErrEmptyTopic rejects a debate request without a topic.
	ErrEmptyTopic = errors.New("session: empty debate topic")

	// ErrSessionClosed rejects operations after Close.
	ErrSessionClosed = errors.New("session: closed")

	// ErrInvalidRoom rejects room names the server would refuse.
	ErrInvalidRoom = errors.New("session: invalid room name")

	// ErrActive rejects Connect while the session is already
	// connecting, connected, or healing.
	ErrActive = errors.New("session: already active")
)

// CapacityError rejects a send whose content exceeds the configured
// limit. Detected locally, before the wire, so the server's
// message_too_long path is never the first line of defense.
type CapacityError struct {
	Length int
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("session: message length %d exceeds limit %d", e.Length, e.Limit)
}

// TerminalError is carried by the final Closed event when the session
// gives up: a permanent close code arrived or the retry budget ran
// out. CloseCode is zero when no close code was involved.
type TerminalError struct {
	CloseCode int
	Attempts  int
	Err       error
}

func (e *TerminalError) Error() string {
	switch {
	case e.Err != nil && e.CloseCode != 0:
		return fmt.Sprintf("session: gave up after %d attempts (close code %d): %v", e.Attempts, e.CloseCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("session: gave up after %d attempts: %v", e.Attempts, e.Err)
	default:
		return fmt.Sprintf("session: gave up after %d attempts (close code %d)", e.Attempts, e.CloseCode)
	}
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}
