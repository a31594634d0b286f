// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport abstracts the bidirectional message channel the
// session speaks over. The session depends only on the Conn and Dialer
// interfaces; the WebSocket implementation lives in websocket.go and
// an in-process pair for tests lives in memory.go.
//
// A Conn carries whole messages, not bytes: one ReadMessage result is
// one protocol frame. Close codes survive the trip: when the peer
// closes the channel, ReadMessage returns a *CloseError carrying the
// code, which is what the session's reconnection policy keys on.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// Conn is one open bidirectional message channel.
type Conn interface {
	// ReadMessage blocks until the next complete message arrives.
	// After the peer closes the channel, it returns a *CloseError
	// carrying the close code; other failures return ordinary errors.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one complete message.
	WriteMessage(data []byte) error

	// Ping sends a keepalive probe. The peer's reply refreshes the
	// connection's read deadline; a send failure means the channel is
	// dead.
	Ping() error

	// Close performs a graceful close with the given code and reason.
	// Idempotent: only the first call acts.
	Close(code int, reason string) error
}

// Dialer opens a Conn to an endpoint URL.
type Dialer interface {
	DialContext(ctx context.Context, endpoint string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, endpoint string) (Conn, error)

// DialContext implements Dialer.
func (f DialerFunc) DialContext(ctx context.Context, endpoint string) (Conn, error) {
	return f(ctx, endpoint)
}

// CloseError reports that the peer closed the channel. Code is the
// WebSocket close code; Reason is the peer's optional text.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("connection closed with code %d", e.Code)
	}
	return fmt.Sprintf("connection closed with code %d: %s", e.Code, e.Reason)
}

// CloseCode extracts the close code from an error chain. The second
// return is false when the error is not a peer close.
func CloseCode(err error) (int, bool) {
	var closeErr *CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code, true
	}
	return 0, false
}
