// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// Wait is the safety valve on every channel assertion. Generous on
// purpose: it only matters when a test is already broken, and a slow
// CI machine must not turn a passing test into a flake.
const Wait = 5 * time.Second

// failer is the slice of testing.TB the helpers need. Taking the
// small interface keeps them usable from helper types in other
// packages' tests.
type failer interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch within Wait, or fails the
// test with the given message.
//
//	event := testutil.RequireReceive(t, session.Events(), "waiting for connected event")
func RequireReceive[T any](t failer, ch <-chan T, msgAndArgs ...any) T {
	t.Helper()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without a value: %s", formatMessage(msgAndArgs))
		}
		return value
	case <-time.After(Wait):
		t.Fatalf("timed out after %v: %s", Wait, formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

// RequireSend sends value on ch within Wait, or fails the test.
func RequireSend[T any](t failer, ch chan<- T, value T, msgAndArgs ...any) {
	t.Helper()
	select {
	case ch <- value:
	case <-time.After(Wait):
		t.Fatalf("timed out after %v sending: %s", Wait, formatMessage(msgAndArgs))
	}
}

// RequireClosed waits for ch to close (or deliver) within Wait, or
// fails the test. For readiness channels that signal by closing.
func RequireClosed(t failer, ch <-chan struct{}, msgAndArgs ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(Wait):
		t.Fatalf("timed out after %v waiting for close: %s", Wait, formatMessage(msgAndArgs))
	}
}

// formatMessage renders the optional message arguments: a bare string,
// or a format string followed by its arguments.
func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%v", msgAndArgs)
}
