// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time surface the session engine schedules against.
// Production code injects Real(); tests inject Fake() and control time
// explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the fire time once d has
	// elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc schedules f to run once d has elapsed. The returned
	// Timer cancels the pending call via Stop. A non-positive d runs f
	// before AfterFunc returns on the fake clock and in a new
	// goroutine on the real one.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a Ticker delivering on C every d. Panics if
	// d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a cancelable one-shot scheduled by AfterFunc.
type Timer struct {
	stop func() bool
}

// Stop cancels the pending call. Returns false when the timer already
// fired or was already stopped; the callback may still be running.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker delivers periodic ticks on C. The channel has capacity 1:
// a consumer that falls behind loses ticks instead of queueing them,
// matching time.Ticker.
type Ticker struct {
	// C delivers ticks.
	C <-chan time.Time

	stop func()
}

// Stop ends the tick stream. C is not closed.
func (t *Ticker) Stop() { t.stop() }
