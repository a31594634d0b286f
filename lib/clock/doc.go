// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the time operations the session engine
// performs so tests can drive them deterministically. Production code
// injects Real(); tests inject Fake(initial) and advance it by hand to
// fire reconnect backoff timers, room-change settle timers, and
// keepalive tickers without waiting on wall time.
//
// The interface covers exactly what the engine uses: Now for envelope
// timestamps, AfterFunc for one-shot scheduled work, After for plain
// waits, and NewTicker for the keepalive cadence.
//
// # Wiring pattern
//
// Structs that schedule work carry a Clock field:
//
//	session := &Session{clock: clock.Real()}
//
// Tests swap in a fake and step it:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	session := &Session{clock: fake}
//	// ... trigger a disconnect so a retry timer is armed ...
//	fake.WaitForTimers(1)          // registration happened
//	fake.Advance(1 * time.Second)  // retry fires, deterministically
//
// WaitForTimers is what removes the race between the goroutine that
// arms a timer and the test that wants to fire it: block until the
// expected number of waiters exist, then Advance.
package clock
