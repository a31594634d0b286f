// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at the given time. Nothing fires
// until Advance moves the clock past a waiter's deadline.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{current: initial}
	fake.changed = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a deterministic Clock for tests. Advance fires due
// waiters in deadline order, stepping the visible current time to each
// deadline as it fires, so a callback that reads Now sees the moment
// it was scheduled for rather than the final target.
//
// AfterFunc callbacks run synchronously inside Advance. A callback
// must not call Advance itself; it may arm new timers, and a new timer
// due within the same Advance window fires in the same call.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*waiter
	changed *sync.Cond
}

// waiter is one pending After, AfterFunc, or ticker registration.
type waiter struct {
	deadline time.Time
	ch       chan time.Time // After and ticker delivery; nil for AfterFunc
	fn       func()         // AfterFunc callback; nil otherwise
	every    time.Duration  // non-zero for tickers; rescheduled after firing
	stopped  bool
	fired    bool // one-shots only; blocks double delivery
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel receiving the fire time once the clock
// advances past d. Non-positive d delivers immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}
	c.register(&waiter{deadline: c.current.Add(d), ch: ch})
	return ch
}

// AfterFunc schedules f once the clock advances past d. Non-positive d
// runs f synchronously before returning.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}

	c.mu.Lock()
	entry := &waiter{deadline: c.current.Add(d), fn: f}
	c.register(entry)
	c.mu.Unlock()

	return &Timer{stop: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if entry.stopped || entry.fired {
			return false
		}
		entry.stopped = true
		return true
	}}
}

// NewTicker returns a Ticker firing every d of advanced time. An
// Advance spanning several intervals delivers one tick per interval,
// subject to the capacity-1 channel dropping what the consumer missed.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	ch := make(chan time.Time, 1)
	entry := &waiter{deadline: c.current.Add(d), ch: ch, every: d}
	c.register(entry)
	c.mu.Unlock()

	return &Ticker{C: ch, stop: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		entry.stopped = true
	}}
}

// register appends a waiter and wakes WaitForTimers. Caller holds mu.
func (c *FakeClock) register(entry *waiter) {
	c.waiters = append(c.waiters, entry)
	c.changed.Broadcast()
}

// Advance moves the clock forward by d, firing every waiter whose
// deadline falls within the window, earliest deadline first. Channel
// delivery is non-blocking; AfterFunc callbacks run in the calling
// goroutine.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)

	for {
		next := c.nextDue(target)
		if next == nil {
			break
		}
		if next.deadline.After(c.current) {
			c.current = next.deadline
		}
		if next.every > 0 {
			next.deadline = next.deadline.Add(next.every)
		} else {
			next.fired = true
		}

		if next.fn != nil {
			// Run the callback without the lock so it can arm new
			// timers or stop existing ones.
			c.mu.Unlock()
			next.fn()
			c.mu.Lock()
		} else {
			select {
			case next.ch <- c.current:
			default:
			}
		}
	}

	c.current = target
	c.compact()
	c.mu.Unlock()
}

// nextDue returns the active waiter with the earliest deadline at or
// before target, or nil when nothing further is due. Caller holds mu.
func (c *FakeClock) nextDue(target time.Time) *waiter {
	var due *waiter
	for _, entry := range c.waiters {
		if entry.stopped || entry.fired || entry.deadline.After(target) {
			continue
		}
		if due == nil || entry.deadline.Before(due.deadline) {
			due = entry
		}
	}
	return due
}

// compact drops stopped and fired waiters. Caller holds mu.
func (c *FakeClock) compact() {
	active := c.waiters[:0]
	for _, entry := range c.waiters {
		if entry.stopped || entry.fired {
			continue
		}
		active = append(active, entry)
	}
	c.waiters = active
}

// WaitForTimers blocks until at least n waiters are pending. This is
// the synchronization point between a goroutine arming a timer and a
// test wanting to fire it: wait for the registration, then Advance.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of armed waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, entry := range c.waiters {
		if !entry.stopped && !entry.fired {
			count++
		}
	}
	return count
}
