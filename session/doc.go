// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package session maintains a resilient client connection to a chat
// server and turns its envelope stream into typed events.
//
// A Session joins one room at a time over a transport.Conn, normally
// a websocket. When the connection drops it heals on its own:
// exponential backoff between dials, a per-outage attempt budget, and
// a hard stop on close codes that mean the server does not want the
// client back. The consumer watches a single Events channel; every
// server envelope and every lifecycle transition arrives there, in
// order.
//
// The event contract, which the rest of the repo leans on:
//
//   - Envelope events are delivered in wire order, at most one
//     MessageEvent, PresenceEvent, TypingEvent, or ErrorEvent per
//     envelope. A system envelope may add a DebateEvent right after
//     its SystemEvent.
//   - Each run of the machine, from Connect to giving up or
//     Disconnect, ends with exactly one Closed event. A nil Closed.Err
//     means the user asked; a *TerminalError means the session gave
//     up.
//   - No event of a run arrives after that run's Closed, and the next
//     run's Connected never arrives before it.
//   - Delivery blocks when the channel buffer fills. Only Close
//     unblocks a stuck delivery, so consumers must keep draining.
//
// Sends are synchronous and never queued: while the session is
// between connections, SendMessage and friends return ErrNotConnected
// and the caller decides what to do once a Connected event arrives.
//
// File layout: session.go holds the connection machine, config.go its
// knobs, events.go the event types, dispatch.go the envelope
// translation, debate.go and roster.go the per-room aggregates,
// reconnect.go the retry policy, and errors.go the error taxonomy.
package session
