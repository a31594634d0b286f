// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui implements the terminal user interface for a Parley
// chat session. Built on bubbletea (Elm architecture), it renders a
// scrollback transcript, a status bar with connection and debate
// state, a typing indicator line, and a single-line composer that
// doubles as the slash-command prompt.
//
// The [Controller] interface decouples the UI from the session engine:
// the model consumes [session.Event] values from a channel and drives
// the session through a handful of methods, so tests substitute a fake
// controller and the UI never touches a socket.
//
// Data flow:
//
//	[session engine] --events channel--> [Model] <- bubbletea loop
//	        ^                               |
//	        +------ send/typing/debate -----+
//
// Background log records reach the status bar through [LogHandler],
// which turns slog records into bubbletea messages instead of writing
// to stderr (stderr output would corrupt the alt-screen display).
package chatui
