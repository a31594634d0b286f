// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "strings"

// commandKind classifies a submitted composer line.
type commandKind int

const (
	// commandSend is plain chat text (including the // escape).
	commandSend commandKind = iota
	commandRoom
	commandDebate
	commandStop
	commandClear
	commandHelp
	commandQuit
	commandUnknown
)

// command is a parsed composer line. arg holds the room name for
// commandRoom, the topic for commandDebate, the message text for
// commandSend, and the unrecognized verb for commandUnknown.
type command struct {
	kind commandKind
	arg  string
}

// parseInput classifies a submitted composer line. Lines starting with
// a single slash are commands; "//" escapes a leading slash so a
// literal "/shrug" can be sent as "//shrug". The command verb is
// case-insensitive, its argument keeps the user's spelling.
func parseInput(input string) command {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "//") {
		return command{kind: commandSend, arg: trimmed[1:]}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return command{kind: commandSend, arg: input}
	}

	verb, rest, _ := strings.Cut(trimmed[1:], " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "room", "join":
		return command{kind: commandRoom, arg: rest}
	case "debate":
		return command{kind: commandDebate, arg: rest}
	case "stop":
		return command{kind: commandStop}
	case "clear":
		return command{kind: commandClear}
	case "help":
		return command{kind: commandHelp}
	case "quit", "exit":
		return command{kind: commandQuit}
	}
	return command{kind: commandUnknown, arg: verb}
}

// helpText is appended to the transcript by /help.
const helpText = `commands:
  /room <name>     switch to another room
  /debate <topic>  start an agent debate on the topic
  /stop            stop the running debate
  /clear           clear the transcript
  /help            show this help
  /quit            exit
  //text           send a message that starts with a slash`
