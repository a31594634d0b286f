// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "github.com/parleychat/parley/wire"

// roster aggregates presence and typing signals for the current room.
// Presence is replace-on-receive: each presence envelope carries the
// complete membership and overwrites the previous one. Typing is an
// insertion-ordered set keyed by user ID. Not safe for concurrent
// use; the session serializes access under its mutex.
type roster struct {
	online []wire.User
	count  int
	typing []wire.User
}

// replace installs a full membership snapshot.
func (r *roster) replace(users []wire.User, count int) {
	r.online = append(r.online[:0], users...)
	r.count = count
}

// setTyping records one participant's typing state and reports
// whether anything changed. Re-asserting an existing state is not a
// change; stopping for a user never recorded is not one either, so
// duplicate stop signals stay silent.
func (r *roster) setTyping(user wire.User, active bool) bool {
	index := -1
	for i, existing := range r.typing {
		if existing.ID == user.ID {
			index = i
			break
		}
	}
	if active {
		if index >= 0 {
			return false
		}
		r.typing = append(r.typing, user)
		return true
	}
	if index < 0 {
		return false
	}
	r.typing = append(r.typing[:index], r.typing[index+1:]...)
	return true
}

// snapshotOnline returns a copy of the current membership.
func (r *roster) snapshotOnline() []wire.User {
	users := make([]wire.User, len(r.online))
	copy(users, r.online)
	return users
}

// snapshotTyping returns a copy of the users currently typing, in the
// order their indicators arrived.
func (r *roster) snapshotTyping() []wire.User {
	users := make([]wire.User, len(r.typing))
	copy(users, r.typing)
	return users
}

// reset clears all aggregated state, for room changes and disconnects.
func (r *roster) reset() {
	r.online = nil
	r.count = 0
	r.typing = nil
}
