// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/parleychat/parley/lib/clock"
	"github.com/parleychat/parley/lib/sanitize"
	"github.com/parleychat/parley/transport"
	"github.com/parleychat/parley/wire"
)

// State is where the session's connection machine currently stands.
type State int

const (
	// StateIdle means no connection and no pending work. New sessions
	// start here and terminal closes return here, so Connect works
	// again after the session gave up.
	StateIdle State = iota

	// StateConnecting means a dial is in flight, either the first one
	// or the settle-delayed dial after a room change.
	StateConnecting

	// StateConnected means envelopes flow.
	StateConnected

	// StateReconnecting means the connection dropped and a retry is
	// scheduled or dialing.
	StateReconnecting

	// StateClosed means Close was called. Nothing works anymore.
	StateClosed
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Status is a point-in-time snapshot of connection health. Attempts
// counts retries scheduled since the last successful connection and
// Err is the most recent transport failure, nil while healthy.
type Status struct {
	State    State
	Attempts int
	Err      error
}

// DebateRequest asks the server to run an agent debate in the current
// room. Topic is required; empty AgentA, AgentB, or a zero MaxRounds
// leave the choice to the server.
type DebateRequest struct {
	Topic     string
	AgentA    string
	AgentB    string
	MaxRounds int
}

// Session is a resilient client for one chat server: it keeps a
// websocket to the configured endpoint, heals drops with exponential
// backoff, and turns server envelopes into typed events on a single
// channel. One room is joined at a time; ChangeRoom moves between
// them. Methods are safe for concurrent use.
//
// Events must be drained: delivery blocks when the buffer fills, and
// only Close unblocks it.
type Session struct {
	config Config
	logger *slog.Logger
	clock  clock.Clock
	dialer transport.Dialer

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	// emitMu serializes event delivery and is acquired before mu, so
	// lifecycle events reach the channel in transition order even
	// when transitions race.
	emitMu sync.Mutex

	mu          sync.Mutex
	state       State
	room        string
	conn        transport.Conn
	generation  uint64
	attempts    int
	lastErr     error
	wasDown     bool
	retryTimer  *clock.Timer
	settleTimer *clock.Timer
	debate      debateTracker
	roster      roster
}

// New builds a session from config. It does not touch the network;
// call Connect to join the configured room.
func New(config Config) (*Session, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	return &Session{
		config: config,
		logger: config.Logger,
		clock:  config.Clock,
		dialer: config.Dialer,
		events: make(chan Event, config.EventBuffer),
		done:   make(chan struct{}),
		room:   config.Room,
	}, nil
}

// Events returns the delivery channel. It is never closed; a Closed
// event marks the end of each connection run instead.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Connect dials the current room and returns once the first dial
// resolves. A failed dial is not fatal: the session starts healing
// and Connect still returns nil, so watch Events for Reconnecting and
// Closed. The context covers the first dial only; canceling it aborts
// the attempt and returns the session to idle.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	case StateIdle:
	default:
		s.mu.Unlock()
		return ErrActive
	}
	s.generation++
	generation := s.generation
	s.state = StateConnecting
	s.attempts = 0
	s.lastErr = nil
	s.wasDown = false
	room := s.room
	s.mu.Unlock()

	conn, err := s.dialer.DialContext(ctx, s.config.url(room))
	if err != nil {
		if ctx.Err() != nil {
			s.abortConnect(generation)
			return err
		}
		s.connectionLost(generation, wire.CloseAbnormal, err)
		return nil
	}
	if !s.adopt(generation, conn, room) && s.State() == StateClosed {
		return ErrSessionClosed
	}
	return nil
}

// abortConnect returns a canceled first dial to idle, silently: the
// run never announced anything, so it ends without a Closed event.
func (s *Session) abortConnect(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation == s.generation && s.state == StateConnecting {
		s.state = StateIdle
	}
}

// Disconnect leaves the room and stops any pending retry. It emits a
// Closed event with a nil error and is a no-op when nothing is
// running.
func (s *Session) Disconnect() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	switch s.state {
	case StateIdle, StateClosed:
		s.mu.Unlock()
		return
	}
	s.generation++
	s.teardownLocked("leaving")
	s.state = StateIdle
	s.mu.Unlock()
	s.logger.Info("disconnected")
	s.send(Closed{})
}

// Close tears the session down for good. Pending event deliveries
// unblock, no further events arrive, and every later call returns
// ErrSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.generation++
	s.teardownLocked("closing")
	s.state = StateClosed
}

// ChangeRoom switches the session to another room. When active it
// closes the current connection, emits RoomLeft, waits the settle
// delay, and dials the new room; when idle it only retargets the next
// Connect. Changing to the current room is a no-op.
func (s *Session) ChangeRoom(room string) error {
	if !wire.ValidRoom(room) {
		return ErrInvalidRoom
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if room == s.room {
		s.mu.Unlock()
		return nil
	}
	previous := s.room
	s.room = room
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil
	}
	s.generation++
	next := s.generation
	wasConnected := s.state == StateConnected
	s.teardownLocked("changing rooms")
	s.state = StateConnecting
	if delay := s.config.SettleDelay; delay > 0 {
		s.settleTimer = s.clock.AfterFunc(delay, func() { s.redial(next, room) })
	} else {
		go s.redial(next, room)
	}
	s.mu.Unlock()
	s.logger.Info("changing rooms", "from", previous, "to", room)
	if wasConnected {
		s.send(RoomLeft{Room: previous})
	}
	return nil
}

// SendMessage sends chat content to the current room and returns the
// generated client id, which the server echoes back so the message
// can be recognized in the event stream. Content has script regions
// stripped and is trimmed before validation, so whitespace-only input,
// input that is nothing but script tags, and content over
// wire.MaxContentLength are all rejected locally.
func (s *Session) SendMessage(content string) (string, error) {
	cleaned := strings.TrimSpace(sanitize.Strip(content))
	if cleaned == "" {
		return "", ErrEmptyMessage
	}
	if length := wire.ContentLength(cleaned); length > wire.MaxContentLength {
		return "", &CapacityError{Length: length, Limit: wire.MaxContentLength}
	}
	conn, room, err := s.live()
	if err != nil {
		return "", err
	}
	clientID := uuid.NewString()
	envelope := wire.NewMessage(room, s.config.User, cleaned, clientID, s.clock.Now().UnixMilli())
	if err := s.write(conn, envelope); err != nil {
		return "", err
	}
	return clientID, nil
}

// SendTyping tells the room this user started or stopped typing.
func (s *Session) SendTyping(active bool) error {
	conn, room, err := s.live()
	if err != nil {
		return err
	}
	return s.write(conn, wire.NewTyping(room, s.config.User, active, s.clock.Now().UnixMilli()))
}

// StartDebate asks the server to run an agent debate. The topic has
// script regions stripped like message content. Nothing is tracked
// until the server announces the debate started; watch for
// DebateEvent.
func (s *Session) StartDebate(request DebateRequest) error {
	topic := strings.TrimSpace(sanitize.Strip(request.Topic))
	if topic == "" {
		return ErrEmptyTopic
	}
	if request.MaxRounds < 0 || request.MaxRounds > wire.MaxDebateRounds {
		return fmt.Errorf("session: debate rounds %d outside 0..%d", request.MaxRounds, wire.MaxDebateRounds)
	}
	conn, room, err := s.live()
	if err != nil {
		return err
	}
	meta := wire.Meta{"topic": topic}
	if request.AgentA != "" {
		meta["agent_a"] = request.AgentA
	}
	if request.AgentB != "" {
		meta["agent_b"] = request.AgentB
	}
	if request.MaxRounds > 0 {
		meta["max_rounds"] = request.MaxRounds
	}
	return s.write(conn, wire.NewSystem(room, s.config.User, wire.ActionDebateStart, meta, s.clock.Now().UnixMilli()))
}

// StopDebate asks the server to end the running debate. It sends
// unconditionally; the server decides whether there is anything to
// stop.
func (s *Session) StopDebate() error {
	conn, room, err := s.live()
	if err != nil {
		return err
	}
	return s.write(conn, wire.NewSystem(room, s.config.User, wire.ActionDebateStop, nil, s.clock.Now().UnixMilli()))
}

// State returns the connection machine's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of connection health.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, Attempts: s.attempts, Err: s.lastErr}
}

// Room returns the room the session is in, or will join next.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Debate returns the tracked debate, zero when none is running.
func (s *Session) Debate() DebateStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debate.status
}

// Roster returns a copy of the room's membership from the latest
// presence envelope.
func (s *Session) Roster() []wire.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.snapshotOnline()
}

// Typing returns a copy of the users currently typing, oldest
// indicator first.
func (s *Session) Typing() []wire.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.snapshotTyping()
}

// live returns the current connection and room, or why there is none.
func (s *Session) live() (transport.Conn, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, "", ErrSessionClosed
	}
	if s.state != StateConnected || s.conn == nil {
		return nil, "", ErrNotConnected
	}
	return s.conn, s.room, nil
}

// write encodes and sends one envelope on conn.
func (s *Session) write(conn transport.Conn, envelope wire.Envelope) error {
	data, err := wire.Encode(envelope)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", envelope.Type, err)
	}
	if err := conn.WriteMessage(data); err != nil {
		return fmt.Errorf("write %s envelope: %w", envelope.Type, err)
	}
	return nil
}

// adopt installs a freshly dialed connection, provided the run it
// belongs to is still current. It reports whether the connection was
// kept; superseded ones are closed on the spot.
func (s *Session) adopt(generation uint64, conn transport.Conn, room string) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if generation != s.generation || (s.state != StateConnecting && s.state != StateReconnecting) {
		s.mu.Unlock()
		conn.Close(wire.CloseNormal, "superseded")
		return false
	}
	s.conn = conn
	s.state = StateConnected
	s.attempts = 0
	s.lastErr = nil
	reconnected := s.wasDown
	s.wasDown = false
	s.retryTimer = nil
	s.settleTimer = nil
	s.mu.Unlock()
	go s.readLoop(generation, conn)
	if s.config.PingInterval > 0 {
		go s.pingLoop(generation, conn)
	}
	s.logger.Info("connected", "room", room, "reconnected", reconnected)
	s.send(Connected{Room: room, Reconnected: reconnected})
	return true
}

// redial dials the current room again for a scheduled retry or a
// settled room change.
func (s *Session) redial(generation uint64, room string) {
	s.mu.Lock()
	if generation != s.generation || (s.state != StateConnecting && s.state != StateReconnecting) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	conn, err := s.dialer.DialContext(context.Background(), s.config.url(room))
	if err != nil {
		s.connectionLost(generation, wire.CloseAbnormal, err)
		return
	}
	s.adopt(generation, conn, room)
}

// connectionLost is the single failure path: read errors, ping
// errors, and failed dials all land here. It supersedes the dead
// connection's goroutines, then either schedules a retry or gives up
// with a terminal Closed event. Stale callers are ignored.
func (s *Session) connectionLost(generation uint64, code int, cause error) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if generation != s.generation || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.generation++
	next := s.generation
	if s.conn != nil {
		s.conn.Close(wire.CloseNormal, "")
		s.conn = nil
	}
	s.stopTimersLocked()
	// The roster self-heals on rejoin through a fresh presence
	// envelope; a running debate is never re-announced, so its
	// tracker survives transient drops.
	s.roster.reset()
	s.wasDown = true
	room := s.room
	if !shouldRetry(code, s.attempts, s.config.MaxAttempts) {
		terminal := &TerminalError{CloseCode: code, Attempts: s.attempts, Err: cause}
		s.lastErr = terminal
		s.attempts = 0
		s.wasDown = false
		s.state = StateIdle
		s.debate.reset()
		s.mu.Unlock()
		s.logger.Info("giving up", "close_code", code, "error", cause)
		s.send(Closed{Err: terminal})
		return
	}
	s.lastErr = cause
	s.attempts++
	attempt := s.attempts
	delay := backoffDelay(s.config.ReconnectBase, s.config.ReconnectMax, attempt-1)
	s.state = StateReconnecting
	s.retryTimer = s.clock.AfterFunc(delay, func() { s.redial(next, room) })
	s.mu.Unlock()
	s.logger.Info("reconnecting", "attempt", attempt, "delay", delay, "error", cause)
	s.send(Reconnecting{Attempt: attempt, Delay: delay, Err: cause})
}

// readLoop pumps one connection until it dies. Malformed frames are
// dropped with a debug log; the protocol keeps flowing.
func (s *Session) readLoop(generation uint64, conn transport.Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			code := wire.CloseAbnormal
			if closeCode, ok := transport.CloseCode(err); ok {
				code = closeCode
			}
			s.connectionLost(generation, code, err)
			return
		}
		envelope, err := wire.Decode(data)
		if err != nil {
			s.logger.Debug("dropping malformed frame", "error", err)
			continue
		}
		s.deliver(generation, envelope)
	}
}

// deliver folds one envelope into session state and hands the
// resulting events to the consumer, in order.
func (s *Session) deliver(generation uint64, envelope wire.Envelope) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if generation != s.generation || s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	events := s.translate(envelope)
	s.mu.Unlock()
	for _, event := range events {
		if !s.send(event) {
			return
		}
	}
}

// pingLoop keeps an idle connection alive. A failed ping means the
// connection is gone even if the read side has not noticed yet.
func (s *Session) pingLoop(generation uint64, conn transport.Conn) {
	ticker := s.clock.NewTicker(s.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if !s.current(generation) {
				return
			}
			if err := conn.Ping(); err != nil {
				s.connectionLost(generation, wire.CloseAbnormal, fmt.Errorf("ping: %w", err))
				return
			}
		}
	}
}

// current reports whether generation is still the live run.
func (s *Session) current(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generation == s.generation
}

// send delivers one event, blocking until the consumer takes it or
// the session closes. Caller holds emitMu.
func (s *Session) send(event Event) bool {
	select {
	case s.events <- event:
		return true
	case <-s.done:
		return false
	}
}

// teardownLocked closes the connection, cancels timers, and resets
// per-connection state. Caller holds mu and has already bumped the
// generation.
func (s *Session) teardownLocked(reason string) {
	if s.conn != nil {
		s.conn.Close(wire.CloseNormal, reason)
		s.conn = nil
	}
	s.stopTimersLocked()
	s.attempts = 0
	s.lastErr = nil
	s.wasDown = false
	s.debate.reset()
	s.roster.reset()
}

func (s *Session) stopTimersLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
}
