// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parleychat/parley/lib/clock"
	"github.com/parleychat/parley/lib/testutil"
	"github.com/parleychat/parley/transport"
	"github.com/parleychat/parley/wire"
)

var (
	selfUser   = wire.User{ID: "u-self", Name: "selfie"}
	bobUser    = wire.User{ID: "u-bob", Name: "bob"}
	systemUser = wire.User{ID: "system", Name: "System"}
)

// serverEnd is the server half of one accepted dial.
type serverEnd struct {
	endpoint string
	conn     transport.Conn
}

// testSession wires a Session to a fake clock and an in-memory
// transport. Every dial hands the server end of a fresh pipe to the
// dials channel.
type testSession struct {
	session *Session
	clock   *clock.FakeClock
	dials   chan serverEnd
}

func newTestSession(t *testing.T, mutate func(*Config)) *testSession {
	t.Helper()
	fake := clock.Fake(time.Unix(1700000000, 0))
	dials := make(chan serverEnd, 16)
	config := Config{
		Endpoint:     "ws://chat.test/ws",
		Room:         "general",
		User:         selfUser,
		Clock:        fake,
		PingInterval: -1,
		Dialer: transport.DialerFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
			client, server := transport.Pipe()
			dials <- serverEnd{endpoint: endpoint, conn: server}
			return client, nil
		}),
	}
	if mutate != nil {
		mutate(&config)
	}
	session, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(session.Close)
	return &testSession{session: session, clock: fake, dials: dials}
}

// connect drives Connect to success and consumes the Connected event.
func (ts *testSession) connect(t *testing.T) serverEnd {
	t.Helper()
	if err := ts.session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	server := testutil.RequireReceive(t, ts.dials, "waiting for the session to dial")
	expectEvent[Connected](t, ts.session.Events())
	return server
}

// expectEvent receives the next event and requires its concrete type.
func expectEvent[T Event](t *testing.T, events <-chan Event) T {
	t.Helper()
	var want T
	event := testutil.RequireReceive(t, events, "waiting for a %T event", want)
	typed, ok := event.(T)
	if !ok {
		t.Fatalf("next event is %T (%+v), want %T", event, event, want)
	}
	return typed
}

// expectNoEvent requires the event channel to be empty. Only valid
// once no emitter can still be in flight.
func expectNoEvent(t *testing.T, events <-chan Event) {
	t.Helper()
	select {
	case event := <-events:
		t.Fatalf("unexpected event %T (%+v)", event, event)
	default:
	}
}

// serverSend writes one envelope from the server side.
func serverSend(t *testing.T, conn transport.Conn, envelope wire.Envelope) {
	t.Helper()
	data, err := wire.Encode(envelope)
	if err != nil {
		t.Fatalf("encoding server envelope: %v", err)
	}
	if err := conn.WriteMessage(data); err != nil {
		t.Fatalf("writing server envelope: %v", err)
	}
}

// serverRead decodes the next frame the client wrote.
func serverRead(t *testing.T, conn transport.Conn) wire.Envelope {
	t.Helper()
	type outcome struct {
		data []byte
		err  error
	}
	outcomes := make(chan outcome, 1)
	go func() {
		data, err := conn.ReadMessage()
		outcomes <- outcome{data: data, err: err}
	}()
	result := testutil.RequireReceive(t, outcomes, "waiting for a frame from the client")
	if result.err != nil {
		t.Fatalf("reading client frame: %v", result.err)
	}
	envelope, err := wire.Decode(result.data)
	if err != nil {
		t.Fatalf("decoding client frame: %v", err)
	}
	return envelope
}

// serverAwaitClose reads until the client closes and returns the code.
func serverAwaitClose(t *testing.T, conn transport.Conn) *transport.CloseError {
	t.Helper()
	errs := make(chan error, 1)
	go func() {
		for {
			if _, err := conn.ReadMessage(); err != nil {
				errs <- err
				return
			}
		}
	}()
	err := testutil.RequireReceive(t, errs, "waiting for the client to close")
	var closeErr *transport.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("client side failed with %v, want a close error", err)
	}
	return closeErr
}

func TestConnectAndExchangeMessages(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)

	if err := ts.session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	server := testutil.RequireReceive(t, ts.dials, "waiting for the session to dial")

	endpoint, err := url.Parse(server.endpoint)
	if err != nil {
		t.Fatalf("parsing dialed endpoint: %v", err)
	}
	query := endpoint.Query()
	if query.Get("room") != "general" || query.Get("user_id") != "u-self" || query.Get("user_name") != "selfie" {
		t.Errorf("dialed endpoint %q missing identity parameters", server.endpoint)
	}

	connected := expectEvent[Connected](t, ts.session.Events())
	if connected.Room != "general" || connected.Reconnected {
		t.Errorf("Connected = %+v, want fresh connection to general", connected)
	}
	if got := ts.session.State(); got != StateConnected {
		t.Errorf("State() = %v, want connected", got)
	}

	clientID, err := ts.session.SendMessage("  hello  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if clientID == "" {
		t.Fatal("SendMessage returned an empty client id")
	}
	sent := serverRead(t, server.conn)
	if sent.Type != wire.KindMessage || sent.Room != "general" {
		t.Errorf("client frame = %+v, want a message for general", sent)
	}
	if sent.Content != "hello" {
		t.Errorf("content = %q, want trimmed %q", sent.Content, "hello")
	}
	if sent.ClientID != clientID {
		t.Errorf("client_id = %q, want the returned %q", sent.ClientID, clientID)
	}
	if sent.User != selfUser {
		t.Errorf("sender = %+v, want %+v", sent.User, selfUser)
	}
	if want := ts.clock.Now().UnixMilli(); sent.TS != want {
		t.Errorf("ts = %d, want clock time %d", sent.TS, want)
	}

	if _, err := ts.session.SendMessage("look <script>alert(1)</script>harmless"); err != nil {
		t.Fatalf("SendMessage with script region: %v", err)
	}
	if sent := serverRead(t, server.conn); sent.Content != "look harmless" {
		t.Errorf("outbound content = %q, want script region stripped before the wire", sent.Content)
	}

	serverSend(t, server.conn, wire.NewMessage("general", bobUser, "hi <script>alert(1)</script>there", "c-1", 1700000000123))
	message := expectEvent[MessageEvent](t, ts.session.Events())
	if message.Content != "hi there" {
		t.Errorf("content = %q, want script region stripped", message.Content)
	}
	if message.Sender != bobUser || message.ClientID != "c-1" {
		t.Errorf("message = %+v, want bob's c-1", message)
	}
	if want := time.UnixMilli(1700000000123); !message.SentAt.Equal(want) {
		t.Errorf("SentAt = %v, want %v", message.SentAt, want)
	}
}

func TestSendValidation(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)

	if _, err := ts.session.SendMessage("   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("whitespace message: got %v, want ErrEmptyMessage", err)
	}
	if _, err := ts.session.SendMessage(" <script>alert(1)</script> "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("script-only message: got %v, want ErrEmptyMessage after stripping", err)
	}

	_, err := ts.session.SendMessage(strings.Repeat("é", wire.MaxContentLength+1))
	var capacity *CapacityError
	if !errors.As(err, &capacity) {
		t.Fatalf("oversized message: got %v, want *CapacityError", err)
	}
	if capacity.Length != wire.MaxContentLength+1 || capacity.Limit != wire.MaxContentLength {
		t.Errorf("capacity = %+v, want rune count %d over limit %d",
			capacity, wire.MaxContentLength+1, wire.MaxContentLength)
	}

	if _, err := ts.session.SendMessage("hello"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("idle send: got %v, want ErrNotConnected", err)
	}
	if err := ts.session.SendTyping(true); !errors.Is(err, ErrNotConnected) {
		t.Errorf("idle typing: got %v, want ErrNotConnected", err)
	}
}

func TestConnectGuards(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)
	ts.connect(t)

	if err := ts.session.Connect(context.Background()); !errors.Is(err, ErrActive) {
		t.Errorf("second Connect: got %v, want ErrActive", err)
	}

	ts.session.Close()
	if err := ts.session.Connect(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Connect after Close: got %v, want ErrSessionClosed", err)
	}
	if _, err := ts.session.SendMessage("hello"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("SendMessage after Close: got %v, want ErrSessionClosed", err)
	}
}

func TestConnectCanceled(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, func(config *Config) {
		config.Dialer = transport.DialerFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ts.session.Connect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Connect: got %v, want context.Canceled", err)
	}
	if got := ts.session.State(); got != StateIdle {
		t.Errorf("State() = %v, want idle after a canceled dial", got)
	}
	expectNoEvent(t, ts.session.Events())
	if ts.clock.PendingCount() != 0 {
		t.Error("canceled connect left a timer armed")
	}
}

func TestBackoffWalkAndExhaustion(t *testing.T) {
	t.Parallel()
	dialCount := 0
	ts := newTestSession(t, func(config *Config) {
		config.ReconnectBase = time.Second
		config.ReconnectMax = 4 * time.Second
		config.MaxAttempts = 4
		config.Dialer = transport.DialerFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
			dialCount++
			return nil, errors.New("connection refused")
		})
	})

	if err := ts.session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	wantDelays := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second}
	for i, want := range wantDelays {
		reconnecting := expectEvent[Reconnecting](t, ts.session.Events())
		if reconnecting.Attempt != i+1 || reconnecting.Delay != want {
			t.Fatalf("retry %d = %+v, want attempt %d after %v", i+1, reconnecting, i+1, want)
		}
		if reconnecting.Err == nil {
			t.Fatalf("retry %d carries no error", i+1)
		}
		ts.clock.Advance(want)
	}

	closed := expectEvent[Closed](t, ts.session.Events())
	var terminal *TerminalError
	if !errors.As(closed.Err, &terminal) {
		t.Fatalf("Closed.Err = %v, want *TerminalError", closed.Err)
	}
	if terminal.CloseCode != wire.CloseAbnormal || terminal.Attempts != 4 {
		t.Errorf("terminal = %+v, want code 1006 after 4 attempts", terminal)
	}
	if dialCount != 5 {
		t.Errorf("dialed %d times, want 1 initial + 4 retries", dialCount)
	}
	if got := ts.session.State(); got != StateIdle {
		t.Errorf("State() = %v, want idle after giving up", got)
	}
	if ts.clock.PendingCount() != 0 {
		t.Error("a retry timer survived exhaustion")
	}
	expectNoEvent(t, ts.session.Events())
}

func TestDialFailureThenRecovery(t *testing.T) {
	t.Parallel()
	// Dials run on the test goroutine only: Connect dials inline and
	// retries fire inside Advance.
	failFirst := true
	ts := newTestSession(t, func(config *Config) {
		pipes := config.Dialer
		config.Dialer = transport.DialerFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
			if failFirst {
				failFirst = false
				return nil, errors.New("connection refused")
			}
			return pipes.DialContext(ctx, endpoint)
		})
	})

	if err := ts.session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	reconnecting := expectEvent[Reconnecting](t, ts.session.Events())
	if reconnecting.Attempt != 1 || reconnecting.Delay != time.Second {
		t.Fatalf("retry = %+v, want attempt 1 after 1s", reconnecting)
	}

	ts.clock.Advance(time.Second)
	testutil.RequireReceive(t, ts.dials, "waiting for the retry dial")
	connected := expectEvent[Connected](t, ts.session.Events())
	if !connected.Reconnected {
		t.Error("Reconnected = false, want true after healing a failed dial")
	}
	if status := ts.session.Status(); status.State != StateConnected || status.Attempts != 0 || status.Err != nil {
		t.Errorf("Status() = %+v, want healthy connected snapshot", status)
	}
}

func TestServerCloseWithPermanentCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		code int
	}{
		{name: "policy violation", code: wire.ClosePolicyViolation},
		{name: "application no retry", code: wire.CloseNoRetry},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestSession(t, nil)
			server := ts.connect(t)

			server.conn.Close(test.code, "go away")

			closed := expectEvent[Closed](t, ts.session.Events())
			var terminal *TerminalError
			if !errors.As(closed.Err, &terminal) {
				t.Fatalf("Closed.Err = %v, want *TerminalError", closed.Err)
			}
			if terminal.CloseCode != test.code || terminal.Attempts != 0 {
				t.Errorf("terminal = %+v, want close code %d with no attempts", terminal, test.code)
			}
			if ts.clock.PendingCount() != 0 {
				t.Error("a permanent close armed a retry timer")
			}
			if got := ts.session.State(); got != StateIdle {
				t.Errorf("State() = %v, want idle", got)
			}
		})
	}
}

func TestAbnormalServerCloseHeals(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)
	server := ts.connect(t)

	serverSend(t, server.conn, wire.NewSystem("general", systemUser, wire.ActionDebateStarted, wire.Meta{
		"debate_id": "deb-1",
		"topic":     "tabs versus spaces",
	}, 1700000000123))
	expectEvent[SystemEvent](t, ts.session.Events())
	expectEvent[DebateEvent](t, ts.session.Events())

	server.conn.Close(wire.CloseAbnormal, "proxy died")

	reconnecting := expectEvent[Reconnecting](t, ts.session.Events())
	if reconnecting.Attempt != 1 {
		t.Fatalf("retry = %+v, want first attempt", reconnecting)
	}
	if !ts.session.Debate().Active {
		t.Error("transient drop reset the debate tracker; the server never re-announces one")
	}

	ts.clock.Advance(time.Second)
	testutil.RequireReceive(t, ts.dials, "waiting for the retry dial")
	connected := expectEvent[Connected](t, ts.session.Events())
	if connected.Room != "general" || !connected.Reconnected {
		t.Errorf("Connected = %+v, want reconnection to general", connected)
	}
	if !ts.session.Debate().Active {
		t.Error("debate tracker lost across the reconnect")
	}
}

func TestDisconnect(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)
	server := ts.connect(t)

	ts.session.Disconnect()

	closed := expectEvent[Closed](t, ts.session.Events())
	if closed.Err != nil {
		t.Errorf("Closed.Err = %v, want nil for a manual disconnect", closed.Err)
	}
	closeErr := serverAwaitClose(t, server.conn)
	if closeErr.Code != wire.CloseNormal {
		t.Errorf("close code = %d, want 1000", closeErr.Code)
	}
	if got := ts.session.State(); got != StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}

	ts.session.Disconnect()
	expectNoEvent(t, ts.session.Events())
}

func TestDisconnectCancelsPendingRetry(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, func(config *Config) {
		config.Dialer = transport.DialerFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
			return nil, errors.New("connection refused")
		})
	})

	if err := ts.session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	expectEvent[Reconnecting](t, ts.session.Events())

	ts.session.Disconnect()
	closed := expectEvent[Closed](t, ts.session.Events())
	if closed.Err != nil {
		t.Errorf("Closed.Err = %v, want nil", closed.Err)
	}
	if ts.clock.PendingCount() != 0 {
		t.Error("retry timer still armed after Disconnect")
	}

	ts.clock.Advance(time.Hour)
	expectNoEvent(t, ts.session.Events())
}

func TestTerminalCloseAllowsFreshConnect(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)
	server := ts.connect(t)

	server.conn.Close(wire.CloseNoRetry, "maintenance")
	expectEvent[Closed](t, ts.session.Events())

	next := ts.connect(t)
	if next.conn == nil {
		t.Fatal("second connect produced no server end")
	}
	if got := ts.session.State(); got != StateConnected {
		t.Errorf("State() = %v, want connected after the fresh Connect", got)
	}
}

func TestChangeRoomWhileConnected(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)
	server := ts.connect(t)

	if err := ts.session.ChangeRoom("dev-room"); err != nil {
		t.Fatalf("ChangeRoom: %v", err)
	}
	left := expectEvent[RoomLeft](t, ts.session.Events())
	if left.Room != "general" {
		t.Errorf("RoomLeft = %+v, want general", left)
	}
	closeErr := serverAwaitClose(t, server.conn)
	if closeErr.Code != wire.CloseNormal {
		t.Errorf("close code = %d, want 1000", closeErr.Code)
	}
	if got := ts.session.State(); got != StateConnecting {
		t.Errorf("State() during settle = %v, want connecting", got)
	}
	if got := ts.session.Room(); got != "dev-room" {
		t.Errorf("Room() = %q, want dev-room", got)
	}

	ts.clock.Advance(500 * time.Millisecond)
	next := testutil.RequireReceive(t, ts.dials, "waiting for the settled dial")
	endpoint, err := url.Parse(next.endpoint)
	if err != nil {
		t.Fatalf("parsing dialed endpoint: %v", err)
	}
	if got := endpoint.Query().Get("room"); got != "dev-room" {
		t.Errorf("settled dial targets room %q, want dev-room", got)
	}
	connected := expectEvent[Connected](t, ts.session.Events())
	if connected.Room != "dev-room" || connected.Reconnected {
		t.Errorf("Connected = %+v, want fresh join of dev-room", connected)
	}
}

func TestChangeRoomValidation(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)
	ts.connect(t)

	if err := ts.session.ChangeRoom("bad room!"); !errors.Is(err, ErrInvalidRoom) {
		t.Errorf("invalid room: got %v, want ErrInvalidRoom", err)
	}
	if err := ts.session.ChangeRoom("general"); err != nil {
		t.Errorf("same room: got %v, want nil no-op", err)
	}
	expectNoEvent(t, ts.session.Events())
}

func TestChangeRoomWhileIdleRetargets(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, nil)

	if err := ts.session.ChangeRoom("dev-room"); err != nil {
		t.Fatalf("ChangeRoom: %v", err)
	}
	expectNoEvent(t, ts.session.Events())
	if got := ts.session.Room(); got != "dev-room" {
		t.Errorf("Room() = %q, want dev-room", got)
	}

	server := ts.connect(t)
	endpoint, err := url.Parse(server.endpoint)
	if err != nil {
		t.Fatalf("parsing dialed endpoint: %v", err)
	}
	if got := endpoint.Query().Get("room"); got != "dev-room" {
		t.Errorf("Connect dialed room %q, want dev-room", got)
	}
}

func TestChangeRoomWhileReconnecting(t *testing.T) {
	t.Parallel()
	refuse := true
	ts := newTestSession(t, func(config *Config) {
		pipes := config.Dialer
		config.Dialer = transport.DialerFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
			if refuse {
				return nil, errors.New("connection refused")
			}
			return pipes.DialContext(ctx, endpoint)
		})
	})

	if err := ts.session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	expectEvent[Reconnecting](t, ts.session.Events())

	if err := ts.session.ChangeRoom("dev-room"); err != nil {
		t.Fatalf("ChangeRoom: %v", err)
	}
	// Not connected, so no RoomLeft; the pending retry is replaced by
	// the settle timer.
	if got := ts.clock.PendingCount(); got != 1 {
		t.Errorf("pending timers = %d, want just the settle timer", got)
	}

	refuse = false
	ts.clock.Advance(500 * time.Millisecond)
	testutil.RequireReceive(t, ts.dials, "waiting for the settled dial")
	connected := expectEvent[Connected](t, ts.session.Events())
	if connected.Room != "dev-room" || connected.Reconnected {
		t.Errorf("Connected = %+v, want fresh join of dev-room", connected)
	}
	if status := ts.session.Status(); status.Attempts != 0 {
		t.Errorf("Attempts = %d, want reset by the room change", status.Attempts)
	}
}

func TestStatusDuringHealing(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, func(config *Config) {
		config.Dialer = transport.DialerFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
			return nil, errors.New("connection refused")
		})
		config.MaxAttempts = 1
	})

	if err := ts.session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	expectEvent[Reconnecting](t, ts.session.Events())

	status := ts.session.Status()
	if status.State != StateReconnecting || status.Attempts != 1 || status.Err == nil {
		t.Errorf("Status() = %+v, want reconnecting with one attempt and the dial error", status)
	}

	ts.clock.Advance(time.Second)
	expectEvent[Closed](t, ts.session.Events())
	status = ts.session.Status()
	var terminal *TerminalError
	if status.State != StateIdle || !errors.As(status.Err, &terminal) {
		t.Errorf("Status() = %+v, want idle with the terminal error retained", status)
	}
}

func TestCloseUnblocksSaturatedDelivery(t *testing.T) {
	t.Parallel()
	ts := newTestSession(t, func(config *Config) {
		config.EventBuffer = 1
	})
	server := ts.connect(t)

	for i := 0; i < 3; i++ {
		serverSend(t, server.conn, wire.NewMessage("general", bobUser, "flood", "", 1700000000123))
	}
	// Give the read loop a moment to wedge on the full buffer; Close
	// must return regardless of where it got to.
	time.Sleep(20 * time.Millisecond)

	unblocked := make(chan struct{})
	go func() {
		ts.session.Close()
		close(unblocked)
	}()
	testutil.RequireClosed(t, unblocked, "Close blocked on a saturated event channel")
}

// stubConn blocks reads until closed and makes pings observable and
// fallible, for exercising the keepalive path in isolation.
type stubConn struct {
	pings    chan struct{}
	failPing atomic.Bool
	done     chan struct{}
	once     sync.Once
}

func newStubConn() *stubConn {
	return &stubConn{pings: make(chan struct{}, 8), done: make(chan struct{})}
}

func (c *stubConn) ReadMessage() ([]byte, error) {
	<-c.done
	return nil, errors.New("stub conn closed")
}

func (c *stubConn) WriteMessage([]byte) error { return nil }

func (c *stubConn) Ping() error {
	if c.failPing.Load() {
		return errors.New("ping timeout")
	}
	c.pings <- struct{}{}
	return nil
}

func (c *stubConn) Close(int, string) error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func TestKeepalivePings(t *testing.T) {
	t.Parallel()
	stub := newStubConn()
	ts := newTestSession(t, func(config *Config) {
		config.PingInterval = 30 * time.Second
		config.Dialer = transport.DialerFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
			return stub, nil
		})
	})

	if err := ts.session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	expectEvent[Connected](t, ts.session.Events())

	// The ping goroutine arms its ticker after the connection is
	// adopted; wait for the registration before advancing.
	ts.clock.WaitForTimers(1)
	ts.clock.Advance(30 * time.Second)
	testutil.RequireReceive(t, stub.pings, "waiting for the keepalive ping")

	stub.failPing.Store(true)
	ts.clock.Advance(30 * time.Second)
	reconnecting := expectEvent[Reconnecting](t, ts.session.Events())
	if reconnecting.Err == nil || !strings.Contains(reconnecting.Err.Error(), "ping") {
		t.Errorf("Reconnecting.Err = %v, want the ping failure surfaced", reconnecting.Err)
	}
}
