// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/parleychat/parley/lib/clock"
	"github.com/parleychat/parley/transport"
	"github.com/parleychat/parley/wire"
)

const (
	// DefaultReconnectBase is the delay before the first reconnect
	// attempt. Each further attempt doubles it.
	DefaultReconnectBase = time.Second

	// DefaultReconnectMax caps the doubled reconnect delay.
	DefaultReconnectMax = 30 * time.Second

	// DefaultMaxAttempts is the reconnect budget per outage. The
	// counter resets on every successful connection.
	DefaultMaxAttempts = 10

	// DefaultSettleDelay is the pause between leaving one room and
	// dialing the next, giving the server time to process the
	// departure before the same user reappears elsewhere.
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultPingInterval is how often the session pings an idle
	// connection so intermediaries keep it alive.
	DefaultPingInterval = 30 * time.Second

	// DefaultEventBuffer is the capacity of the Events channel.
	DefaultEventBuffer = 256
)

// Config carries everything a Session needs. Endpoint, Room, and the
// User identity are required; the rest defaults sensibly. Duration
// and count fields treat zero as "use the default"; MaxAttempts < 0
// retries forever, PingInterval < 0 disables pings, and
// SettleDelay < 0 dials the next room immediately.
type Config struct {
	// Endpoint is the chat server's websocket URL, for example
	// "wss://chat.example.com/ws". Query parameters are appended.
	Endpoint string

	// Room is the room to join on Connect.
	Room string

	// User identifies this participant. ID and Name are required.
	User wire.User

	// Token is sent as the token query parameter when non-empty.
	Token string

	// Dialer opens connections. Nil means transport.Websocket().
	Dialer transport.Dialer

	// Clock drives timers. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives debug and lifecycle logs. Nil discards them.
	Logger *slog.Logger

	ReconnectBase time.Duration
	ReconnectMax  time.Duration
	MaxAttempts   int
	SettleDelay   time.Duration
	PingInterval  time.Duration
	EventBuffer   int
}

// withDefaults returns a copy with every unset field filled in.
func (c Config) withDefaults() Config {
	if c.Dialer == nil {
		c.Dialer = transport.Websocket()
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.ReconnectBase <= 0 {
		c.ReconnectBase = DefaultReconnectBase
	}
	if c.ReconnectMax <= 0 {
		c.ReconnectMax = DefaultReconnectMax
	}
	if c.ReconnectMax < c.ReconnectBase {
		c.ReconnectMax = c.ReconnectBase
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	return c
}

// validate rejects configs the server would refuse anyway.
func (c Config) validate() error {
	if c.Endpoint == "" {
		return errors.New("session: endpoint is required")
	}
	if !wire.ValidRoom(c.Room) {
		return fmt.Errorf("%w: %q", ErrInvalidRoom, c.Room)
	}
	if c.User.ID == "" {
		return errors.New("session: user id is required")
	}
	if c.User.Name == "" {
		return errors.New("session: user name is required")
	}
	return nil
}

// url builds the dial target for a room: the endpoint plus the
// identity query parameters the server authenticates with.
func (c Config) url(room string) string {
	values := url.Values{}
	values.Set("room", room)
	values.Set("user_id", c.User.ID)
	values.Set("user_name", c.User.Name)
	if c.Token != "" {
		values.Set("token", c.Token)
	}
	separator := "?"
	if strings.Contains(c.Endpoint, "?") {
		separator = "&"
	}
	return c.Endpoint + separator + values.Encode()
}
