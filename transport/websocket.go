// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection tuning. The pong window must exceed the session's ping
// interval or an idle but healthy connection times out.
const (
	// handshakeTimeout bounds the HTTP upgrade exchange.
	handshakeTimeout = 10 * time.Second

	// writeWait bounds each frame write, data and control alike.
	writeWait = 10 * time.Second

	// pongWait is the read deadline window. Refreshed by every
	// arriving data frame and every pong.
	pongWait = 60 * time.Second

	// maxFrameSize caps inbound frames. Protocol envelopes are small;
	// 64 KiB leaves generous headroom over the 1000-character content
	// limit.
	maxFrameSize = 64 * 1024
)

// Compile-time interface checks.
var (
	_ Dialer = websocketDialer{}
	_ Conn   = (*websocketConn)(nil)
)

// Websocket returns the production Dialer. Endpoints use ws or wss
// schemes; everything after the scheme is passed to the server as-is,
// so callers embed query parameters before dialing.
func Websocket() Dialer { return websocketDialer{} }

type websocketDialer struct{}

func (websocketDialer) DialContext(ctx context.Context, endpoint string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	socket, response, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if response != nil {
			response.Body.Close()
			return nil, fmt.Errorf("dial %s: handshake rejected with status %s: %w", endpoint, response.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	socket.SetReadLimit(maxFrameSize)
	_ = socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &websocketConn{socket: socket}, nil
}

// websocketConn adapts a gorilla connection to the Conn interface.
// gorilla permits one concurrent data writer, so writes serialize
// under writeMu; control frames have their own concurrency guarantee.
type websocketConn struct {
	socket  *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	for {
		messageType, data, err := c.socket.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return nil, &CloseError{Code: closeErr.Code, Reason: closeErr.Text}
			}
			return nil, fmt.Errorf("read frame: %w", err)
		}
		// Inbound traffic proves the peer is alive, ping or not.
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		if messageType != websocket.TextMessage {
			// The protocol is JSON text; stray binary frames are noise.
			continue
		}
		return data, nil
	}
}

func (c *websocketConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.socket.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *websocketConn) Ping() error {
	deadline := time.Now().Add(writeWait)
	if err := c.socket.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return fmt.Errorf("write ping: %w", err)
	}
	return nil
}

func (c *websocketConn) Close(code int, reason string) error {
	var err error
	c.once.Do(func() {
		message := websocket.FormatCloseMessage(code, reason)
		deadline := time.Now().Add(writeWait)
		_ = c.socket.WriteControl(websocket.CloseMessage, message, deadline)
		err = c.socket.Close()
	})
	return err
}
