// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"sync"
)

// errConnClosed is returned by operations on the end that initiated
// the close. The other end sees a *CloseError instead.
var errConnClosed = errors.New("connection closed locally")

// Compile-time interface check.
var _ Conn = (*memoryConn)(nil)

// Pipe returns two connected in-process Conns. A message written on
// one end arrives at the other in order. Closing either end makes the
// closer's operations fail immediately and delivers a *CloseError with
// the given code to the peer once it drains any buffered messages.
// Pings always succeed while the pipe is open.
//
// Tests use Pipe where a session needs a live connection without a
// server: the test holds one end and plays the server's part.
func Pipe() (Conn, Conn) {
	shared := &pipeState{done: make(chan struct{})}
	a := &memoryConn{state: shared, inbound: make(chan []byte, 16)}
	b := &memoryConn{state: shared, inbound: make(chan []byte, 16)}
	a.peer, b.peer = b, a
	return a, b
}

// pipeState is shared by both ends so the first Close wins and the
// second is a no-op.
type pipeState struct {
	once sync.Once
	done chan struct{}
}

type memoryConn struct {
	state   *pipeState
	inbound chan []byte
	peer    *memoryConn

	mu       sync.Mutex
	readErr  error
	writeErr error
}

func (c *memoryConn) ReadMessage() ([]byte, error) {
	// Buffered messages outrank the close signal so nothing sent
	// before the close is lost.
	select {
	case data := <-c.inbound:
		return data, nil
	default:
	}
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.state.done:
		select {
		case data := <-c.inbound:
			return data, nil
		default:
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.readErr
	}
}

func (c *memoryConn) WriteMessage(data []byte) error {
	buffer := make([]byte, len(data))
	copy(buffer, data)
	select {
	case c.peer.inbound <- buffer:
		return nil
	case <-c.state.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.writeErr
	}
}

func (c *memoryConn) Ping() error {
	select {
	case <-c.state.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.writeErr
	default:
		return nil
	}
}

func (c *memoryConn) Close(code int, reason string) error {
	c.state.once.Do(func() {
		c.mu.Lock()
		c.readErr = errConnClosed
		c.writeErr = errConnClosed
		c.mu.Unlock()

		c.peer.mu.Lock()
		c.peer.readErr = &CloseError{Code: code, Reason: reason}
		c.peer.writeErr = errConnClosed
		c.peer.mu.Unlock()

		close(c.state.done)
	})
	return nil
}
