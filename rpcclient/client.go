/*
 * MIT License
 *
 * Copyright (c) 2026 Helianthus Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package rpcclient is the client core: it owns a single
// transport.Conn, assigns monotonic call ids, correlates responses
// back to their caller through a pending-call table, and retries or
// times calls out against the server's declared contract.
package rpcclient

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpcmetrics"
	"github.com/helianthus-go/rpc/rpctypes"
	"github.com/helianthus-go/rpc/transport"
	"github.com/helianthus-go/rpc/wire"
)

// ErrNotConnected is returned by any call attempted before Connect or
// after Disconnect.
var ErrNotConnected = errors.New("rpcclient: not connected")

// ErrClosed is returned to pending calls still in flight when
// Disconnect runs.
var ErrClosed = errors.New("rpcclient: client closed")

// Config tunes a Client. Zero values fall back to documented defaults.
type Config struct {
	DefaultTimeout    time.Duration
	MaxRetries        uint32
	Format            rpctypes.SerializationFormat
	HeartbeatInterval time.Duration // 0 disables the auto-heartbeat sender
	MaxFrameBytes     int
	DialTimeout       time.Duration
	DrainInterval     time.Duration // pending-call expiry sweep period
}

func (c *Config) setDefaults() {
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 5 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.DrainInterval <= 0 {
		c.DrainInterval = 10 * time.Millisecond
	}
}

// Client is a single-connection RPC client. One Client serves one
// logical peer; callers wanting a pool run several Clients.
type Client struct {
	cfg Config
	log rpclog.Logger

	identity string

	mu     sync.RWMutex
	conn   *transport.Conn
	closed bool

	nextCallId atomic.Uint64
	sequence   atomic.Uint32

	lateResponses atomic.Uint64
	mtr           *rpcmetrics.Registry

	pending *pendingTable

	stopHeartbeat chan struct{}
	stopDrain     chan struct{}
	wg            sync.WaitGroup
}

// New builds a disconnected Client. identity is sent as
// Context.ClientIdentity on every outgoing call.
func New(cfg Config, log rpclog.Logger, identity string) *Client {
	cfg.setDefaults()
	if log == nil {
		log = rpclog.Discard()
	}
	return &Client{
		cfg:      cfg,
		log:      log,
		identity: identity,
		pending:  newPendingTable(),
	}
}

// Connect dials addr and starts the client's read loop, drain loop and
// (if configured) heartbeat sender.
func (c *Client) Connect(addr string) error {
	conn, err := transport.Connect(addr, c.cfg.DialTimeout)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	conn.Start(c.cfg.MaxFrameBytes, c.onFrame, nil)

	c.stopDrain = make(chan struct{})
	c.wg.Add(1)
	go c.drainLoop()

	if c.cfg.HeartbeatInterval > 0 {
		c.stopHeartbeat = make(chan struct{})
		c.wg.Add(1)
		go c.heartbeatLoop()
	}

	return nil
}

// IsConnected reports whether the client currently owns a live
// connection.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.closed && !c.conn.IsClosed()
}

// Disconnect closes the connection, fails every pending call with
// ErrClosed and stops the background loops.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if c.stopDrain != nil {
		close(c.stopDrain)
	}
	if c.stopHeartbeat != nil {
		close(c.stopHeartbeat)
	}
	c.wg.Wait()

	c.pending.failAll(ErrClosed)

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) onFrame(conn *transport.Conn, frame []byte, err error) {
	if err != nil {
		c.pending.failAll(ErrClosed)
		return
	}

	msg, decodeErr := wire.DecodeFrame(frame, c.cfg.MaxFrameBytes)
	if decodeErr != nil {
		c.log.Warn("dropping malformed response frame", rpclog.Fields{"error": decodeErr.Error()})
		return
	}

	if msg.Context.CallKind == rpctypes.CallHeartbeat {
		return
	}

	if !c.pending.resolve(msg.Context.CallId, msg) {
		c.lateResponses.Add(1)
		if c.mtr != nil {
			c.mtr.RecordLateResponse(msg.Context.ServiceName, msg.Context.MethodName)
		}
		c.log.Debug("late or unmatched response", rpclog.Fields{
			"call_id": uint64(msg.Context.CallId),
			"service": msg.Context.ServiceName,
		})
	}
}

// LateResponses reports how many responses arrived after their call had
// already been expired by a client-side timeout and silently dropped.
func (c *Client) LateResponses() uint64 {
	return c.lateResponses.Load()
}

// SetMetrics attaches a rpcmetrics.Registry so late responses are also
// exported on /metrics, not just tracked in-process. Safe to call
// before Connect; nil disables exporting again.
func (c *Client) SetMetrics(mtr *rpcmetrics.Registry) {
	c.mtr = mtr
}

func (c *Client) send(msg rpctypes.Message) error {
	c.mu.RLock()
	conn := c.conn
	closed := c.closed
	c.mu.RUnlock()

	if conn == nil || closed {
		return ErrNotConnected
	}

	frame, err := wire.EncodeFrame(msg, c.sequence.Add(1))
	if err != nil {
		return err
	}
	return conn.Write(frame)
}

func (c *Client) drainLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.pending.expireOverdue()
		case <-c.stopDrain:
			return
		}
	}
}
