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

package transport

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/helianthus-go/rpc/wire"
)

// DefaultHighWaterMark bounds the number of frames a Conn will queue for
// writing before Write starts returning ErrWouldBlock.
const DefaultHighWaterMark = 256

// Conn is one accepted or dialed TCP connection. It owns a reader and a
// writer goroutine: every socket read happens on the reader and every
// socket write on the writer, so neither direction takes a lock on the
// hot path. What runs on received frames is up to the OnFrame callback.
type Conn struct {
	ID  string
	raw net.Conn

	outbox chan []byte

	lastActivity atomic.Int64 // unix nanos
	bytesIn      atomic.Uint64
	bytesOut     atomic.Uint64

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(raw net.Conn, highWaterMark int) *Conn {
	if highWaterMark <= 0 {
		highWaterMark = DefaultHighWaterMark
	}
	c := &Conn{
		ID:     uuid.NewString(),
		raw:    raw,
		outbox: make(chan []byte, highWaterMark),
		closed: make(chan struct{}),
	}
	c.touch()
	return c
}

func (c *Conn) touch() { c.lastActivity.Store(time.Now().UnixNano()) }

// LastActivity returns the time of the most recent read or write.
func (c *Conn) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// BytesIn / BytesOut report per-direction byte counters.
func (c *Conn) BytesIn() uint64  { return c.bytesIn.Load() }
func (c *Conn) BytesOut() uint64 { return c.bytesOut.Load() }

// RemoteAddr returns the peer's network address.
func (c *Conn) RemoteAddr() net.Addr { return c.raw.RemoteAddr() }

// IsClosed reports whether Close has already run.
func (c *Conn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Write enqueues a complete frame for the writer goroutine. It never
// blocks: once the outbox reaches its high-water mark it returns
// ErrWouldBlock immediately; the caller retries after the writer
// drains.
func (c *Conn) Write(frame []byte) error {
	if c.IsClosed() {
		return ErrClosed
	}
	select {
	case c.outbox <- frame:
		return nil
	default:
		return ErrWouldBlock
	}
}

// Close is idempotent. It stops the writer goroutine, cancels the
// in-flight read and closes the underlying socket.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.raw.Close()
	})
	return err
}

// writerLoop drains the outbox until the connection is closed. A
// blocking net.Conn.Write already retries partial writes internally,
// so one Write call per frame is the whole drain.
func (c *Conn) writerLoop() {
	for {
		select {
		case frame := <-c.outbox:
			n, err := c.raw.Write(frame)
			if err != nil {
				_ = c.Close()
				return
			}
			c.bytesOut.Add(uint64(n))
			c.touch()
		case <-c.closed:
			return
		}
	}
}

// OnFrame is invoked once per fully-received frame, or once with a
// non-nil err on peer close (io.EOF), a network failure, or
// ErrOperationCancelled when the read ended because Close ran.
type OnFrame func(c *Conn, frame []byte, err error)

// readLoop reads length-delimited frames (wire.HeaderSize header, then
// header.PayloadSize payload bytes) and invokes onFrame for each one, or
// once with an error when the peer closes or the socket fails.
func (c *Conn) readLoop(maxFrameBytes int, onFrame OnFrame) {
	header := make([]byte, wire.HeaderSize)
	for {
		if _, err := io.ReadFull(c.raw, header); err != nil {
			if c.IsClosed() {
				err = ErrOperationCancelled
			}
			onFrame(c, nil, err)
			return
		}
		c.bytesIn.Add(uint64(len(header)))
		c.touch()

		h, err := wire.DecodeHeader(header)
		if err != nil {
			onFrame(c, nil, err)
			return
		}
		if maxFrameBytes > 0 && int(h.PayloadSize) > maxFrameBytes {
			onFrame(c, nil, &wire.FormatError{Reason: "payload exceeds MaxFrameBytes"})
			return
		}

		payload := make([]byte, h.PayloadSize)
		if h.PayloadSize > 0 {
			if _, err := io.ReadFull(c.raw, payload); err != nil {
				if c.IsClosed() {
					err = ErrOperationCancelled
				}
				onFrame(c, nil, err)
				return
			}
			c.bytesIn.Add(uint64(len(payload)))
			c.touch()
		}

		frame := make([]byte, 0, len(header)+len(payload))
		frame = append(frame, header...)
		frame = append(frame, payload...)
		onFrame(c, frame, nil)
	}
}
