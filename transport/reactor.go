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
	"context"
	"fmt"
	"net"
	"runtime"
	"sync"
	"time"
)

// AcceptBurst is the maximum number of accepts the reactor will process
// back-to-back before yielding, keeping read/write fair under an accept
// storm.
const AcceptBurst = 64

// Config tunes a Reactor.
type Config struct {
	HighWaterMark int
	MaxFrameBytes int
}

// Reactor binds a listening socket and drives accepted connections. Each
// Conn is handed to exactly one onAccept callback; AcceptLoop then starts
// that Conn's reader and writer goroutines itself.
type Reactor struct {
	cfg      Config
	listener net.Listener

	mu     sync.Mutex
	conns  map[string]*Conn
	wg     sync.WaitGroup
	down   chan struct{}
	closed bool
}

// NewReactor allocates a Reactor with the given tuning. Bind must be
// called before Listen/AcceptLoop.
func NewReactor(cfg Config) *Reactor {
	return &Reactor{cfg: cfg, conns: make(map[string]*Conn), down: make(chan struct{})}
}

// Bind opens a listening TCP socket at addr with SO_REUSEADDR set.
func (r *Reactor) Bind(addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: bind %s: %w", addr, err)
	}
	r.listener = ln
	return nil
}

// BindListener adopts an already-open net.Listener instead of opening one
// from an address. Production callers use Bind; this exists for harnesses
// that hand the reactor a pre-built loopback listener (golang.org/x/net/nettest,
// or a future TLS-wrapped listener) without re-implementing Bind's dial logic.
func (r *Reactor) BindListener(ln net.Listener) {
	r.listener = ln
}

// Listen is a no-op beyond validating Bind already ran: Go's net package
// folds listen(2) into net.Listen, so backlog is accepted for interface
// parity but has no separate syscall to drive here.
func (r *Reactor) Listen(_ int) error {
	if r.listener == nil {
		return fmt.Errorf("transport: Listen called before Bind")
	}
	return nil
}

// Addr returns the bound local address, valid after Bind.
func (r *Reactor) Addr() net.Addr {
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// AcceptLoop accepts connections until Shutdown is called, invoking
// onAccept exactly once per accepted peer and starting its read loop.
// OnFrame is the same callback passed to every accepted Conn's read loop.
func (r *Reactor) AcceptLoop(onAccept func(*Conn), onFrame OnFrame) error {
	burst := 0
	for {
		raw, err := r.listener.Accept()
		if err != nil {
			select {
			case <-r.down:
				return nil
			default:
				return err
			}
		}

		c := newConn(raw, r.cfg.HighWaterMark)
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			_ = raw.Close()
			return nil
		}
		r.conns[c.ID] = c
		r.mu.Unlock()

		onAccept(c)

		r.wg.Add(2)
		go func() { defer r.wg.Done(); c.writerLoop() }()
		go func() {
			defer r.wg.Done()
			c.readLoop(r.cfg.MaxFrameBytes, onFrame)
			_ = c.Close()
			r.mu.Lock()
			delete(r.conns, c.ID)
			r.mu.Unlock()
		}()

		burst++
		if burst >= AcceptBurst {
			burst = 0
			runtime.Gosched()
		}
	}
}

// Connections returns a snapshot of currently tracked connections.
func (r *Reactor) Connections() []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Shutdown stops accepting and waits up to gracePeriod for open
// connections to end on their own; it then closes the remaining ones,
// whose readers report ErrOperationCancelled. It joins every
// reader/writer goroutine before returning.
func (r *Reactor) Shutdown(gracePeriod time.Duration) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.down)
	r.mu.Unlock()

	if r.listener != nil {
		_ = r.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(gracePeriod):
		r.mu.Lock()
		for _, c := range r.conns {
			_ = c.Close()
		}
		r.mu.Unlock()
		<-done
	}

	return nil
}

// Connect dials addr, returning a Conn whose read loop is NOT yet
// started; the caller (the Client) starts it once it is ready to receive
// frames.
func Connect(addr string, timeout time.Duration) (*Conn, error) {
	raw, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: connect %s: %w", addr, err)
	}
	return newConn(raw, DefaultHighWaterMark), nil
}

// Start launches c's writer and reader goroutines. wg, if non-nil, is
// Done()'d when the reader loop returns (peer close or network error).
func (c *Conn) Start(maxFrameBytes int, onFrame OnFrame, wg *sync.WaitGroup) {
	if wg != nil {
		wg.Add(1)
	}
	go c.writerLoop()
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		c.readLoop(maxFrameBytes, onFrame)
	}()
}
