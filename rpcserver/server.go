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

// Package rpcserver is the server core: it accepts
// connections from transport.Reactor, decodes frames with wire, looks
// methods up in a mounted registry.Registry snapshot, runs them
// through an interceptor.Chain and encodes a response frame back,
// honoring a per-connection fairness window and a global in-flight
// call ceiling.
package rpcserver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/helianthus-go/rpc/interceptor"
	"github.com/helianthus-go/rpc/registry"
	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpcmetrics"
	"github.com/helianthus-go/rpc/transport"
	"github.com/helianthus-go/rpc/wire"
)

// DefaultFairnessWindow bounds how many calls from a single connection
// may be dispatching concurrently before that connection's read loop
// blocks, backpressuring the peer via TCP flow control.
const DefaultFairnessWindow = 64

// Config tunes a Server. Zero values fall back to documented defaults.
type Config struct {
	transport.Config

	MaxConcurrentCalls int
	FairnessWindow     int64
	ShutdownGrace      time.Duration
}

type mountedService struct {
	instance registry.ServiceInstance
	methods  map[string]registry.Method
}

// Server is the RPC server core. It satisfies registry.Mounter, so a
// registry.Registry can MountAll/MountByTags directly into it.
type Server struct {
	cfg   Config
	log   rpclog.Logger
	chain *interceptor.Chain
	mtr   *rpcmetrics.Registry

	reactor *transport.Reactor

	mu       sync.RWMutex
	services map[string]*mountedService

	middleware atomic.Pointer[[]Middleware]

	globalSem *semaphore.Weighted

	connMu    sync.Mutex
	connState map[string]*connState
}

// New builds a Server. mtr may be nil when metrics are disabled
// (EnableMetrics=false in rpcconfig).
func New(cfg Config, log rpclog.Logger, chain *interceptor.Chain, mtr *rpcmetrics.Registry) *Server {
	if cfg.MaxConcurrentCalls <= 0 {
		cfg.MaxConcurrentCalls = 1000
	}
	if cfg.FairnessWindow <= 0 {
		cfg.FairnessWindow = DefaultFairnessWindow
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}
	if log == nil {
		log = rpclog.Discard()
	}
	if chain == nil {
		chain = interceptor.NewChain(log)
	}

	s := &Server{
		cfg:       cfg,
		log:       log,
		chain:     chain,
		mtr:       mtr,
		services:  make(map[string]*mountedService),
		globalSem: semaphore.NewWeighted(int64(cfg.MaxConcurrentCalls)),
		connState: make(map[string]*connState),
	}
	empty := []Middleware{}
	s.middleware.Store(&empty)
	return s
}

// Mount implements registry.Mounter.
func (s *Server) Mount(serviceName string, instance registry.ServiceInstance, methods []registry.MethodMeta) error {
	m := &mountedService{instance: instance, methods: make(map[string]registry.Method, len(methods))}
	for _, method := range instance.Methods() {
		m.methods[method.Meta.Name] = method
	}

	s.mu.Lock()
	s.services[serviceName] = m
	s.mu.Unlock()
	return nil
}

// Bind opens the listening socket at addr. Call Serve afterwards to
// start accepting; splitting the two lets a caller (or a test) learn
// the bound address before the accept loop starts blocking.
func (s *Server) Bind(addr string) error {
	s.reactor = transport.NewReactor(s.cfg.Config)
	return s.reactor.Bind(addr)
}

// Serve accepts connections until Shutdown is called. Bind must have
// already succeeded.
func (s *Server) Serve() error {
	return s.reactor.AcceptLoop(s.onAccept, s.onFrame)
}

// Addr returns the bound listening address, valid once Bind has
// succeeded.
func (s *Server) Addr() string {
	if s.reactor == nil || s.reactor.Addr() == nil {
		return ""
	}
	return s.reactor.Addr().String()
}

// Shutdown stops accepting new connections and waits up to ShutdownGrace
// for open connections to close before forcibly closing the rest. It
// does not wait for dispatch goroutines; a response produced after its
// connection closed is not sent.
func (s *Server) Shutdown() error {
	if s.reactor == nil {
		return nil
	}
	return s.reactor.Shutdown(s.cfg.ShutdownGrace)
}

func (s *Server) onAccept(c *transport.Conn) {
	s.connMu.Lock()
	s.connState[c.ID] = newConnState(c, s.cfg.FairnessWindow)
	s.connMu.Unlock()
	if s.mtr != nil {
		s.mtr.ActiveCallsInc("__connections")
	}
}

func (s *Server) onFrame(c *transport.Conn, frame []byte, err error) {
	if err != nil {
		s.connMu.Lock()
		delete(s.connState, c.ID)
		s.connMu.Unlock()
		if s.mtr != nil {
			s.mtr.ActiveCallsDec("__connections")
		}
		return
	}

	s.connMu.Lock()
	cs := s.connState[c.ID]
	s.connMu.Unlock()
	if cs == nil {
		return
	}

	msg, decodeErr := wire.DecodeFrame(frame, s.cfg.MaxFrameBytes)
	if decodeErr != nil {
		// Decode errors leave the connection's framing state
		// unrecoverable, so it is closed; other connections are unaffected.
		s.log.Warn("closing connection after malformed frame", rpclog.Fields{"conn": c.ID, "error": decodeErr.Error()})
		_ = c.Close()
		return
	}
	msg.Context.ClientIdentity = c.ID

	// Fairness window: block this connection's frame processing (not
	// the whole server) once it has cfg.FairnessWindow calls
	// in-flight, backpressuring the peer through TCP flow control.
	if err := cs.fairness.Acquire(context.Background(), 1); err != nil {
		return
	}

	go func() {
		defer cs.fairness.Release(1)
		s.dispatch(c, cs, msg)
	}()
}
