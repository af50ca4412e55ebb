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

package rpcserver

import (
	"context"
	"time"

	"github.com/helianthus-go/rpc/interceptor"
	"github.com/helianthus-go/rpc/registry"
	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpctypes"
	"github.com/helianthus-go/rpc/transport"
	"github.com/helianthus-go/rpc/wire"
)

// dispatch routes one decoded message to its handler (or handles
// Heartbeat directly) and writes a response frame, unless the call is
// a Notification, which is never answered.
func (s *Server) dispatch(c *transport.Conn, cs *connState, msg rpctypes.Message) {
	if msg.Context.CallKind == rpctypes.CallHeartbeat {
		s.echoHeartbeat(c, cs, msg)
		return
	}

	if !s.globalSem.TryAcquire(1) {
		// Overloaded Requests get a ServerOverloaded error; overloaded
		// Notifications are silently dropped, counted but never answered
		// (they have no waiter to answer anyway).
		if msg.Context.IsNotification() {
			if s.mtr != nil {
				s.mtr.RecordCall(msg.Context.ServiceName, msg.Context.MethodName, rpctypes.ServerOverloaded.String())
			}
			return
		}
		s.respondError(c, cs, msg, rpctypes.ServerOverloaded, "server at MaxConcurrentCalls")
		if s.mtr != nil {
			s.mtr.RecordCall(msg.Context.ServiceName, msg.Context.MethodName, rpctypes.ServerOverloaded.String())
		}
		return
	}
	defer s.globalSem.Release(1)

	if s.mtr != nil {
		s.mtr.ActiveCallsInc(msg.Context.ServiceName)
		defer s.mtr.ActiveCallsDec(msg.Context.ServiceName)
	}

	if !s.runMiddleware(&msg.Context, &msg) {
		if !msg.Context.IsNotification() {
			s.respondError(c, cs, msg, rpctypes.ClientError, "refused by middleware")
		}
		if s.mtr != nil {
			s.mtr.RecordCall(msg.Context.ServiceName, msg.Context.MethodName, rpctypes.ClientError.String())
		}
		return
	}

	svc, method, lookupErr := s.lookup(msg.Context.ServiceName, msg.Context.MethodName)
	if lookupErr != rpctypes.Success {
		if !msg.Context.IsNotification() {
			s.respondError(c, cs, msg, lookupErr, "method not available")
		}
		if s.mtr != nil {
			s.mtr.RecordCall(msg.Context.ServiceName, msg.Context.MethodName, lookupErr.String())
		}
		return
	}
	_ = svc

	handler := s.buildHandler(method)
	result, kind, errMsg := s.chain.Execute(&msg.Context, &msg, handler)

	if s.mtr != nil {
		s.mtr.RecordCall(msg.Context.ServiceName, msg.Context.MethodName, kind.String())
	}

	if msg.Context.IsNotification() {
		return
	}

	if kind != rpctypes.Success {
		s.respondError(c, cs, msg, kind, errMsg)
		return
	}
	s.respondSuccess(c, cs, msg, result)
}

// lookup returns Success alongside the resolved service/method, or the
// specific ResultKind (ServiceNotFound/MethodNotFound) to report back.
func (s *Server) lookup(serviceName, methodName string) (*mountedService, registry.Method, rpctypes.ResultKind) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[serviceName]
	if !ok {
		return nil, registry.Method{}, rpctypes.ServiceNotFound
	}
	method, ok := svc.methods[methodName]
	if !ok {
		return nil, registry.Method{}, rpctypes.MethodNotFound
	}
	return svc, method, rpctypes.Success
}

// buildHandler adapts a registry.Method (sync or async) into the
// synchronous interceptor.Handler contract, bounding async handlers by
// the call's configured timeout.
func (s *Server) buildHandler(method registry.Method) interceptor.Handler {
	return func(ctx *rpctypes.Context, msg *rpctypes.Message) ([]byte, error) {
		pctx := context.Background()
		var cancel context.CancelFunc
		if ctx.TimeoutMillis > 0 {
			pctx, cancel = context.WithTimeout(pctx, time.Duration(ctx.TimeoutMillis)*time.Millisecond)
			defer cancel()
		}

		if !method.IsAsync() {
			return method.Sync(pctx, msg.Parameters)
		}

		type outcome struct {
			result []byte
			err    error
		}
		done := make(chan outcome, 1)
		method.Async(pctx, msg.Parameters, func(result []byte, err error) {
			done <- outcome{result, err}
		})

		select {
		case o := <-done:
			return o.result, o.err
		case <-pctx.Done():
			return nil, pctx.Err()
		}
	}
}

func (s *Server) echoHeartbeat(c *transport.Conn, cs *connState, msg rpctypes.Message) {
	resp := rpctypes.Message{Context: rpctypes.Context{
		CallId:   msg.Context.CallId,
		CallKind: rpctypes.CallHeartbeat,
		Format:   msg.Context.Format,
	}}
	s.write(c, cs, resp)
}

func (s *Server) respondSuccess(c *transport.Conn, cs *connState, req rpctypes.Message, result []byte) {
	s.write(c, cs, rpctypes.NewResponse(req.Context, result))
}

func (s *Server) respondError(c *transport.Conn, cs *connState, req rpctypes.Message, kind rpctypes.ResultKind, errMsg string) {
	s.write(c, cs, rpctypes.NewErrorResponse(req.Context, kind, errMsg))
}

func (s *Server) write(c *transport.Conn, cs *connState, msg rpctypes.Message) {
	frame, err := wire.EncodeFrame(msg, cs.nextSequence())
	if err != nil {
		s.log.Error("failed to encode response frame", rpclog.Fields{"conn": c.ID, "error": err.Error()})
		return
	}
	if err := c.Write(frame); err != nil {
		s.log.Warn("failed to enqueue response frame", rpclog.Fields{"conn": c.ID, "error": err.Error()})
	}
}
