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

// Package interceptor implements the ordered pre/post/error hook chain
// run around every dispatched call, plus its built-ins: logging, latency histogram collection,
// rate limiting, authentication and an in-memory response cache.
package interceptor

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpctypes"
)

// Interceptor is the cross-cutting hook run before, after or around a
// handler.
type Interceptor interface {
	Name() string
	Priority() int

	// OnBeforeCall runs before the handler. Returning false vetoes the
	// call (see Chain.Execute for how the veto is reported).
	OnBeforeCall(ctx *rpctypes.Context, msg *rpctypes.Message) bool

	// OnAfterCall runs after a successful handler invocation.
	OnAfterCall(ctx *rpctypes.Context, msg *rpctypes.Message, result []byte)

	// OnError runs instead of OnAfterCall when the handler failed, or
	// when an earlier Before veto is being unwound.
	OnError(ctx *rpctypes.Context, msg *rpctypes.Message, errorString string)
}

// ShortCircuiter is implemented by interceptors that can answer a call
// without invoking the handler at all (the built-in CacheInterceptor).
// It is consulted only after every OnBeforeCall in the chain has
// returned true, so auth/rate-limit gating still applies to cache hits.
type ShortCircuiter interface {
	ShortCircuit(ctx *rpctypes.Context, msg *rpctypes.Message) ([]byte, bool)
}

// Handler is the service method invocation the chain wraps.
type Handler func(ctx *rpctypes.Context, msg *rpctypes.Message) ([]byte, error)

// Chain is an ordered, priority-sorted list of Interceptors. The list is
// copy-on-write: Execute snapshots the current slice pointer and runs
// entirely outside any lock, so registering a new interceptor
// never blocks an in-flight call.
type Chain struct {
	list atomic.Pointer[[]Interceptor]
	log  rpclog.Logger
}

// NewChain builds an empty Chain. log receives interceptor-panic
// diagnostics; it may be rpclog.Discard().
func NewChain(log rpclog.Logger) *Chain {
	c := &Chain{log: log}
	empty := []Interceptor{}
	c.list.Store(&empty)
	return c
}

// Add inserts i into the chain, re-sorting by ascending priority (lower
// runs earlier), and atomically swaps in the new snapshot.
func (c *Chain) Add(i Interceptor) {
	old := *c.list.Load()
	next := make([]Interceptor, len(old), len(old)+1)
	copy(next, old)
	next = append(next, i)
	sort.SliceStable(next, func(a, b int) bool { return next[a].Priority() < next[b].Priority() })
	c.list.Store(&next)
}

// Snapshot returns the interceptor list at the time of the call.
func (c *Chain) Snapshot() []Interceptor {
	return *c.list.Load()
}

func (c *Chain) safeBefore(it Interceptor, ctx *rpctypes.Context, msg *rpctypes.Message) (ok, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			ok = false
			c.log.Error("interceptor panic in OnBeforeCall", rpclog.Fields{"interceptor": it.Name(), "panic": fmt.Sprint(r)})
		}
	}()
	return it.OnBeforeCall(ctx, msg), false
}

func (c *Chain) safeAfter(it Interceptor, ctx *rpctypes.Context, msg *rpctypes.Message, result []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("interceptor panic in OnAfterCall", rpclog.Fields{"interceptor": it.Name(), "panic": fmt.Sprint(r)})
		}
	}()
	it.OnAfterCall(ctx, msg, result)
}

func (c *Chain) safeError(it Interceptor, ctx *rpctypes.Context, msg *rpctypes.Message, errMsg string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("interceptor panic in OnError", rpclog.Fields{"interceptor": it.Name(), "panic": fmt.Sprint(r)})
		}
	}()
	it.OnError(ctx, msg, errMsg)
}

// Execute runs the Before phase in ascending-priority order, then either
// the handler (or a ShortCircuiter's cached answer) and finally the
// After/Error phase in reverse order. For every interceptor whose
// OnBeforeCall ran, exactly one of OnAfterCall or OnError later runs for
// the same call.
//
// Veto reporting: a normal `return false` from OnBeforeCall is reported
// as rpctypes.ClientError, uniformly for every interceptor; a panic
// inside OnBeforeCall is reported as rpctypes.InternalError. A veto is
// the interceptor's judgment about the request, a panic is the
// interceptor's own failure.
func (c *Chain) Execute(ctx *rpctypes.Context, msg *rpctypes.Message, handler Handler) ([]byte, rpctypes.ResultKind, string) {
	chain := c.Snapshot()
	ran := make([]Interceptor, 0, len(chain))

	for _, it := range chain {
		ok, panicked := c.safeBefore(it, ctx, msg)
		ran = append(ran, it)
		if !ok {
			errMsg := "rejected by interceptor: " + it.Name()
			for i := len(ran) - 1; i >= 0; i-- {
				c.safeError(ran[i], ctx, msg, errMsg)
			}
			if panicked {
				return nil, rpctypes.InternalError, errMsg
			}
			return nil, rpctypes.ClientError, errMsg
		}
	}

	var result []byte
	var hit bool
	for _, it := range chain {
		if sc, ok := it.(ShortCircuiter); ok {
			if r, found := sc.ShortCircuit(ctx, msg); found {
				result, hit = r, true
				break
			}
		}
	}

	if !hit {
		r, err := handler(ctx, msg)
		if err != nil {
			for i := len(ran) - 1; i >= 0; i-- {
				c.safeError(ran[i], ctx, msg, err.Error())
			}
			return nil, rpctypes.InternalError, err.Error()
		}
		result = r
	}

	for i := len(ran) - 1; i >= 0; i-- {
		c.safeAfter(ran[i], ctx, msg, result)
	}
	return result, rpctypes.Success, ""
}
