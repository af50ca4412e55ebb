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

package rpcclient

import (
	"errors"
	"time"

	"github.com/helianthus-go/rpc/rpctypes"
)

// errTimeout is handed back to callers whose deadline expired before a
// response arrived.
var errTimeout = errors.New("rpcclient: call timed out")

// Result is the outcome of one call: either a Success payload or a
// non-Success ResultKind with an explanatory message.
type Result struct {
	Kind    rpctypes.ResultKind
	Payload []byte
	Message string
}

// Ok reports whether the call succeeded.
func (r Result) Ok() bool { return r.Kind == rpctypes.Success }

func (c *Client) newContext(kind rpctypes.CallKind, service, method string, timeout time.Duration, retries uint32) rpctypes.Context {
	return rpctypes.Context{
		CallId:          rpctypes.CallId(c.nextCallId.Add(1)),
		CallKind:        kind,
		Format:          c.cfg.Format,
		ServiceName:     service,
		MethodName:      method,
		ClientIdentity:  c.identity,
		CreatedAtMillis: time.Now().UnixMilli(),
		TimeoutMillis:   uint32(timeout.Milliseconds()),
		MaxRetries:      retries,
	}
}

func toResult(msg rpctypes.Message, err error) Result {
	if err != nil {
		kind := rpctypes.NetworkError
		if errors.Is(err, errTimeout) {
			kind = rpctypes.Timeout
		} else if errors.Is(err, ErrClosed) {
			kind = rpctypes.NetworkError
		}
		return Result{Kind: kind, Message: err.Error()}
	}
	if msg.Context.CallKind == rpctypes.CallError {
		return Result{Kind: msg.ErrorKind, Message: msg.ErrorMessage}
	}
	return Result{Kind: rpctypes.Success, Payload: msg.Result}
}

// Call issues a blocking request/response RPC, retrying up to
// cfg.MaxRetries times on Timeout before giving up. It returns once a
// terminal Result is known.
func (c *Client) Call(service, method string, params []byte, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = c.cfg.DefaultTimeout
	}

	var last Result
	for attempt := uint32(0); attempt <= c.cfg.MaxRetries; attempt++ {
		last = c.callOnce(service, method, params, timeout, attempt)
		if last.Kind != rpctypes.Timeout {
			return last
		}
	}
	return last
}

func (c *Client) callOnce(service, method string, params []byte, timeout time.Duration, attempt uint32) Result {
	ctx := c.newContext(rpctypes.CallRequest, service, method, timeout, c.cfg.MaxRetries)
	ctx.RetryCount = attempt

	replyCh := make(chan struct {
		msg rpctypes.Message
		err error
	}, 1)

	c.pending.register(ctx.CallId, time.Now().Add(timeout), func(msg rpctypes.Message, err error) {
		replyCh <- struct {
			msg rpctypes.Message
			err error
		}{msg, err}
	})

	if err := c.send(rpctypes.Message{Context: ctx, Parameters: params}); err != nil {
		c.pending.cancel(ctx.CallId)
		return toResult(rpctypes.Message{}, err)
	}

	reply := <-replyCh
	return toResult(reply.msg, reply.err)
}

// CallAsync issues a request and invokes done once a response or
// terminal error is known: from the connection's read goroutine for a
// response or a lost connection, from the timeout sweep on expiry, from
// the goroutine calling Disconnect, or from the calling goroutine when
// the send fails. done must not block.
func (c *Client) CallAsync(service, method string, params []byte, timeout time.Duration, done func(Result)) {
	if timeout <= 0 {
		timeout = c.cfg.DefaultTimeout
	}
	ctx := c.newContext(rpctypes.CallRequest, service, method, timeout, 0)

	c.pending.register(ctx.CallId, time.Now().Add(timeout), func(msg rpctypes.Message, err error) {
		done(toResult(msg, err))
	})

	if err := c.send(rpctypes.Message{Context: ctx, Parameters: params}); err != nil {
		c.pending.cancel(ctx.CallId)
		done(toResult(rpctypes.Message{}, err))
	}
}

// Future is a handle to a call result delivered asynchronously. Wait
// blocks until the result is ready or the deadline passes.
type Future struct {
	ch chan Result
}

// Wait blocks until the call completes.
func (f *Future) Wait() Result {
	return <-f.ch
}

// CallFuture issues a request and returns immediately with a Future the
// caller can Wait on later, useful for fanning out several calls before
// collecting their results.
func (c *Client) CallFuture(service, method string, params []byte, timeout time.Duration) *Future {
	f := &Future{ch: make(chan Result, 1)}
	c.CallAsync(service, method, params, timeout, func(r Result) {
		f.ch <- r
	})
	return f
}

// Notify sends a fire-and-forget call that never receives a response
// and is never retried; a retry would change semantics for
// side-effecting handlers.
func (c *Client) Notify(service, method string, params []byte) error {
	ctx := c.newContext(rpctypes.CallNotification, service, method, 0, 0)
	return c.send(rpctypes.Message{Context: ctx, Parameters: params})
}

// BatchSpec describes one call within a BatchCall.
type BatchSpec struct {
	Service string
	Method  string
	Params  []byte
	Timeout time.Duration
}

// BatchCall pipelines every call in the batch onto the wire before
// waiting on any of their responses, so round trips overlap instead of
// serializing. Results are returned in input order.
func (c *Client) BatchCall(specs []BatchSpec) []Result {
	futures := make([]*Future, len(specs))
	for i, s := range specs {
		futures[i] = c.CallFuture(s.Service, s.Method, s.Params, s.Timeout)
	}

	results := make([]Result, len(specs))
	for i, f := range futures {
		results[i] = f.Wait()
	}
	return results
}
