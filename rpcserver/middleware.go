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

import "github.com/helianthus-go/rpc/rpctypes"

// Middleware is a lighter hook than an Interceptor: it runs once per
// incoming call, before the interceptor chain, and acts only as a
// boolean gate. Returning false refuses the call with ClientError and
// skips service dispatch entirely. Middleware has no after/error phase;
// cross-cutting concerns that need one belong in the interceptor chain.
type Middleware func(ctx *rpctypes.Context, msg *rpctypes.Message) bool

// Use appends mw to the middleware list. Like the interceptor chain,
// the list is copy-on-write: dispatch snapshots the current slice and
// runs outside any lock, so Use never blocks an in-flight call.
func (s *Server) Use(mw Middleware) {
	old := *s.middleware.Load()
	next := make([]Middleware, len(old), len(old)+1)
	copy(next, old)
	next = append(next, mw)
	s.middleware.Store(&next)
}

// runMiddleware reports whether every middleware admitted the call.
// Order is registration order; the first false short-circuits.
func (s *Server) runMiddleware(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
	for _, mw := range *s.middleware.Load() {
		if !mw(ctx, msg) {
			return false
		}
	}
	return true
}
