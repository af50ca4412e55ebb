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
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/helianthus-go/rpc/transport"
)

// connState is the per-connection dispatch bookkeeping. The
// per-connection read state machine (Idle -> ReadingHeader ->
// ReadingPayload -> Dispatching -> Idle) collapses here to "a frame is
// either being dispatched or it is not", since transport.Conn already
// owns the read/decode phases; this struct tracks only the Dispatching
// phase and its fairness limiter.
type connState struct {
	conn     *transport.Conn
	fairness *semaphore.Weighted
	sequence atomic.Uint32
}

func newConnState(c *transport.Conn, window int64) *connState {
	return &connState{conn: c, fairness: semaphore.NewWeighted(window)}
}

func (cs *connState) nextSequence() uint32 {
	return cs.sequence.Add(1)
}
