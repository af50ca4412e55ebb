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
	"sync"
	"time"

	"github.com/helianthus-go/rpc/rpctypes"
)

// pendingCall is one in-flight request/response correlation. deadline is
// zero for calls with no timeout.
type pendingCall struct {
	deadline time.Time
	resolve  func(rpctypes.Message, error)
}

// pendingTable correlates outgoing CallIds to the goroutine awaiting a
// response.
type pendingTable struct {
	mu    sync.Mutex
	calls map[rpctypes.CallId]*pendingCall
}

func newPendingTable() *pendingTable {
	return &pendingTable{calls: make(map[rpctypes.CallId]*pendingCall)}
}

func (t *pendingTable) register(id rpctypes.CallId, deadline time.Time, resolve func(rpctypes.Message, error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[id] = &pendingCall{deadline: deadline, resolve: resolve}
}

func (t *pendingTable) cancel(id rpctypes.CallId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.calls, id)
}

// resolve delivers msg to the call waiting on id, reporting whether one
// was still pending (false means the response arrived after that call
// was already timed out and removed — a late response).
func (t *pendingTable) resolve(id rpctypes.CallId, msg rpctypes.Message) bool {
	t.mu.Lock()
	pc, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	t.mu.Unlock()

	if ok {
		pc.resolve(msg, nil)
	}
	return ok
}

// expireOverdue fails every pending call whose deadline has passed with
// a Timeout outcome. Called from the client's drain loop roughly every
// DrainInterval.
func (t *pendingTable) expireOverdue() {
	now := time.Now()

	t.mu.Lock()
	var expired []*pendingCall
	for id, pc := range t.calls {
		if !pc.deadline.IsZero() && now.After(pc.deadline) {
			expired = append(expired, pc)
			delete(t.calls, id)
		}
	}
	t.mu.Unlock()

	for _, pc := range expired {
		pc.resolve(rpctypes.Message{Context: rpctypes.Context{CallKind: rpctypes.CallError}, ErrorKind: rpctypes.Timeout}, errTimeout)
	}
}

// failAll resolves every still-pending call with err, used when the
// connection drops or the client disconnects.
func (t *pendingTable) failAll(err error) {
	t.mu.Lock()
	calls := t.calls
	t.calls = make(map[rpctypes.CallId]*pendingCall)
	t.mu.Unlock()

	for _, pc := range calls {
		pc.resolve(rpctypes.Message{}, err)
	}
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
