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

package interceptor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helianthus-go/rpc/interceptor"
	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpctypes"
)

type recordingInterceptor struct {
	name     string
	priority int
	before   func(*rpctypes.Context, *rpctypes.Message) bool
	events   *[]string
}

func (r *recordingInterceptor) Name() string  { return r.name }
func (r *recordingInterceptor) Priority() int { return r.priority }
func (r *recordingInterceptor) OnBeforeCall(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
	*r.events = append(*r.events, r.name+":before")
	if r.before != nil {
		return r.before(ctx, msg)
	}
	return true
}
func (r *recordingInterceptor) OnAfterCall(ctx *rpctypes.Context, msg *rpctypes.Message, result []byte) {
	*r.events = append(*r.events, r.name+":after")
}
func (r *recordingInterceptor) OnError(ctx *rpctypes.Context, msg *rpctypes.Message, errMsg string) {
	*r.events = append(*r.events, r.name+":error")
}

type panickyInterceptor struct{ recordingInterceptor }

func (p *panickyInterceptor) OnBeforeCall(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
	*p.events = append(*p.events, p.name+":before")
	panic("boom")
}

func newCallCtx() *rpctypes.Context {
	return &rpctypes.Context{
		CallId:      1,
		CallKind:    rpctypes.CallRequest,
		ServiceName: "Echo",
		MethodName:  "Ping",
	}
}

var _ = Describe("Chain", func() {
	var events []string

	BeforeEach(func() {
		events = nil
	})

	It("runs Before in ascending priority and After in reverse order", func() {
		c := interceptor.NewChain(rpclog.Discard())
		c.Add(&recordingInterceptor{name: "B", priority: 200, events: &events})
		c.Add(&recordingInterceptor{name: "A", priority: 100, events: &events})

		result, kind, _ := c.Execute(newCallCtx(), &rpctypes.Message{}, func(ctx *rpctypes.Context, msg *rpctypes.Message) ([]byte, error) {
			events = append(events, "handler")
			return []byte("ok"), nil
		})

		Expect(kind).To(Equal(rpctypes.Success))
		Expect(result).To(Equal([]byte("ok")))
		Expect(events).To(Equal([]string{"A:before", "B:before", "handler", "B:after", "A:after"}))
	})

	It("reports a normal veto as ClientError and runs OnError in reverse", func() {
		c := interceptor.NewChain(rpclog.Discard())
		c.Add(&recordingInterceptor{name: "A", priority: 100, events: &events})
		c.Add(&recordingInterceptor{name: "B", priority: 200, events: &events, before: func(*rpctypes.Context, *rpctypes.Message) bool { return false }})

		_, kind, msg := c.Execute(newCallCtx(), &rpctypes.Message{}, func(ctx *rpctypes.Context, m *rpctypes.Message) ([]byte, error) {
			events = append(events, "handler")
			return nil, nil
		})

		Expect(kind).To(Equal(rpctypes.ClientError))
		Expect(msg).To(ContainSubstring("B"))
		Expect(events).To(Equal([]string{"A:before", "B:before", "B:error", "A:error"}))
	})

	It("reports a panic inside OnBeforeCall as InternalError", func() {
		c := interceptor.NewChain(rpclog.Discard())
		p := &panickyInterceptor{recordingInterceptor{name: "P", priority: 10, events: &events}}
		c.Add(p)

		_, kind, _ := c.Execute(newCallCtx(), &rpctypes.Message{}, func(ctx *rpctypes.Context, m *rpctypes.Message) ([]byte, error) {
			return nil, nil
		})

		Expect(kind).To(Equal(rpctypes.InternalError))
	})

	It("maps a handler error to InternalError", func() {
		c := interceptor.NewChain(rpclog.Discard())
		c.Add(&recordingInterceptor{name: "A", priority: 100, events: &events})

		_, kind, errMsg := c.Execute(newCallCtx(), &rpctypes.Message{}, func(ctx *rpctypes.Context, m *rpctypes.Message) ([]byte, error) {
			return nil, assertionError{}
		})

		Expect(kind).To(Equal(rpctypes.InternalError))
		Expect(errMsg).To(Equal("boom handler"))
	})
})

type assertionError struct{}

func (assertionError) Error() string { return "boom handler" }
