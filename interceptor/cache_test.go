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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helianthus-go/rpc/interceptor"
	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpctypes"
)

var _ = Describe("CacheInterceptor", func() {
	var (
		c           *interceptor.CacheInterceptor
		handlerHits int
	)

	BeforeEach(func() {
		handlerHits = 0
		c = interceptor.NewCacheInterceptor(16, time.Minute, []string{"Echo.Ping"})
	})

	handler := func(hits *int) interceptor.Handler {
		return func(ctx *rpctypes.Context, msg *rpctypes.Message) ([]byte, error) {
			*hits++
			return []byte("pong"), nil
		}
	}

	It("never calls the handler on a cache hit (true bypass)", func() {
		chain := interceptor.NewChain(rpclog.Discard())
		chain.Add(c)
		ctx := &rpctypes.Context{CallId: 1, CallKind: rpctypes.CallRequest, ServiceName: "Echo", MethodName: "Ping"}
		msg := &rpctypes.Message{Parameters: []byte(`{}`)}

		r1, kind1, _ := chain.Execute(ctx, msg, handler(&handlerHits))
		r2, kind2, _ := chain.Execute(ctx, msg, handler(&handlerHits))

		Expect(kind1).To(Equal(rpctypes.Success))
		Expect(kind2).To(Equal(rpctypes.Success))
		Expect(r1).To(Equal(r2))
		Expect(handlerHits).To(Equal(1))
	})

	It("does not cache calls outside the cacheable method set", func() {
		chain := interceptor.NewChain(rpclog.Discard())
		chain.Add(c)
		ctx := &rpctypes.Context{CallId: 1, CallKind: rpctypes.CallRequest, ServiceName: "Other", MethodName: "Op"}
		msg := &rpctypes.Message{Parameters: []byte(`{}`)}

		chain.Execute(ctx, msg, handler(&handlerHits))
		chain.Execute(ctx, msg, handler(&handlerHits))

		Expect(handlerHits).To(Equal(2))
	})

	It("never caches Notification calls", func() {
		chain := interceptor.NewChain(rpclog.Discard())
		chain.Add(c)
		ctx := &rpctypes.Context{CallKind: rpctypes.CallNotification, ServiceName: "Echo", MethodName: "Ping"}
		msg := &rpctypes.Message{Parameters: []byte(`{}`)}

		chain.Execute(ctx, msg, handler(&handlerHits))
		chain.Execute(ctx, msg, handler(&handlerHits))

		Expect(handlerHits).To(Equal(2))
	})

	It("reports hit/miss counters", func() {
		chain := interceptor.NewChain(rpclog.Discard())
		chain.Add(c)
		ctx := &rpctypes.Context{CallId: 1, CallKind: rpctypes.CallRequest, ServiceName: "Echo", MethodName: "Ping"}
		msg := &rpctypes.Message{Parameters: []byte(`{}`)}

		chain.Execute(ctx, msg, handler(&handlerHits))
		chain.Execute(ctx, msg, handler(&handlerHits))

		hits, misses := c.Stats()
		Expect(hits).To(BeEquivalentTo(1))
		Expect(misses).To(BeEquivalentTo(1))
	})
})
