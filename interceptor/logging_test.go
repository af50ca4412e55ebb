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
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helianthus-go/rpc/interceptor"
	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpctypes"
)

var _ = Describe("LoggingInterceptor", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("logs requests only when enabled", func() {
		log := rpclog.New(buf, rpclog.InfoLevel)
		l := interceptor.NewLoggingInterceptor(log, true, false, false)
		ctx := &rpctypes.Context{CallId: 1, ServiceName: "Echo", MethodName: "Ping"}

		l.OnBeforeCall(ctx, &rpctypes.Message{})

		Expect(buf.String()).To(ContainSubstring("rpc request"))

		quiet := &bytes.Buffer{}
		off := interceptor.NewLoggingInterceptor(rpclog.New(quiet, rpclog.InfoLevel), false, false, false)
		off.OnBeforeCall(ctx, &rpctypes.Message{})
		Expect(quiet.String()).NotTo(ContainSubstring("rpc request"))
	})

	It("includes duration_ms only when performance logging is enabled", func() {
		log := rpclog.New(buf, rpclog.InfoLevel)
		l := interceptor.NewLoggingInterceptor(log, false, true, true)
		ctx := &rpctypes.Context{CallId: 1, ServiceName: "Echo", MethodName: "Ping"}

		l.OnBeforeCall(ctx, &rpctypes.Message{})
		l.OnAfterCall(ctx, &rpctypes.Message{}, nil)

		Expect(buf.String()).To(ContainSubstring("duration_ms"))

		plain := &bytes.Buffer{}
		noPerf := interceptor.NewLoggingInterceptor(rpclog.New(plain, rpclog.InfoLevel), false, true, false)
		noPerf.OnBeforeCall(ctx, &rpctypes.Message{})
		noPerf.OnAfterCall(ctx, &rpctypes.Message{}, nil)
		Expect(plain.String()).To(ContainSubstring("rpc response"))
		Expect(plain.String()).NotTo(ContainSubstring("duration_ms"))
	})

	It("logs errors with the failure message", func() {
		log := rpclog.New(buf, rpclog.InfoLevel)
		l := interceptor.NewLoggingInterceptor(log, false, false, false)
		ctx := &rpctypes.Context{CallId: 1, ServiceName: "Echo", MethodName: "Ping"}

		l.OnBeforeCall(ctx, &rpctypes.Message{})
		l.OnError(ctx, &rpctypes.Message{}, "service unavailable")

		Expect(buf.String()).To(ContainSubstring("service unavailable"))
	})
})
