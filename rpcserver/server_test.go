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

package rpcserver_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helianthus-go/rpc/interceptor"
	"github.com/helianthus-go/rpc/registry"
	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpcmetrics"
	"github.com/helianthus-go/rpc/rpcserver"
	"github.com/helianthus-go/rpc/rpctypes"
	"github.com/helianthus-go/rpc/transport"
	"github.com/helianthus-go/rpc/wire"
)

type echoService struct{}

func (echoService) Methods() []registry.Method {
	return []registry.Method{
		{
			Meta: registry.NewMeta("Ping"),
			Sync: func(ctx context.Context, params []byte) ([]byte, error) {
				return params, nil
			},
		},
	}
}

// blockingService holds its single in-flight handler open until release
// is closed, letting a test saturate MaxConcurrentCalls deterministically.
type blockingService struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingService) Methods() []registry.Method {
	return []registry.Method{
		{
			Meta: registry.NewMeta("Hold"),
			Sync: func(ctx context.Context, params []byte) ([]byte, error) {
				select {
				case b.entered <- struct{}{}:
				default:
				}
				<-b.release
				return params, nil
			},
		},
	}
}

func startOverloadedServer(mtr *rpcmetrics.Registry) (*rpcserver.Server, string, *blockingService) {
	reg := registry.New()
	svc := &blockingService{entered: make(chan struct{}, 1), release: make(chan struct{})}
	reg.RegisterService("Slow", "v1", func() registry.ServiceInstance { return svc })
	reg.RegisterMethod("Slow", registry.NewMeta("Hold"))

	srv := rpcserver.New(rpcserver.Config{MaxConcurrentCalls: 1}, rpclog.Discard(), interceptor.NewChain(rpclog.Discard()), mtr)
	Expect(reg.MountAll(srv)).To(Succeed())
	Expect(srv.Bind("127.0.0.1:0")).To(Succeed())

	go srv.Serve()
	return srv, srv.Addr(), svc
}

func startServer() (*rpcserver.Server, string) {
	reg := registry.New()
	reg.RegisterService("Echo", "v1", func() registry.ServiceInstance { return echoService{} })
	reg.RegisterMethod("Echo", registry.NewMeta("Ping"))

	srv := rpcserver.New(rpcserver.Config{}, rpclog.Discard(), interceptor.NewChain(rpclog.Discard()), nil)
	Expect(reg.MountAll(srv)).To(Succeed())
	Expect(srv.Bind("127.0.0.1:0")).To(Succeed())

	go srv.Serve()
	return srv, srv.Addr()
}

type middlewareProbeService struct{ invoked chan struct{} }

func (m middlewareProbeService) Methods() []registry.Method {
	return []registry.Method{
		{
			Meta: registry.NewMeta("Ping"),
			Sync: func(ctx context.Context, params []byte) ([]byte, error) {
				select {
				case m.invoked <- struct{}{}:
				default:
				}
				return params, nil
			},
		},
	}
}

func dial(addr string) *transport.Conn {
	conn, err := transport.Connect(addr, 2*time.Second)
	Expect(err).ToNot(HaveOccurred())
	return conn
}

var _ = Describe("Server", func() {
	var srv *rpcserver.Server

	AfterEach(func() {
		if srv != nil {
			_ = srv.Shutdown()
		}
	})

	It("dispatches a request to a mounted method and returns its result", func() {
		var addr string
		srv, addr = startServer()
		conn := dial(addr)

		received := make(chan rpctypes.Message, 1)
		conn.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				return
			}
			msg, decodeErr := wire.DecodeFrame(frame, 0)
			Expect(decodeErr).ToNot(HaveOccurred())
			received <- msg
		}, nil)

		req := rpctypes.Message{
			Context: rpctypes.Context{
				CallId:      1,
				CallKind:    rpctypes.CallRequest,
				ServiceName: "Echo",
				MethodName:  "Ping",
			},
			Parameters: []byte(`{"n":1}`),
		}
		frame, err := wire.EncodeFrame(req, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(conn.Write(frame)).To(Succeed())

		Eventually(received, 2*time.Second).Should(Receive(WithTransform(func(m rpctypes.Message) []byte {
			return m.Result
		}, Equal([]byte(`{"n":1}`)))))
	})

	It("reports MethodNotFound for an unmounted method", func() {
		var addr string
		srv, addr = startServer()
		conn := dial(addr)

		received := make(chan rpctypes.Message, 1)
		conn.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				return
			}
			msg, decodeErr := wire.DecodeFrame(frame, 0)
			Expect(decodeErr).ToNot(HaveOccurred())
			received <- msg
		}, nil)

		req := rpctypes.Message{Context: rpctypes.Context{CallId: 1, CallKind: rpctypes.CallRequest, ServiceName: "Echo", MethodName: "Missing"}}
		frame, err := wire.EncodeFrame(req, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(conn.Write(frame)).To(Succeed())

		Eventually(received, 2*time.Second).Should(Receive(WithTransform(func(m rpctypes.Message) rpctypes.ResultKind {
			return m.ErrorKind
		}, Equal(rpctypes.MethodNotFound))))
	})

	It("echoes a Heartbeat without consulting the registry", func() {
		var addr string
		srv, addr = startServer()
		conn := dial(addr)

		received := make(chan rpctypes.Message, 1)
		conn.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				return
			}
			msg, decodeErr := wire.DecodeFrame(frame, 0)
			Expect(decodeErr).ToNot(HaveOccurred())
			received <- msg
		}, nil)

		req := rpctypes.Message{Context: rpctypes.Context{CallId: 42, CallKind: rpctypes.CallHeartbeat}}
		frame, err := wire.EncodeFrame(req, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(conn.Write(frame)).To(Succeed())

		Eventually(received, 2*time.Second).Should(Receive(WithTransform(func(m rpctypes.Message) rpctypes.CallKind {
			return m.Context.CallKind
		}, Equal(rpctypes.CallHeartbeat))))
	})

	It("refuses a call with ClientError when middleware vetoes it, without invoking the handler", func() {
		reg := registry.New()
		invoked := make(chan struct{}, 1)
		reg.RegisterService("Echo", "v1", func() registry.ServiceInstance {
			return middlewareProbeService{invoked: invoked}
		})
		reg.RegisterMethod("Echo", registry.NewMeta("Ping"))

		srv = rpcserver.New(rpcserver.Config{}, rpclog.Discard(), interceptor.NewChain(rpclog.Discard()), nil)
		srv.Use(func(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
			return ctx.ServiceName != "Echo"
		})
		Expect(reg.MountAll(srv)).To(Succeed())
		Expect(srv.Bind("127.0.0.1:0")).To(Succeed())
		go srv.Serve()

		conn := dial(srv.Addr())
		received := make(chan rpctypes.Message, 1)
		conn.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				return
			}
			msg, decodeErr := wire.DecodeFrame(frame, 0)
			Expect(decodeErr).ToNot(HaveOccurred())
			received <- msg
		}, nil)

		req := rpctypes.Message{
			Context:    rpctypes.Context{CallId: 1, CallKind: rpctypes.CallRequest, ServiceName: "Echo", MethodName: "Ping"},
			Parameters: []byte(`{}`),
		}
		frame, err := wire.EncodeFrame(req, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(conn.Write(frame)).To(Succeed())

		Eventually(received, 2*time.Second).Should(Receive(WithTransform(func(m rpctypes.Message) rpctypes.ResultKind {
			return m.ErrorKind
		}, Equal(rpctypes.ClientError))))
		Consistently(invoked, 200*time.Millisecond).ShouldNot(Receive())
	})

	It("never answers a Notification", func() {
		var addr string
		srv, addr = startServer()
		conn := dial(addr)

		received := make(chan rpctypes.Message, 1)
		conn.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				return
			}
			msg, decodeErr := wire.DecodeFrame(frame, 0)
			Expect(decodeErr).ToNot(HaveOccurred())
			received <- msg
		}, nil)

		req := rpctypes.Message{
			Context:    rpctypes.Context{CallKind: rpctypes.CallNotification, ServiceName: "Echo", MethodName: "Ping"},
			Parameters: []byte(`{}`),
		}
		frame, err := wire.EncodeFrame(req, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(conn.Write(frame)).To(Succeed())

		Consistently(received, 300*time.Millisecond).ShouldNot(Receive())
	})

	It("closes the offending connection on checksum corruption without invoking any handler and leaves other connections usable", func() {
		var addr string
		srv, addr = startServer()

		bad := dial(addr)
		closed := make(chan struct{}, 1)
		bad.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				select {
				case closed <- struct{}{}:
				default:
				}
			}
		}, nil)

		req := rpctypes.Message{
			Context:    rpctypes.Context{CallId: 1, CallKind: rpctypes.CallRequest, ServiceName: "Echo", MethodName: "Ping"},
			Parameters: []byte(`{}`),
		}
		frame, err := wire.EncodeFrame(req, 1)
		Expect(err).ToNot(HaveOccurred())
		frame[44] ^= 0xFF // flip a checksum byte
		Expect(bad.Write(frame)).To(Succeed())

		Eventually(closed, 2*time.Second).Should(Receive())

		// A second, independent connection still works normally.
		good := dial(addr)
		received := make(chan rpctypes.Message, 1)
		good.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				return
			}
			msg, decodeErr := wire.DecodeFrame(frame, 0)
			Expect(decodeErr).ToNot(HaveOccurred())
			received <- msg
		}, nil)

		okReq := rpctypes.Message{
			Context:    rpctypes.Context{CallId: 2, CallKind: rpctypes.CallRequest, ServiceName: "Echo", MethodName: "Ping"},
			Parameters: []byte(`{"ok":true}`),
		}
		okFrame, err := wire.EncodeFrame(okReq, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(good.Write(okFrame)).To(Succeed())

		Eventually(received, 2*time.Second).Should(Receive(WithTransform(func(m rpctypes.Message) []byte {
			return m.Result
		}, Equal([]byte(`{"ok":true}`)))))
	})

	It("rejects an overloaded Request with ServerOverloaded but silently drops an overloaded Notification", func() {
		mtr := rpcmetrics.NewRegistry()
		var addr string
		var blocker *blockingService
		srv, addr, blocker = startOverloadedServer(mtr)

		holder := dial(addr)
		holder.Start(0, func(c *transport.Conn, frame []byte, err error) {}, nil)
		holdReq := rpctypes.Message{
			Context:    rpctypes.Context{CallId: 1, CallKind: rpctypes.CallRequest, ServiceName: "Slow", MethodName: "Hold"},
			Parameters: []byte(`{}`),
		}
		holdFrame, err := wire.EncodeFrame(holdReq, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(holder.Write(holdFrame)).To(Succeed())
		Eventually(blocker.entered, 2*time.Second).Should(Receive())
		defer close(blocker.release)

		overflow := dial(addr)
		received := make(chan rpctypes.Message, 1)
		overflow.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				return
			}
			msg, decodeErr := wire.DecodeFrame(frame, 0)
			Expect(decodeErr).ToNot(HaveOccurred())
			received <- msg
		}, nil)

		overloadedReq := rpctypes.Message{
			Context:    rpctypes.Context{CallId: 2, CallKind: rpctypes.CallRequest, ServiceName: "Slow", MethodName: "Hold"},
			Parameters: []byte(`{}`),
		}
		overloadedFrame, err := wire.EncodeFrame(overloadedReq, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(overflow.Write(overloadedFrame)).To(Succeed())

		Eventually(received, 2*time.Second).Should(Receive(WithTransform(func(m rpctypes.Message) rpctypes.ResultKind {
			return m.ErrorKind
		}, Equal(rpctypes.ServerOverloaded))))

		notify := dial(addr)
		notifyReceived := make(chan rpctypes.Message, 1)
		notify.Start(0, func(c *transport.Conn, frame []byte, err error) {
			if err != nil {
				return
			}
			msg, decodeErr := wire.DecodeFrame(frame, 0)
			Expect(decodeErr).ToNot(HaveOccurred())
			notifyReceived <- msg
		}, nil)

		overloadedNotify := rpctypes.Message{
			Context:    rpctypes.Context{CallKind: rpctypes.CallNotification, ServiceName: "Slow", MethodName: "Hold"},
			Parameters: []byte(`{}`),
		}
		notifyFrame, err := wire.EncodeFrame(overloadedNotify, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(notify.Write(notifyFrame)).To(Succeed())

		Consistently(notifyReceived, 300*time.Millisecond).ShouldNot(Receive())
	})
})
