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

// Package metricshttp exposes the Prometheus text format over HTTP, the
// way a gin.Engine fronts a Prometheus collector set rather than
// handing promhttp a bare mux.
package metricshttp

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helianthus-go/rpc/rpcmetrics"
)

// Server owns a gin.Engine exposing exactly /metrics and /health, plus
// the raw http.Server that serves it. Malformed request lines never
// reach a gin handler; net/http itself answers those with 400.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New builds a Server for reg, listening at addr once Start is called.
func New(reg *rpcmetrics.Registry, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())
	e.HandleMethodNotAllowed = true

	handler := promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})

	e.GET("/metrics", func(c *gin.Context) {
		c.Header("Connection", "close")
		handler.ServeHTTP(c.Writer, c.Request)
	})
	e.HEAD("/metrics", func(c *gin.Context) {
		c.Header("Connection", "close")
		c.Status(http.StatusOK)
	})
	e.GET("/health", func(c *gin.Context) {
		c.Header("Connection", "close")
		c.String(http.StatusOK, "ok")
	})

	e.NoRoute(func(c *gin.Context) {
		c.Header("Connection", "close")
		c.Status(http.StatusNotFound)
	})
	e.NoMethod(func(c *gin.Context) {
		c.Header("Allow", "GET, HEAD")
		c.Header("Connection", "close")
		c.Status(http.StatusMethodNotAllowed)
	})

	return &Server{
		engine: e,
		http: &http.Server{
			Addr:              addr,
			Handler:           e,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the underlying gin.Engine for in-process tests via
// httptest, without binding a real socket.
func (s *Server) Handler() http.Handler { return s.engine }

// Start begins serving and blocks until Shutdown is called or
// ListenAndServe fails for a reason other than a clean shutdown.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, waiting up to the context
// deadline for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
