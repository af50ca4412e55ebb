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

// Package rpcmetrics exposes the call counters, gauges and latency
// histograms served on /metrics, built on
// prometheus/client_golang. A private *prometheus.Registry keeps these
// series out of the default global registry so multiple Registry
// instances (e.g. one per test) never collide.
package rpcmetrics

import (
	"time"

	prmsdk "github.com/prometheus/client_golang/prometheus"
)

// Registry owns the Prometheus collectors backing the RPC core's
// exposition endpoint plus the precise-quantile side channel that a
// fixed-bucket histogram cannot answer exactly.
type Registry struct {
	reg *prmsdk.Registry

	callCounter   *prmsdk.CounterVec
	activeCalls   *prmsdk.GaugeVec
	lateResponses *prmsdk.CounterVec
	up            prmsdk.Gauge

	hist *LatencyHistogram
}

// NewRegistry builds a Registry with all collectors registered against
// a fresh, private prometheus.Registry.
func NewRegistry() *Registry {
	reg := prmsdk.NewRegistry()

	r := &Registry{
		reg: reg,
		callCounter: prmsdk.NewCounterVec(prmsdk.CounterOpts{
			Name: "helianthus_rpc_calls_total",
			Help: "Total RPC calls processed, partitioned by service, method and result.",
		}, []string{"service", "method", "result"}),
		activeCalls: prmsdk.NewGaugeVec(prmsdk.GaugeOpts{
			Name: "helianthus_rpc_active_calls",
			Help: "Number of RPC calls currently in flight, partitioned by service.",
		}, []string{"service"}),
		lateResponses: prmsdk.NewCounterVec(prmsdk.CounterOpts{
			Name: "helianthus_rpc_late_responses_total",
			Help: "Responses delivered after their call's configured timeout elapsed.",
		}, []string{"service", "method"}),
		up: prmsdk.NewGauge(prmsdk.GaugeOpts{
			Name: "helianthus_up",
			Help: "1 while the exposing process is alive; scraped to mean the server is healthy.",
		}),
	}
	r.hist = newLatencyHistogram(reg)
	r.up.Set(1)

	reg.MustRegister(r.callCounter, r.activeCalls, r.lateResponses, r.up)
	return r
}

// Gatherer exposes the underlying collector set for an HTTP handler
// (metricshttp wraps this in promhttp.HandlerFor).
func (r *Registry) Gatherer() prmsdk.Gatherer { return r.reg }

// RecordCall increments the call counter for a finished call.
func (r *Registry) RecordCall(service, method, result string) {
	r.callCounter.WithLabelValues(service, method, result).Inc()
}

// ActiveCallsInc/Dec track in-flight calls per service.
func (r *Registry) ActiveCallsInc(service string) { r.activeCalls.WithLabelValues(service).Inc() }
func (r *Registry) ActiveCallsDec(service string) { r.activeCalls.WithLabelValues(service).Dec() }

// RecordLateResponse increments the late-response counter: responses
// delivered after a call's timeout must still be tracked, never
// silently dropped from observability.
func (r *Registry) RecordLateResponse(service, method string) {
	r.lateResponses.WithLabelValues(service, method).Inc()
}

// Histogram returns the latency histogram collector.
func (r *Registry) Histogram() *LatencyHistogram { return r.hist }

// Quantiles returns the running p50/p95/p99 for a service from the
// precise quantile sketch, bypassing Prometheus's bucket-boundary
// error.
func (r *Registry) Quantiles(service string) (p50, p95, p99 float64) {
	return r.hist.Quantiles(service)
}

// Observe is a convenience wrapper recording both the Prometheus
// histogram bucket and the precise quantile sketch in one call.
func (r *Registry) Observe(service string, d time.Duration) {
	r.hist.Observe(service, d)
}
