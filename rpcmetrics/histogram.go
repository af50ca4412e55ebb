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

package rpcmetrics

import (
	"sync"
	"time"

	prmsdk "github.com/prometheus/client_golang/prometheus"

	"github.com/helianthus-go/rpc/rpcmetrics/quantile"
)

// DefaultLatencyBucketsMs are the fixed ms-scale bucket boundaries,
// covering sub-millisecond local calls up through 100 ms; slower calls
// land only in the +Inf bucket.
var DefaultLatencyBucketsMs = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75,
	1, 2.5, 5, 7.5, 10, 25, 50, 75, 100,
}

// LatencyHistogram pairs a Prometheus HistogramVec (for the /metrics
// exposition surface) with a per-service quantile.Sketch (for precise
// p50/p95/p99 that bucket boundaries cannot give exactly). Both views
// are updated from the same Observe call.
type LatencyHistogram struct {
	prom *prmsdk.HistogramVec

	mu     sync.Mutex
	sketch map[string]*quantile.Sketch
}

func newLatencyHistogram(reg *prmsdk.Registry) *LatencyHistogram {
	h := &LatencyHistogram{
		prom: prmsdk.NewHistogramVec(prmsdk.HistogramOpts{
			Name:    "helianthus_rpc_call_duration_ms",
			Help:    "RPC call handler duration in milliseconds, partitioned by service.",
			Buckets: DefaultLatencyBucketsMs,
		}, []string{"service"}),
		sketch: make(map[string]*quantile.Sketch),
	}
	reg.MustRegister(h.prom, &quantileCollector{h: h})
	return h
}

// quantileCollector exposes each service's precise p50/p95/p99 as
// gauges. Quantiles are computed at scrape time from the sketch's
// retained window, never on the Observe hot path.
type quantileCollector struct {
	h *LatencyHistogram
}

var quantileDesc = prmsdk.NewDesc(
	"helianthus_rpc_call_duration_quantile_ms",
	"Precise RPC call duration quantiles in milliseconds, computed from the raw sample window.",
	[]string{"service", "quantile"}, nil,
)

func (c *quantileCollector) Describe(ch chan<- *prmsdk.Desc) {
	ch <- quantileDesc
}

func (c *quantileCollector) Collect(ch chan<- prmsdk.Metric) {
	c.h.mu.Lock()
	services := make([]string, 0, len(c.h.sketch))
	for svc := range c.h.sketch {
		services = append(services, svc)
	}
	c.h.mu.Unlock()

	for _, svc := range services {
		p50, p95, p99 := c.h.Quantiles(svc)
		ch <- prmsdk.MustNewConstMetric(quantileDesc, prmsdk.GaugeValue, p50, svc, "0.5")
		ch <- prmsdk.MustNewConstMetric(quantileDesc, prmsdk.GaugeValue, p95, svc, "0.95")
		ch <- prmsdk.MustNewConstMetric(quantileDesc, prmsdk.GaugeValue, p99, svc, "0.99")
	}
}

// Observe records d (converted to milliseconds) against service's
// Prometheus histogram bucket and quantile sketch.
func (h *LatencyHistogram) Observe(service string, d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0
	h.prom.WithLabelValues(service).Observe(ms)

	h.mu.Lock()
	s, ok := h.sketch[service]
	if !ok {
		s = quantile.NewSketch(quantile.DefaultWindow)
		h.sketch[service] = s
	}
	s.Observe(ms)
	h.mu.Unlock()
}

// Quantiles returns the current p50/p95/p99 (in milliseconds) for
// service from its quantile sketch. All three are zero if service has
// no recorded observations.
func (h *LatencyHistogram) Quantiles(service string) (p50, p95, p99 float64) {
	h.mu.Lock()
	s, ok := h.sketch[service]
	h.mu.Unlock()
	if !ok {
		return 0, 0, 0
	}
	return s.P50(), s.P95(), s.P99()
}

// Mean and StdDev expose the sketch's running moments for service.
func (h *LatencyHistogram) Mean(service string) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sketch[service]; ok {
		return s.Mean()
	}
	return 0
}

func (h *LatencyHistogram) StdDev(service string) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sketch[service]; ok {
		return s.StdDev()
	}
	return 0
}
