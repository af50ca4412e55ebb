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

// Package quantile keeps a bounded window of raw latency samples so
// rpcmetrics can answer precise p50/p95/p99 queries without the
// bucket-boundary error a fixed Prometheus histogram carries. It also
// tracks a Welford running mean/variance so callers get exact mean and
// stddev regardless of window eviction.
package quantile

import (
	"math"
	"sort"
)

// DefaultWindow is the number of most recent samples retained for
// quantile estimation.
const DefaultWindow = 10000

// Sketch is a fixed-capacity ring buffer of latency samples (in
// milliseconds) plus Welford online mean/variance accumulators. It is
// NOT safe for concurrent use; callers serialize access (rpcmetrics
// wraps one Sketch per series behind a mutex).
type Sketch struct {
	window []float64
	next   int
	filled bool

	count int64
	mean  float64
	m2    float64
}

// NewSketch allocates a Sketch retaining up to window samples. A
// window <= 0 defaults to DefaultWindow.
func NewSketch(window int) *Sketch {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Sketch{window: make([]float64, 0, window)}
}

// Observe records one sample, evicting the oldest sample once the
// window is full and updating the running mean/variance via Welford's
// algorithm so Mean/StdDev never need to rescan the window.
func (s *Sketch) Observe(v float64) {
	if len(s.window) < cap(s.window) {
		s.window = append(s.window, v)
	} else {
		s.window[s.next] = v
		s.next = (s.next + 1) % cap(s.window)
		s.filled = true
	}

	s.count++
	delta := v - s.mean
	s.mean += delta / float64(s.count)
	delta2 := v - s.mean
	s.m2 += delta * delta2
}

// Count returns the total number of samples ever observed (not
// bounded by the window).
func (s *Sketch) Count() int64 { return s.count }

// Mean returns the running mean over all observations, independent of
// window eviction.
func (s *Sketch) Mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.mean
}

// StdDev returns the running population standard deviation over all
// observations.
func (s *Sketch) StdDev() float64 {
	if s.count < 2 {
		return 0
	}
	variance := s.m2 / float64(s.count)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Quantile returns the q-th quantile (0 <= q <= 1) over the samples
// currently retained in the window. Returns 0 if no samples are held.
func (s *Sketch) Quantile(q float64) float64 {
	n := len(s.window)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, s.window)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	idx := int(q * float64(n-1))
	return sorted[idx]
}

// P50, P95 and P99 are convenience wrappers around Quantile.
func (s *Sketch) P50() float64 { return s.Quantile(0.50) }
func (s *Sketch) P95() float64 { return s.Quantile(0.95) }
func (s *Sketch) P99() float64 { return s.Quantile(0.99) }
