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

package interceptor

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helianthus-go/rpc/rpcmetrics"
	"github.com/helianthus-go/rpc/rpctypes"
)

// PerformanceStats is a snapshot of PerformanceInterceptor's counters.
type PerformanceStats struct {
	TotalCalls          uint64
	SuccessfulCalls     uint64
	FailedCalls         uint64
	TotalResponseTimeMs uint64
	MinResponseTimeMs   uint64
	MaxResponseTimeMs   uint64
}

// PerformanceInterceptor updates a global histogram of call counts and
// response times. The counters are updated via atomics; the per-call
// start-time map is guarded by a mutex held only for the map access.
type PerformanceInterceptor struct {
	total, success, failed uint64
	totalMs, minMs, maxMs  uint64

	mu    sync.Mutex
	start map[string]time.Time

	hist *rpcmetrics.LatencyHistogram // optional: feeds Prometheus exposition too
}

// NewPerformanceInterceptor builds a PerformanceInterceptor. hist may be
// nil if Prometheus exposition is disabled (EnableMetrics=false).
func NewPerformanceInterceptor(hist *rpcmetrics.LatencyHistogram) *PerformanceInterceptor {
	return &PerformanceInterceptor{
		start: make(map[string]time.Time),
		minMs: math.MaxUint64,
		hist:  hist,
	}
}

// startKey identifies one in-flight call uniquely across every client:
// CallId alone is only unique within the lifetime of the Client that
// issued it, so two different clients' concurrent calls can share a
// CallId on the server.
func startKey(ctx *rpctypes.Context) string {
	return ctx.ClientIdentity + "#" + strconv.FormatUint(uint64(ctx.CallId), 10)
}

func (p *PerformanceInterceptor) Name() string  { return "PerformanceInterceptor" }
func (p *PerformanceInterceptor) Priority() int { return 200 }

func (p *PerformanceInterceptor) OnBeforeCall(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
	p.mu.Lock()
	p.start[startKey(ctx)] = time.Now()
	p.mu.Unlock()
	atomic.AddUint64(&p.total, 1)
	return true
}

func (p *PerformanceInterceptor) OnAfterCall(ctx *rpctypes.Context, msg *rpctypes.Message, result []byte) {
	p.record(ctx, true)
}

func (p *PerformanceInterceptor) OnError(ctx *rpctypes.Context, msg *rpctypes.Message, errorString string) {
	p.record(ctx, false)
}

func (p *PerformanceInterceptor) record(ctx *rpctypes.Context, ok bool) {
	p.mu.Lock()
	key := startKey(ctx)
	t, found := p.start[key]
	delete(p.start, key)
	p.mu.Unlock()
	if !found {
		return
	}

	d := time.Since(t)
	ms := uint64(d.Milliseconds())

	if ok {
		atomic.AddUint64(&p.success, 1)
	} else {
		atomic.AddUint64(&p.failed, 1)
	}
	atomic.AddUint64(&p.totalMs, ms)

	for {
		cur := atomic.LoadUint64(&p.minMs)
		if ms >= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&p.minMs, cur, ms) {
			break
		}
	}
	for {
		cur := atomic.LoadUint64(&p.maxMs)
		if ms <= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&p.maxMs, cur, ms) {
			break
		}
	}

	if p.hist != nil {
		p.hist.Observe(ctx.ServiceName, d)
	}
}

// GetStats returns a snapshot of the running counters.
func (p *PerformanceInterceptor) GetStats() PerformanceStats {
	min := atomic.LoadUint64(&p.minMs)
	if min == math.MaxUint64 {
		min = 0
	}
	return PerformanceStats{
		TotalCalls:          atomic.LoadUint64(&p.total),
		SuccessfulCalls:     atomic.LoadUint64(&p.success),
		FailedCalls:         atomic.LoadUint64(&p.failed),
		TotalResponseTimeMs: atomic.LoadUint64(&p.totalMs),
		MinResponseTimeMs:   min,
		MaxResponseTimeMs:   atomic.LoadUint64(&p.maxMs),
	}
}

// ResetStats zeroes every counter.
func (p *PerformanceInterceptor) ResetStats() {
	atomic.StoreUint64(&p.total, 0)
	atomic.StoreUint64(&p.success, 0)
	atomic.StoreUint64(&p.failed, 0)
	atomic.StoreUint64(&p.totalMs, 0)
	atomic.StoreUint64(&p.minMs, math.MaxUint64)
	atomic.StoreUint64(&p.maxMs, 0)
}
