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
	"sync"
	"time"

	"github.com/helianthus-go/rpc/rpctypes"
)

// RateLimitInterceptor enforces a single process-wide token bucket
// shared by every call, not one bucket per client; per-client buckets
// would multiply the effective ceiling by the number of connected
// clients. The bucket is
// refilled lazily on every OnBeforeCall rather than by a background
// ticker.
type RateLimitInterceptor struct {
	ratePerSec float64
	burst      float64

	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
}

// NewRateLimitInterceptor builds a RateLimitInterceptor that admits up
// to burst calls instantaneously and refills at ratePerSec tokens/sec
// thereafter.
func NewRateLimitInterceptor(ratePerSec, burst float64) *RateLimitInterceptor {
	return &RateLimitInterceptor{
		ratePerSec: ratePerSec,
		burst:      burst,
		tokens:     burst,
		lastFill:   time.Now(),
	}
}

func (r *RateLimitInterceptor) Name() string  { return "RateLimitInterceptor" }
func (r *RateLimitInterceptor) Priority() int { return 20 }

func (r *RateLimitInterceptor) OnBeforeCall(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := now.Sub(r.lastFill).Seconds()
	if elapsed > 0 {
		r.tokens += elapsed * r.ratePerSec
		if r.tokens > r.burst {
			r.tokens = r.burst
		}
		r.lastFill = now
	}

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

func (r *RateLimitInterceptor) OnAfterCall(ctx *rpctypes.Context, msg *rpctypes.Message, result []byte) {
}

func (r *RateLimitInterceptor) OnError(ctx *rpctypes.Context, msg *rpctypes.Message, errorString string) {
}

// Reset refills the bucket to full, discarding accrued/spent state.
func (r *RateLimitInterceptor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = r.burst
	r.lastFill = time.Now()
}
