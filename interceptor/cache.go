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
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/helianthus-go/rpc/rpctypes"
)

// CacheInterceptor answers repeated idempotent calls from an in-memory
// LRU without invoking the handler: it satisfies ShortCircuiter, so
// Chain.Execute never calls the handler on a hit. Only CallRequest
// messages for service/method pairs in the cacheable set are
// considered; Notification and Heartbeat traffic is never cached.
type CacheInterceptor struct {
	store     *lru.LRU[string, []byte]
	cacheable map[string]struct{}
	hits      atomic.Uint64
	miss      atomic.Uint64
}

// NewCacheInterceptor builds a CacheInterceptor holding up to capacity
// entries, each expiring ttl after insertion. cacheableMethods lists
// "Service.Method" pairs eligible for caching; calls outside that set
// always miss and fall through to the handler.
func NewCacheInterceptor(capacity int, ttl time.Duration, cacheableMethods []string) *CacheInterceptor {
	set := make(map[string]struct{}, len(cacheableMethods))
	for _, m := range cacheableMethods {
		set[m] = struct{}{}
	}
	return &CacheInterceptor{
		store:     lru.NewLRU[string, []byte](capacity, nil, ttl),
		cacheable: set,
	}
}

func (c *CacheInterceptor) Name() string  { return "CacheInterceptor" }
func (c *CacheInterceptor) Priority() int { return 50 }

func (c *CacheInterceptor) key(ctx *rpctypes.Context, msg *rpctypes.Message) string {
	var b strings.Builder
	b.WriteString(ctx.ServiceName)
	b.WriteByte('.')
	b.WriteString(ctx.MethodName)
	b.WriteByte(':')
	b.WriteString(strconv.Quote(string(msg.Parameters)))
	return b.String()
}

func (c *CacheInterceptor) eligible(ctx *rpctypes.Context) bool {
	if ctx.CallKind != rpctypes.CallRequest {
		return false
	}
	_, ok := c.cacheable[ctx.ServiceName+"."+ctx.MethodName]
	return ok
}

func (c *CacheInterceptor) OnBeforeCall(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
	return true
}

// ShortCircuit implements interceptor.ShortCircuiter: a cache hit
// returns the stored result and true, skipping the handler entirely.
func (c *CacheInterceptor) ShortCircuit(ctx *rpctypes.Context, msg *rpctypes.Message) ([]byte, bool) {
	if !c.eligible(ctx) {
		return nil, false
	}
	if v, ok := c.store.Get(c.key(ctx, msg)); ok {
		c.hits.Add(1)
		return v, true
	}
	c.miss.Add(1)
	return nil, false
}

func (c *CacheInterceptor) OnAfterCall(ctx *rpctypes.Context, msg *rpctypes.Message, result []byte) {
	if c.eligible(ctx) {
		c.store.Add(c.key(ctx, msg), result)
	}
}

func (c *CacheInterceptor) OnError(ctx *rpctypes.Context, msg *rpctypes.Message, errorString string) {
}

// Stats returns the running (hits, misses) counters.
func (c *CacheInterceptor) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.miss.Load()
}

// Purge empties the cache.
func (c *CacheInterceptor) Purge() {
	c.store.Purge()
}
