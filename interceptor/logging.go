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
	"sync"
	"time"

	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpctypes"
)

// LoggingInterceptor records request, response (with duration) and error
// events. Sampling is all-or-nothing: each of LogRequests/LogResponses/
// LogPerformance is a constructor flag, never a percentage.
type LoggingInterceptor struct {
	log rpclog.Logger

	logRequests  bool
	logResponses bool
	logPerf      bool

	mu    sync.Mutex
	start map[string]time.Time
}

// NewLoggingInterceptor builds a LoggingInterceptor. It runs at
// priority 100, after the auth and rate-limit gates.
func NewLoggingInterceptor(log rpclog.Logger, logRequests, logResponses, logPerformance bool) *LoggingInterceptor {
	return &LoggingInterceptor{
		log:          log,
		logRequests:  logRequests,
		logResponses: logResponses,
		logPerf:      logPerformance,
		start:        make(map[string]time.Time),
	}
}

func (l *LoggingInterceptor) Name() string  { return "LoggingInterceptor" }
func (l *LoggingInterceptor) Priority() int { return 100 }

// logKey identifies one in-flight call uniquely across every client:
// CallId alone is only unique within the lifetime of the Client that
// issued it.
func logKey(ctx *rpctypes.Context) string {
	return ctx.ClientIdentity + "#" + strconv.FormatUint(uint64(ctx.CallId), 10)
}

func (l *LoggingInterceptor) OnBeforeCall(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
	l.mu.Lock()
	l.start[logKey(ctx)] = time.Now()
	l.mu.Unlock()

	if l.logRequests {
		l.log.Info("rpc request", rpclog.Fields{
			"call_id": uint64(ctx.CallId),
			"service": ctx.ServiceName,
			"method":  ctx.MethodName,
			"kind":    ctx.CallKind.String(),
		})
	}
	return true
}

func (l *LoggingInterceptor) OnAfterCall(ctx *rpctypes.Context, msg *rpctypes.Message, result []byte) {
	dur := l.takeDuration(ctx)
	if l.logResponses {
		f := rpclog.Fields{
			"call_id": uint64(ctx.CallId),
			"service": ctx.ServiceName,
			"method":  ctx.MethodName,
		}
		if l.logPerf {
			f = f.Add("duration_ms", float64(dur.Microseconds())/1000.0)
		}
		l.log.Info("rpc response", f)
	}
}

func (l *LoggingInterceptor) OnError(ctx *rpctypes.Context, msg *rpctypes.Message, errorString string) {
	dur := l.takeDuration(ctx)
	l.log.Warn("rpc error", rpclog.Fields{
		"call_id":     uint64(ctx.CallId),
		"service":     ctx.ServiceName,
		"method":      ctx.MethodName,
		"error":       errorString,
		"duration_ms": float64(dur.Microseconds()) / 1000.0,
	})
}

func (l *LoggingInterceptor) takeDuration(ctx *rpctypes.Context) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := logKey(ctx)
	t, ok := l.start[key]
	if !ok {
		return 0
	}
	delete(l.start, key)
	return time.Since(t)
}
