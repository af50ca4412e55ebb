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
	"sync/atomic"

	"github.com/helianthus-go/rpc/rpctypes"
)

// AuthCallback decides whether a call is authorized.
type AuthCallback func(ctx *rpctypes.Context, msg *rpctypes.Message) bool

// AuthenticationInterceptor delegates to a user-supplied AuthCallback. An
// unset callback rejects every call; a callback that panics is reported
// as InternalError by Chain.Execute rather than ClientError.
type AuthenticationInterceptor struct {
	cb atomic.Pointer[AuthCallback]
}

// NewAuthenticationInterceptor builds an AuthenticationInterceptor. cb
// may be nil, in which case every call is rejected until
// SetAuthCallback is called.
func NewAuthenticationInterceptor(cb AuthCallback) *AuthenticationInterceptor {
	a := &AuthenticationInterceptor{}
	if cb != nil {
		a.cb.Store(&cb)
	}
	return a
}

func (a *AuthenticationInterceptor) Name() string  { return "AuthenticationInterceptor" }
func (a *AuthenticationInterceptor) Priority() int { return 10 }

// SetAuthCallback replaces the callback at runtime.
func (a *AuthenticationInterceptor) SetAuthCallback(cb AuthCallback) {
	a.cb.Store(&cb)
}

func (a *AuthenticationInterceptor) OnBeforeCall(ctx *rpctypes.Context, msg *rpctypes.Message) bool {
	p := a.cb.Load()
	if p == nil {
		return false
	}
	return (*p)(ctx, msg)
}

func (a *AuthenticationInterceptor) OnAfterCall(ctx *rpctypes.Context, msg *rpctypes.Message, result []byte) {
}

func (a *AuthenticationInterceptor) OnError(ctx *rpctypes.Context, msg *rpctypes.Message, errorString string) {
}
