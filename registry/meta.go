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

// Package registry is the process-wide service registry and reflection
// bridge: a name -> factory map plus per-method metadata,
// populated out-of-band by an external reflection emitter and consumed
// read-only by the server core. The registry never parses source code.
package registry

import "context"

// HandlerFunc is a synchronous method handler: it runs to completion on
// the calling goroutine and returns an encoded result or an error.
type HandlerFunc func(ctx context.Context, params []byte) ([]byte, error)

// AsyncHandlerFunc is an asynchronous method handler: it returns
// immediately and invokes done exactly once, possibly from another
// goroutine, when the call completes.
type AsyncHandlerFunc func(ctx context.Context, params []byte, done func(result []byte, err error))

// MethodMeta is the reflection-supplied description of one method,
// mirroring the tag/qualifier vocabulary an external code generator
// emits. The tag vocabulary is open-ended; the registry treats
// tags as opaque strings matched by set membership.
type MethodMeta struct {
	Name           string
	Tags           map[string]struct{}
	ReturnTypeName string
	ParamNames     []string
	AccessModifier string
	IsStatic       bool
	IsConst        bool
	IsNoexcept     bool
	IsVirtual      bool
	IsOverride     bool
	IsFinal        bool
	IsInline       bool
	IsDeprecated   bool
	Priority       int
	Description    string
}

// NewMeta builds a MethodMeta with Priority defaulted to 100, the
// documented default priority for a method with no explicit override.
func NewMeta(name string, tags ...string) MethodMeta {
	m := MethodMeta{Name: name, Priority: 100, Tags: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		m.Tags[t] = struct{}{}
	}
	return m
}

// HasTag reports whether this method carries the given tag.
func (m MethodMeta) HasTag(tag string) bool {
	_, ok := m.Tags[tag]
	return ok
}

// HasAllTags reports whether this method carries every tag in required.
func (m MethodMeta) HasAllTags(required []string) bool {
	for _, t := range required {
		if !m.HasTag(t) {
			return false
		}
	}
	return true
}

// Method binds a MethodMeta to exactly one of a sync or async handler.
type Method struct {
	Meta  MethodMeta
	Sync  HandlerFunc
	Async AsyncHandlerFunc
}

// IsAsync reports whether this method must be invoked through Async.
func (m Method) IsAsync() bool { return m.Async != nil }

// ServiceInstance is produced on demand by a ServiceFactory. It owns a
// method table; method lookup is by name.
type ServiceInstance interface {
	// Methods returns the method table of this instance, in registration
	// order, keyed by method name.
	Methods() []Method
}

// ServiceFactory produces a ServiceInstance. The current design registers
// one shared instance per server: factories are called once per
// Mount, not once per call, so method handlers must be safe for
// concurrent invocation or cooperate with the interceptor chain for
// mutual exclusion.
type ServiceFactory func() ServiceInstance
