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

package rpctypes

import "fmt"

// Context carries every field needed to route, correlate and time out a
// call. It is immutable once handed to the transport: interceptors may
// annotate a side-channel Annotations map but must never mutate the core
// fields below after the frame has been sent.
type Context struct {
	CallId          CallId
	CallKind        CallKind
	Format          SerializationFormat
	ServiceName     string
	MethodName      string
	ClientIdentity  string
	CreatedAtMillis int64
	TimeoutMillis   uint32
	RetryCount      uint32
	MaxRetries      uint32

	// Annotations is a side channel for interceptors (auth principal,
	// trace id, ...). It is never serialized on the wire.
	Annotations map[string]string
}

// Annotate records a key/value pair on the context's side channel,
// allocating the map lazily. It never touches the immutable core fields.
func (c *Context) Annotate(key, value string) {
	if c.Annotations == nil {
		c.Annotations = make(map[string]string, 4)
	}
	c.Annotations[key] = value
}

// Validate enforces the envelope invariants: call ids on correlated
// kinds, routable names on Requests and Notifications, and the retry
// ceiling.
func (c *Context) Validate() error {
	switch c.CallKind {
	case CallRequest, CallResponse:
		if c.CallId == InvalidCallId {
			return fmt.Errorf("rpctypes: call id required for %s", c.CallKind)
		}
	}

	if c.CallKind == CallRequest || c.CallKind == CallNotification {
		if c.ServiceName == "" || c.MethodName == "" {
			return fmt.Errorf("rpctypes: service/method required for %s", c.CallKind)
		}
	}

	if c.MaxRetries > MaxRetriesCeiling {
		return fmt.Errorf("rpctypes: max retries %d exceeds ceiling %d", c.MaxRetries, MaxRetriesCeiling)
	}
	if c.RetryCount > c.MaxRetries {
		return fmt.Errorf("rpctypes: retry count %d exceeds max retries %d", c.RetryCount, c.MaxRetries)
	}

	return nil
}

// IsNotification reports whether this call never expects a response.
func (c *Context) IsNotification() bool {
	return c.CallKind == CallNotification
}
