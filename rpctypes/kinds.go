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

// Package rpctypes defines the wire-visible data model of the RPC core:
// call identifiers, the call-kind/serialization enums, the RpcContext
// envelope and the RpcMessage body. Everything here is a value type with
// no behaviour beyond validation, so every other package in this module
// can depend on it without creating import cycles.
package rpctypes

import "fmt"

// CallId is a 64-bit monotonically increasing identifier, unique for the
// lifetime of the Client that issued it. Zero is reserved as invalid.
type CallId uint64

// InvalidCallId is never assigned to an in-flight call.
const InvalidCallId CallId = 0

// CallKind enumerates the frame purposes carried in every envelope.
type CallKind uint8

const (
	CallRequest CallKind = iota
	CallResponse
	CallNotification
	CallHeartbeat
	CallError
)

func (k CallKind) String() string {
	switch k {
	case CallRequest:
		return "Request"
	case CallResponse:
		return "Response"
	case CallNotification:
		return "Notification"
	case CallHeartbeat:
		return "Heartbeat"
	case CallError:
		return "Error"
	default:
		return fmt.Sprintf("CallKind(%d)", uint8(k))
	}
}

// SerializationFormat selects the payload codec used inside a Frame.
type SerializationFormat uint8

const (
	FormatJSON SerializationFormat = iota
	FormatBinary
)

func (f SerializationFormat) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatBinary:
		return "Binary"
	default:
		return fmt.Sprintf("SerializationFormat(%d)", uint8(f))
	}
}

// ParseFormat maps the config/CLI spelling ("JSON", "Binary") onto a
// SerializationFormat, defaulting to FormatJSON for anything unrecognized.
func ParseFormat(s string) SerializationFormat {
	switch s {
	case "Binary", "binary", "BINARY":
		return FormatBinary
	default:
		return FormatJSON
	}
}

// MaxRetriesCeiling is the hard ceiling on Context.MaxRetries.
const MaxRetriesCeiling = 10
