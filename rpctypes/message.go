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

// ResultKind is the closed outcome taxonomy returned uniformly by the
// client, server and interceptor chain. It is never an `error` value: every
// public boundary returns a ResultKind plus an opaque payload instead of
// throwing across the API.
type ResultKind uint8

const (
	Success ResultKind = iota
	Failed
	Timeout
	ServiceNotFound
	MethodNotFound
	InvalidParameters
	SerializationError
	NetworkError
	ServerOverloaded
	ClientError
	InternalError
)

func (k ResultKind) String() string {
	switch k {
	case Success:
		return "Success"
	case Failed:
		return "Failed"
	case Timeout:
		return "Timeout"
	case ServiceNotFound:
		return "ServiceNotFound"
	case MethodNotFound:
		return "MethodNotFound"
	case InvalidParameters:
		return "InvalidParameters"
	case SerializationError:
		return "SerializationError"
	case NetworkError:
		return "NetworkError"
	case ServerOverloaded:
		return "ServerOverloaded"
	case ClientError:
		return "ClientError"
	case InternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Message is the RPC envelope: a Context plus an opaque payload. Exactly
// one of Parameters or Result is meaningful per CallKind:
// Request/Notification carry Parameters, Response carries Result or an
// error, Heartbeat carries neither.
type Message struct {
	Context      Context
	Parameters   []byte
	Result       []byte
	ErrorKind    ResultKind
	ErrorMessage string
}

// IsError reports whether this message carries an error outcome.
func (m *Message) IsError() bool {
	return m.Context.CallKind == CallError || m.ErrorKind != Success
}

// NewResponse builds a Response Message correlated to req by CallId.
func NewResponse(req Context, result []byte) Message {
	return Message{
		Context: Context{
			CallId:          req.CallId,
			CallKind:        CallResponse,
			Format:          req.Format,
			ClientIdentity:  req.ClientIdentity,
			CreatedAtMillis: req.CreatedAtMillis,
		},
		Result: result,
	}
}

// NewErrorResponse builds an Error Message correlated to req by CallId.
func NewErrorResponse(req Context, kind ResultKind, msg string) Message {
	return Message{
		Context: Context{
			CallId:         req.CallId,
			CallKind:       CallError,
			Format:         req.Format,
			ClientIdentity: req.ClientIdentity,
		},
		ErrorKind:    kind,
		ErrorMessage: msg,
	}
}
