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

package wire

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/helianthus-go/rpc/rpctypes"
)

// envelope is the fixed schema shared by both payload codecs: a nested
// context object plus parameters/result/error. JSON tags double as the
// wire field names for the JSON codec; the binary codec (a compact TLV
// realized with CBOR) uses cbor tags with the same field order so the
// two codecs stay semantically identical.
type envelope struct {
	Context struct {
		CallId          uint64 `json:"call_id" cbor:"1,keyasint"`
		CallKind        uint8  `json:"call_kind" cbor:"2,keyasint"`
		Format          uint8  `json:"format" cbor:"3,keyasint"`
		ServiceName     string `json:"service_name" cbor:"4,keyasint"`
		MethodName      string `json:"method_name" cbor:"5,keyasint"`
		ClientIdentity  string `json:"client_identity" cbor:"6,keyasint"`
		CreatedAtMillis int64  `json:"created_at_millis" cbor:"7,keyasint"`
		TimeoutMillis   uint32 `json:"timeout_millis" cbor:"8,keyasint"`
		RetryCount      uint32 `json:"retry_count" cbor:"9,keyasint"`
		MaxRetries      uint32 `json:"max_retries" cbor:"10,keyasint"`
	} `json:"context" cbor:"1,keyasint"`
	Parameters   []byte `json:"parameters,omitempty" cbor:"2,keyasint"`
	Result       []byte `json:"result,omitempty" cbor:"3,keyasint"`
	ErrorCode    uint8  `json:"error_code,omitempty" cbor:"4,keyasint"`
	ErrorMessage string `json:"error_message,omitempty" cbor:"5,keyasint"`
}

func toEnvelope(m rpctypes.Message) envelope {
	var e envelope
	e.Context.CallId = uint64(m.Context.CallId)
	e.Context.CallKind = uint8(m.Context.CallKind)
	e.Context.Format = uint8(m.Context.Format)
	e.Context.ServiceName = m.Context.ServiceName
	e.Context.MethodName = m.Context.MethodName
	e.Context.ClientIdentity = m.Context.ClientIdentity
	e.Context.CreatedAtMillis = m.Context.CreatedAtMillis
	e.Context.TimeoutMillis = m.Context.TimeoutMillis
	e.Context.RetryCount = m.Context.RetryCount
	e.Context.MaxRetries = m.Context.MaxRetries
	e.Parameters = m.Parameters
	e.Result = m.Result
	e.ErrorCode = uint8(m.ErrorKind)
	e.ErrorMessage = m.ErrorMessage
	return e
}

func fromEnvelope(e envelope) rpctypes.Message {
	return rpctypes.Message{
		Context: rpctypes.Context{
			CallId:          rpctypes.CallId(e.Context.CallId),
			CallKind:        rpctypes.CallKind(e.Context.CallKind),
			Format:          rpctypes.SerializationFormat(e.Context.Format),
			ServiceName:     e.Context.ServiceName,
			MethodName:      e.Context.MethodName,
			ClientIdentity:  e.Context.ClientIdentity,
			CreatedAtMillis: e.Context.CreatedAtMillis,
			TimeoutMillis:   e.Context.TimeoutMillis,
			RetryCount:      e.Context.RetryCount,
			MaxRetries:      e.Context.MaxRetries,
		},
		Parameters:   e.Parameters,
		Result:       e.Result,
		ErrorKind:    rpctypes.ResultKind(e.ErrorCode),
		ErrorMessage: e.ErrorMessage,
	}
}

// EncodePayload renders m's body in the requested format. Unknown optional
// fields on the reading side are tolerated (standard json.Unmarshal /
// cbor.Unmarshal semantics on a fixed struct already do this).
func EncodePayload(m rpctypes.Message, format rpctypes.SerializationFormat) ([]byte, error) {
	e := toEnvelope(m)
	switch format {
	case rpctypes.FormatBinary:
		b, err := cbor.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("wire: binary encode: %w", err)
		}
		return b, nil
	default:
		b, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("wire: json encode: %w", err)
		}
		return b, nil
	}
}

// DecodePayload parses a payload previously produced by EncodePayload. The
// format is sniffed from the leading byte: a JSON object always opens with
// '{' (0x7B); CBOR's map major type for this envelope's field count never
// produces that byte, so the sniff is unambiguous for frames this package
// itself produced.
func DecodePayload(payload []byte) (rpctypes.Message, rpctypes.SerializationFormat, error) {
	if len(payload) == 0 {
		return rpctypes.Message{}, rpctypes.FormatJSON, &FormatError{Reason: "empty payload"}
	}

	if payload[0] == '{' {
		var e envelope
		if err := json.Unmarshal(payload, &e); err != nil {
			return rpctypes.Message{}, rpctypes.FormatJSON, &FormatError{Reason: "invalid json: " + err.Error()}
		}
		return fromEnvelope(e), rpctypes.FormatJSON, nil
	}

	var e envelope
	if err := cbor.Unmarshal(payload, &e); err != nil {
		return rpctypes.Message{}, rpctypes.FormatBinary, &FormatError{Reason: "invalid binary: " + err.Error()}
	}
	return fromEnvelope(e), rpctypes.FormatBinary, nil
}

// EncodeFrame builds a complete wire frame (header + payload) for m,
// computing payload_size and checksum.
func EncodeFrame(m rpctypes.Message, sequence uint32) ([]byte, error) {
	return EncodeFrameWith(nil, m, sequence)
}

// buildFrame assembles the header around an already-encoded (and
// possibly sealed) payload.
func buildFrame(m rpctypes.Message, payload []byte, sequence uint32) []byte {
	h := Header{
		Magic:          Magic,
		CallId:         uint64(m.Context.CallId),
		MsgType:        uint16(m.Context.CallKind),
		CallKind:       uint8(m.Context.CallKind),
		SenderId:       hashIdentity(m.Context.ClientIdentity),
		TimestampMs:    uint64(m.Context.CreatedAtMillis),
		PayloadSize:    uint32(len(payload)),
		SequenceNumber: sequence,
		RetryCount:     m.Context.RetryCount,
		MaxRetries:     m.Context.MaxRetries,
		TimeoutMs:      m.Context.TimeoutMillis,
	}
	h.Checksum = checksum(h, payload)

	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, EncodeHeader(h)...)
	out = append(out, payload...)
	return out
}

// DecodeFrame parses a complete frame (header + payload) previously built
// by EncodeFrame, enforcing the checksum and length-limit rules.
func DecodeFrame(frame []byte, maxFrameBytes int) (rpctypes.Message, error) {
	return DecodeFrameWith(nil, frame, maxFrameBytes)
}

// splitFrame validates the frame's size, header and checksum and returns
// the header alongside the raw payload bytes.
func splitFrame(frame []byte, maxFrameBytes int) (Header, []byte, error) {
	if maxFrameBytes <= 0 {
		maxFrameBytes = DefaultMaxFrameBytes
	}
	if len(frame) > maxFrameBytes {
		return Header{}, nil, &FormatError{Reason: fmt.Sprintf("frame of %d bytes exceeds limit %d", len(frame), maxFrameBytes)}
	}

	h, err := DecodeHeader(frame)
	if err != nil {
		return Header{}, nil, err
	}

	payload := frame[HeaderSize:]
	if int(h.PayloadSize) != len(payload) {
		return Header{}, nil, &FormatError{Reason: fmt.Sprintf("payload_size %d does not match actual %d", h.PayloadSize, len(payload))}
	}

	if checksum(h, payload) != h.Checksum {
		return Header{}, nil, &ChecksumError{}
	}

	return h, payload, nil
}
