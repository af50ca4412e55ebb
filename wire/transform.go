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

import "github.com/helianthus-go/rpc/rpctypes"

// PayloadTransform is the optional payload encryption hook: Seal runs
// over the encoded payload before the checksum is computed and the frame
// written, Open runs over the received payload after the checksum has
// been verified. Both sides of a connection must agree on the transform
// out-of-band; the frame header never identifies it. A nil
// PayloadTransform (or nil funcs) passes the payload through unchanged.
type PayloadTransform struct {
	Seal func([]byte) ([]byte, error)
	Open func([]byte) ([]byte, error)
}

func (t *PayloadTransform) seal(p []byte) ([]byte, error) {
	if t == nil || t.Seal == nil {
		return p, nil
	}
	return t.Seal(p)
}

func (t *PayloadTransform) open(p []byte) ([]byte, error) {
	if t == nil || t.Open == nil {
		return p, nil
	}
	return t.Open(p)
}

// EncodeFrameWith is EncodeFrame with a payload transform applied. The
// checksum and payload_size cover the sealed bytes, so a receiver
// verifies integrity before attempting to open the payload.
func EncodeFrameWith(t *PayloadTransform, m rpctypes.Message, sequence uint32) ([]byte, error) {
	payload, err := EncodePayload(m, m.Context.Format)
	if err != nil {
		return nil, err
	}
	sealed, err := t.seal(payload)
	if err != nil {
		return nil, &FormatError{Reason: "payload seal: " + err.Error()}
	}
	return buildFrame(m, sealed, sequence), nil
}

// DecodeFrameWith is DecodeFrame with a payload transform applied after
// checksum verification.
func DecodeFrameWith(t *PayloadTransform, frame []byte, maxFrameBytes int) (rpctypes.Message, error) {
	h, payload, err := splitFrame(frame, maxFrameBytes)
	if err != nil {
		return rpctypes.Message{}, err
	}

	opened, err := t.open(payload)
	if err != nil {
		return rpctypes.Message{}, &FormatError{Reason: "payload open: " + err.Error()}
	}

	msg, _, err := DecodePayload(opened)
	if err != nil {
		return rpctypes.Message{}, err
	}

	msg.Context.RetryCount = h.RetryCount
	msg.Context.MaxRetries = h.MaxRetries
	msg.Context.TimeoutMillis = h.TimeoutMs
	return msg, nil
}
