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

package wire_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helianthus-go/rpc/wire"
)

var _ = Describe("Header", func() {
	sampleHeader := func() wire.Header {
		return wire.Header{
			Magic:          wire.Magic,
			CallId:         42,
			MsgType:        0,
			CallKind:       0,
			SenderId:       7,
			ReceiverId:     0,
			TimestampMs:    1234567890,
			PayloadSize:    10,
			SequenceNumber: 1,
			RetryCount:     0,
			MaxRetries:     3,
			TimeoutMs:      5000,
		}
	}

	It("round-trips every field through Encode/Decode", func() {
		h := sampleHeader()
		b := wire.EncodeHeader(h)
		Expect(b).To(HaveLen(wire.HeaderSize))

		got, err := wire.DecodeHeader(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(h))
	})

	It("rejects an unknown magic number", func() {
		h := sampleHeader()
		h.Magic = 0xDEADBEEF
		b := wire.EncodeHeader(h)

		_, err := wire.DecodeHeader(b)
		Expect(err).To(HaveOccurred())
		Expect(err).To(BeAssignableToTypeOf(&wire.FormatError{}))
	})

	It("rejects a header shorter than HeaderSize", func() {
		_, err := wire.DecodeHeader(make([]byte, wire.HeaderSize-1))
		Expect(err).To(HaveOccurred())
	})

	It("encodes fields little-endian at the documented offsets", func() {
		h := sampleHeader()
		b := wire.EncodeHeader(h)

		Expect(b[0:4]).To(Equal([]byte{0x49, 0x4C, 0x45, 0x48})) // "HELI" LE
		Expect(b[4:12]).To(Equal([]byte{42, 0, 0, 0, 0, 0, 0, 0}))
	})
})
