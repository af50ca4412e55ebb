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

// Package wire implements the length-delimited frame format: a
// fixed 64-byte header (magic, call id, type/kind, sender/receiver ids,
// timestamp, payload size, checksum, sequence, retry counters, timeout)
// followed by a JSON or binary-TLV payload. Field order in the header is
// fixed on the wire; readers must never reorder it.
package wire

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"hash/fnv"
)

// Magic identifies framing version 1: ASCII "HELI".
const Magic uint32 = 0x48454C49

// HeaderSize is the fixed byte length of every frame header.
const HeaderSize = 64

// DefaultMaxFrameBytes is the default hard cap on a frame's total size.
const DefaultMaxFrameBytes = 1 << 20 // 1 MiB

// Header is the bit-exact wire layout. Field order on the wire is
// fixed; this struct's field order mirrors the byte offsets so a reader
// can check the two side by side.
type Header struct {
	Magic          uint32 // offset 0
	CallId         uint64 // offset 4
	MsgType        uint16 // offset 12
	Priority       uint8  // offset 14, reserved, always 0
	CallKind       uint8  // offset 15
	SenderId       uint64 // offset 16
	ReceiverId     uint64 // offset 24
	TimestampMs    uint64 // offset 32
	PayloadSize    uint32 // offset 40
	Checksum       uint32 // offset 44
	SequenceNumber uint32 // offset 48
	RetryCount     uint32 // offset 52
	MaxRetries     uint32 // offset 56
	TimeoutMs      uint32 // offset 60
}

// FormatError is returned when a frame's shape is invalid: unknown magic,
// a header shorter than HeaderSize, or a payload_size field that does not
// match the actual payload length.
type FormatError struct{ Reason string }

func (e *FormatError) Error() string { return "wire: format error: " + e.Reason }

// ChecksumError is returned when the recomputed checksum does not match
// the one carried in the header.
type ChecksumError struct{}

func (e *ChecksumError) Error() string { return "wire: checksum mismatch" }

// EncodeHeader serializes h into a HeaderSize-byte slice, little-endian,
// in the fixed wire field order.
func EncodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint64(b[4:12], h.CallId)
	binary.LittleEndian.PutUint16(b[12:14], h.MsgType)
	b[14] = h.Priority
	b[15] = h.CallKind
	binary.LittleEndian.PutUint64(b[16:24], h.SenderId)
	binary.LittleEndian.PutUint64(b[24:32], h.ReceiverId)
	binary.LittleEndian.PutUint64(b[32:40], h.TimestampMs)
	binary.LittleEndian.PutUint32(b[40:44], h.PayloadSize)
	binary.LittleEndian.PutUint32(b[44:48], h.Checksum)
	binary.LittleEndian.PutUint32(b[48:52], h.SequenceNumber)
	binary.LittleEndian.PutUint32(b[52:56], h.RetryCount)
	binary.LittleEndian.PutUint32(b[56:60], h.MaxRetries)
	binary.LittleEndian.PutUint32(b[60:64], h.TimeoutMs)
	return b
}

// DecodeHeader parses a HeaderSize-byte slice into a Header, rejecting
// unknown magic numbers.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, &FormatError{Reason: fmt.Sprintf("short header: %d bytes", len(b))}
	}

	h := Header{
		Magic:          binary.LittleEndian.Uint32(b[0:4]),
		CallId:         binary.LittleEndian.Uint64(b[4:12]),
		MsgType:        binary.LittleEndian.Uint16(b[12:14]),
		Priority:       b[14],
		CallKind:       b[15],
		SenderId:       binary.LittleEndian.Uint64(b[16:24]),
		ReceiverId:     binary.LittleEndian.Uint64(b[24:32]),
		TimestampMs:    binary.LittleEndian.Uint64(b[32:40]),
		PayloadSize:    binary.LittleEndian.Uint32(b[40:44]),
		Checksum:       binary.LittleEndian.Uint32(b[44:48]),
		SequenceNumber: binary.LittleEndian.Uint32(b[48:52]),
		RetryCount:     binary.LittleEndian.Uint32(b[52:56]),
		MaxRetries:     binary.LittleEndian.Uint32(b[56:60]),
		TimeoutMs:      binary.LittleEndian.Uint32(b[60:64]),
	}

	if h.Magic != Magic {
		return Header{}, &FormatError{Reason: fmt.Sprintf("unknown magic 0x%08X", h.Magic)}
	}

	return h, nil
}

// checksum computes the frame integrity CRC: a CRC32 over the
// header fields excluding the checksum field itself, XOR-folded with the
// CRC32 of the payload.
func checksum(h Header, payload []byte) uint32 {
	headerCopy := h
	headerCopy.Checksum = 0
	hb := EncodeHeader(headerCopy)
	return crc32.ChecksumIEEE(hb) ^ crc32.ChecksumIEEE(payload)
}

// hashIdentity folds an opaque client/server identity string into the
// uint64 sender/receiver id slots of the header; it is advisory only and
// never used for correlation (CallId is).
func hashIdentity(id string) uint64 {
	if id == "" {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}
