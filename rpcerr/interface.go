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

// Package rpcerr provides the ambient error type for everything in this
// module that is NOT part of the wire-visible rpctypes.ResultKind
// taxonomy: bad bind addresses, malformed config, registry misuse, codec
// failures before a Context even exists. It mirrors the shape of a
// classic code+trace+parent error package (code, captured call site,
// optional parent chain, errors.Is/As compatibility) without carrying
// that package's full HTTP-status vocabulary, which does not belong to a
// binary RPC wire protocol.
package rpcerr

import (
	"fmt"
	"runtime"
)

// Code is a small, module-local classification, independent of
// rpctypes.ResultKind (which is reserved for call outcomes crossing the
// wire). Codes here describe failures of the scaffolding around a call.
type Code uint16

const (
	CodeUnknown Code = iota
	CodeConfig
	CodeRegistry
	CodeCodec
	CodeTransport
)

func (c Code) String() string {
	switch c {
	case CodeConfig:
		return "Config"
	case CodeRegistry:
		return "Registry"
	case CodeCodec:
		return "Codec"
	case CodeTransport:
		return "Transport"
	default:
		return "Unknown"
	}
}

// Error is the concrete type returned by this package's constructors. It
// captures the call site the way a classic code+trace+parent error type
// does, and supports Unwrap() for errors.Is/As compatibility with a
// parent chain.
type Error struct {
	code   Code
	msg    string
	file   string
	line   int
	parent error
}

// New builds an Error with the given code and message, capturing the
// caller's file/line.
func New(code Code, msg string) *Error {
	e := &Error{code: code, msg: msg}
	if _, file, line, ok := runtime.Caller(1); ok {
		e.file, e.line = file, line
	}
	return e
}

// Wrap builds an Error around an existing error, preserving it as the
// parent for Unwrap/Is/As.
func Wrap(code Code, parent error, msg string) *Error {
	e := New(code, msg)
	e.parent = parent
	return e
}

func (e *Error) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.parent)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

// Unwrap exposes the parent for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.parent }

// Code returns the classification of this error.
func (e *Error) Code() Code { return e.code }

// Site returns the "file:line" where this error was constructed, for
// logging; never parsed programmatically.
func (e *Error) Site() string { return fmt.Sprintf("%s:%d", e.file, e.line) }
