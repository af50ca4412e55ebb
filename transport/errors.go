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

// Package transport implements the reactor-style asynchronous TCP
// layer. Go's runtime netpoller already is the reactor hiding
// epoll/kqueue/IOCP behind one interface, so this package realizes the
// contract with goroutines and channels rather than re-implementing
// epoll in userspace: one reader goroutine and one writer goroutine per
// Conn, with a bounded outbound queue as the backpressure high-water
// mark.
package transport

import "errors"

// ErrWouldBlock is returned by Conn.Write when the outbound queue is at
// its high-water mark; the caller must retry after the writer drains.
var ErrWouldBlock = errors.New("transport: would block")

// ErrClosed is returned by any operation on an already-Closed Conn.
var ErrClosed = errors.New("transport: connection closed")

// ErrOperationCancelled is delivered to pending callbacks when Close or
// Shutdown tears down a Conn out from under them.
var ErrOperationCancelled = errors.New("transport: operation cancelled")
