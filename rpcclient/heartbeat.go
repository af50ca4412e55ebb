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

package rpcclient

import (
	"time"

	"github.com/helianthus-go/rpc/rpclog"
	"github.com/helianthus-go/rpc/rpctypes"
)

// heartbeatLoop sends a liveness Heartbeat every cfg.HeartbeatInterval.
// The server echoes each one with the same CallId; the client discards
// echoes on receipt and does not track whether one arrived.
func (c *Client) heartbeatLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sendHeartbeat()
		case <-c.stopHeartbeat:
			return
		}
	}
}

func (c *Client) sendHeartbeat() {
	ctx := rpctypes.Context{
		CallId:   rpctypes.CallId(c.nextCallId.Add(1)),
		CallKind: rpctypes.CallHeartbeat,
		Format:   c.cfg.Format,
	}
	if err := c.send(rpctypes.Message{Context: ctx}); err != nil {
		c.log.Warn("heartbeat send failed", rpclog.Fields{"error": err.Error()})
	}
}
