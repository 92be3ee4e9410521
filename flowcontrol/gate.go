// The MIT License (MIT)
//
// Copyright (c) 2024 quicflow contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package flowcontrol

import (
	"context"

	"github.com/xtaci/quicflow/protocol"
)

// WaitForCredit implements C5: it blocks until Reserve-able credit exists
// for id, then returns. It re-checks the predicate in a loop rather than
// trusting a single wakeup, so spurious wakeups (any credit increase,
// anywhere) are harmless — just another lap of the loop.
//
// Cancellation is immediate and leaves no trace in the ledger: ctx firing
// never mutates assigned/allowed, it only aborts the wait.
func (c *Controller) WaitForCredit(ctx context.Context, id protocol.StreamID) error {
	for {
		c.mu.Lock()
		sc, err := c.getOrCreateLocked(id)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		if available(sc, c.connAllowed, c.connAssigned) > 0 {
			c.mu.Unlock()
			return nil
		}
		wake := c.wake
		c.mu.Unlock()

		select {
		case <-wake:
			// a credit increase happened somewhere; re-check the predicate.
		case <-ctx.Done():
			return ErrCancelled
		}
	}
}

// wakeLocked signals every current waiter and arms a fresh channel for the
// next generation of waiters. Must be called with c.mu held; closing and
// replacing a channel is O(1), so this is cheap enough for the critical
// section it runs in.
func (c *Controller) wakeLocked() {
	close(c.wake)
	c.wake = make(chan struct{})
}
