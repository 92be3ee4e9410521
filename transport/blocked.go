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

package transport

import (
	"sync"
	"time"

	"github.com/xtaci/quicflow/protocol"
)

// blockedSignal rate-limits the STREAM_DATA_BLOCKED / DATA_BLOCKED frames a
// sender emits when it observes zero available credit. RFC 9000 §19.12/§19.13
// frames exist purely as a peer hint that more credit would help; flowcontrol
// itself never emits them; it only ever returns a zero grant from Reserve.
// This is that external consumer, kept out of flowcontrol on purpose.
type blockedSignal struct {
	mu       sync.Mutex
	lastSent map[protocol.StreamID]time.Time
	lastConn time.Time
	minGap   time.Duration
}

func newBlockedSignal(minGap time.Duration) *blockedSignal {
	return &blockedSignal{lastSent: make(map[protocol.StreamID]time.Time), minGap: minGap}
}

// shouldSendStreamBlocked reports whether enough time has passed since the
// last STREAM_DATA_BLOCKED for id to justify sending another one now.
func (b *blockedSignal) shouldSendStreamBlocked(id protocol.StreamID, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if last, ok := b.lastSent[id]; ok && now.Sub(last) < b.minGap {
		return false
	}
	b.lastSent[id] = now
	return true
}

// shouldSendConnBlocked is the connection-wide (DATA_BLOCKED) analog.
func (b *blockedSignal) shouldSendConnBlocked(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.lastConn.IsZero() && now.Sub(b.lastConn) < b.minGap {
		return false
	}
	b.lastConn = now
	return true
}
