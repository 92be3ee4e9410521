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

// Package flowcontrol implements the connection-level send-side flow
// controller: the credit ledger, reservation API, blocking gate and
// peer-update intake described for a single QUIC connection (RFC 9000 §4,
// §19.9, §19.10). It tracks what a sender may transmit; receive-side credit
// issuance, congestion control and loss recovery are external collaborators.
package flowcontrol

import (
	"sync"

	"github.com/xtaci/quicflow/internal/xlog"
	"github.com/xtaci/quicflow/protocol"
)

// Controller is a single connection's flow-control ledger. The zero value is
// not usable; construct with New. A Controller is safe for concurrent use by
// many stream senders and the connection's receive path.
type Controller struct {
	mu sync.Mutex

	role    protocol.Role
	initial initialLimits

	connAllowed  protocol.ByteCount
	connAssigned protocol.ByteCount
	streams      map[protocol.StreamID]*streamCredit

	wake chan struct{} // closed and replaced on every credit increase

	peerParamsApplied bool

	log *xlog.Logger
}

// New constructs a Controller for role, seeded with the four initial limits
// from this endpoint's transport parameters (or, for a 0-RTT client, the
// remembered values from a prior session). All four limits must fit in 62
// bits; logger may be nil, in which case a discarding logger is used.
func New(role protocol.Role, initialMaxData, initialMaxStreamDataBidiLocal, initialMaxStreamDataBidiRemote, initialMaxStreamDataUni protocol.ByteCount, logger *xlog.Logger) *Controller {
	if logger == nil {
		logger = xlog.Discard()
	}
	return &Controller{
		role: role,
		initial: initialLimits{
			maxData:    initialMaxData,
			bidiLocal:  initialMaxStreamDataBidiLocal,
			bidiRemote: initialMaxStreamDataBidiRemote,
			uni:        initialMaxStreamDataUni,
		},
		connAllowed: initialMaxData,
		streams:     make(map[protocol.StreamID]*streamCredit),
		wake:        make(chan struct{}),
		log:         logger,
	}
}

// getOrCreateLocked returns the ledger entry for id, lazily creating it via
// the classifier (C1) on first touch. Must be called with c.mu held.
func (c *Controller) getOrCreateLocked(id protocol.StreamID) (*streamCredit, error) {
	if sc, ok := c.streams[id]; ok {
		return sc, nil
	}
	class, err := protocol.Classify(id, c.role)
	if err != nil {
		return nil, internalInvariant("%s", err)
	}
	sc := &streamCredit{allowed: c.initial.forClass(class)}
	c.streams[id] = sc
	return sc, nil
}

// Reserve implements C4: it asks to advance stream id's send offset to
// requestedLimit and returns the new (possibly smaller) assigned offset the
// caller may now transmit up to.
//
// requestedLimit must be at least the stream's current assigned offset;
// a smaller value is a caller bug (InvalidArgument). A zero-increment
// result is not an error: it means no credit is available right now, and
// is the caller's cue to call WaitForCredit.
func (c *Controller) Reserve(id protocol.StreamID, requestedLimit protocol.ByteCount) (protocol.ByteCount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.getOrCreateLocked(id)
	if err != nil {
		return 0, err
	}
	if requestedLimit < sc.assigned {
		return 0, invalidArgument("requested limit %d below current assigned %d for stream %d", requestedLimit, sc.assigned, id)
	}

	requestedIncrement := requestedLimit - sc.assigned
	possibleIncrement := available(sc, c.connAllowed, c.connAssigned)
	granted := min(requestedIncrement, possibleIncrement)

	sc.assigned += granted
	c.connAssigned += granted

	return sc.assigned, nil
}

// Assigned returns a read-only, advisory snapshot of stream id's currently
// assigned send offset — the value a caller would pass back into Reserve to
// ask for exactly n more bytes of credit (Reserve(id, Assigned(id)+n)).
func (c *Controller) Assigned(id protocol.StreamID) (protocol.ByteCount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.getOrCreateLocked(id)
	if err != nil {
		return 0, err
	}
	return sc.assigned, nil
}

// ConnAvailable returns a read-only, advisory snapshot of the connection-wide
// headroom (connAllowed - connAssigned), useful for deciding whether a
// sender's stall is stream-local or connection-wide.
func (c *Controller) ConnAvailable() protocol.ByteCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connAllowed - c.connAssigned
}

// GetAvailable returns a read-only, advisory snapshot of the credit
// currently available to stream id (C3). The value may be stale the instant
// it is returned; callers on the send path should treat it as a hint, not a
// guarantee, and let Reserve enforce the real ceiling.
func (c *Controller) GetAvailable(id protocol.StreamID) (protocol.ByteCount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.getOrCreateLocked(id)
	if err != nil {
		return 0, err
	}
	return available(sc, c.connAllowed, c.connAssigned), nil
}
