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

import "github.com/xtaci/quicflow/protocol"

// TransportParameters carries the four RFC 9000 §18.2 initial-limit values
// as declared by the PEER. Field names follow the RFC convention: they are
// relative to the endpoint that sent them, not to us. See
// protocol.ClassifyForPeerParams for how that maps onto our own ledger.
type TransportParameters struct {
	InitialMaxData                protocol.ByteCount
	InitialMaxStreamDataBidiLocal  protocol.ByteCount
	InitialMaxStreamDataBidiRemote protocol.ByteCount
	InitialMaxStreamDataUni        protocol.ByteCount
}

// OnMaxData implements C6's MAX_DATA handler: it raises connAllowed to
// newMax if and only if newMax is larger than the current value. A smaller
// or equal value is not an error — MAX_DATA frames can arrive reordered —
// it is logged and silently discarded to preserve I3.
func (c *Controller) OnMaxData(newMax protocol.ByteCount) {
	c.mu.Lock()
	increased := newMax > c.connAllowed
	var old protocol.ByteCount
	if increased {
		old = c.connAllowed
		c.connAllowed = newMax
		c.wakeLocked()
	}
	c.mu.Unlock()

	if increased {
		c.log.Debugf("flowcontrol: connAllowed %d -> %d", old, newMax)
	} else {
		// connAllowed is read here unlocked; it is purely observational and a
		// stale value only affects a log line, never control flow.
		c.log.Debugf("flowcontrol: ignoring non-increasing MAX_DATA %d (connAllowed=%d)", newMax, c.connAllowed)
	}
}

// OnMaxStreamData implements C6's MAX_STREAM_DATA handler: it lazily
// creates the stream's ledger entry if this is the first time id has been
// observed, then raises allowed to newMax iff newMax is larger than the
// current value.
func (c *Controller) OnMaxStreamData(id protocol.StreamID, newMax protocol.ByteCount) error {
	c.mu.Lock()
	sc, err := c.getOrCreateLocked(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	increased := newMax > sc.allowed
	var old protocol.ByteCount
	if increased {
		old = sc.allowed
		sc.allowed = newMax
		c.wakeLocked()
	}
	c.mu.Unlock()

	if increased {
		c.log.Debugf("flowcontrol: stream %d allowed %d -> %d", id, old, newMax)
	} else {
		c.log.Debugf("flowcontrol: ignoring non-increasing MAX_STREAM_DATA %d for stream %d", newMax, id)
	}
	return nil
}

// ApplyPeerTransportParameters implements C6's one-shot handshake handler.
// It is legal only for a Client instance — a client may have sent 0-RTT
// data under remembered limits, and this lets the server's authoritative
// values supersede them once the handshake completes. A Server calling this
// is a programming error.
//
// Per RFC 9000 §7.4.1 a compliant peer must never reduce a limit it
// previously communicated; any value strictly smaller than what we already
// have is logged and ignored rather than treated as an error, so that a
// spec-compliant but surprising peer cannot wedge this connection.
func (c *Controller) ApplyPeerTransportParameters(params TransportParameters) error {
	if c.role != protocol.RoleClient {
		return internalInvariant("ApplyPeerTransportParameters may only be called by a Client instance, got %s", c.role)
	}

	c.mu.Lock()
	anyIncrease := false

	if params.InitialMaxData > c.connAllowed {
		c.connAllowed = params.InitialMaxData
		anyIncrease = true
	} else if params.InitialMaxData < c.connAllowed {
		c.log.Warnf("flowcontrol: peer attempted to reduce initial_max_data to %d (have %d); ignoring", params.InitialMaxData, c.connAllowed)
	}

	anyIncrease = c.raiseClassLocked(protocol.FieldBidiLocal, params.InitialMaxStreamDataBidiLocal) || anyIncrease
	anyIncrease = c.raiseClassLocked(protocol.FieldBidiRemote, params.InitialMaxStreamDataBidiRemote) || anyIncrease
	anyIncrease = c.raiseClassLocked(protocol.FieldUni, params.InitialMaxStreamDataUni) || anyIncrease

	if anyIncrease {
		c.wakeLocked()
	}
	c.peerParamsApplied = true
	c.mu.Unlock()

	if anyIncrease {
		c.log.Debugf("flowcontrol: applied peer transport parameters")
	}
	return nil
}

// raiseClassLocked raises the constructor-time floor for field's class, and
// every existing ledger entry in that class, to newValue iff newValue is
// strictly greater than the current floor. Must be called with c.mu held.
// It reports whether anything increased.
func (c *Controller) raiseClassLocked(field protocol.RemoteField, newValue protocol.ByteCount) bool {
	var floor *protocol.ByteCount
	switch field {
	case protocol.FieldBidiLocal:
		floor = &c.initial.bidiLocal // server's "local" bidi streams are our ClassBidiRemote, whose forClass floor lives in initial.bidiLocal
	case protocol.FieldBidiRemote:
		floor = &c.initial.bidiRemote // server's "remote" bidi streams are our ClassBidiLocal (our own), whose forClass floor lives in initial.bidiRemote
	case protocol.FieldUni:
		floor = &c.initial.uni
	}

	if newValue <= *floor {
		if newValue < *floor {
			c.log.Warnf("flowcontrol: peer attempted to reduce an initial stream-data limit to %d (have %d); ignoring", newValue, *floor)
		}
		return false
	}
	*floor = newValue

	increased := false
	for id, sc := range c.streams {
		affected, ok := protocol.ClassifyForPeerParams(id)
		if !ok || affected != field {
			continue
		}
		if newValue > sc.allowed {
			sc.allowed = newValue
			increased = true
		}
	}
	return increased
}
