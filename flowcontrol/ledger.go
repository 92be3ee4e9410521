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

// streamCredit is the per-stream ledger entry (C2): allowed is the current
// peer-imposed ceiling, assigned is the highest send offset we have
// authorized. Both live under the owning Controller's mutex; there is no
// locking here.
type streamCredit struct {
	allowed  protocol.ByteCount
	assigned protocol.ByteCount
}

// initialLimits are the four constructor-time defaults (§3 "Initial
// limits"). They seed newly observed streams via the classifier, and are
// themselves raised by ApplyPeerTransportParameters so that streams created
// afterwards start from the higher floor.
type initialLimits struct {
	maxData    protocol.ByteCount
	bidiLocal  protocol.ByteCount
	bidiRemote protocol.ByteCount
	uni        protocol.ByteCount
}

// forClass resolves the initial ceiling a newly observed stream of class
// seeds from. The peer's transport parameters are named relative to the
// peer, not to class: a stream we initiated ourselves (ClassBidiLocal) is
// "remote-initiated" from the peer's point of view, so it is bound by the
// peer's declared bidi_remote value, and vice versa for ClassBidiRemote
// (RFC 9000 §18.2).
func (l *initialLimits) forClass(class protocol.Class) protocol.ByteCount {
	switch class {
	case protocol.ClassBidiLocal:
		return l.bidiRemote
	case protocol.ClassBidiRemote:
		return l.bidiLocal
	case protocol.ClassUni:
		return l.uni
	default:
		return 0
	}
}

// available computes C3 for a single stream entry: the lesser of the
// stream's own headroom and the connection's headroom. Both operands are
// non-negative by I1/I2, so the result is always non-negative.
func available(sc *streamCredit, connAllowed, connAssigned protocol.ByteCount) protocol.ByteCount {
	streamHeadroom := sc.allowed - sc.assigned
	connHeadroom := connAllowed - connAssigned
	if streamHeadroom < connHeadroom {
		return streamHeadroom
	}
	return connHeadroom
}

func min(a, b protocol.ByteCount) protocol.ByteCount {
	if a < b {
		return a
	}
	return b
}
