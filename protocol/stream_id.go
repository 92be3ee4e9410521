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

// Package protocol holds the small, allocation-free value types shared by the
// flow-control and wire packages: stream identifiers, roles, byte counts and
// the pure stream-class classifier (RFC 9000 §2.1).
package protocol

import "fmt"

// StreamID is a QUIC stream identifier, a 62-bit unsigned varint.
type StreamID uint64

// Role identifies which side of a QUIC connection this endpoint plays.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

// initiatedByClient reports whether the low bit of the stream id marks it as
// client-initiated.
func (id StreamID) initiatedByClient() bool { return id&0x1 == 0 }

// unidirectional reports whether the second-lowest bit marks the stream as
// unidirectional.
func (id StreamID) unidirectional() bool { return id&0x2 != 0 }

// Class is the three-way partition of sendable stream ids used to pick an
// initial flow-control ceiling: the bidirectional streams this endpoint opened, the
// bidirectional streams the peer opened, and the unidirectional streams this
// endpoint is allowed to send on.
type Class int

const (
	ClassBidiLocal Class = iota
	ClassBidiRemote
	ClassUni
)

// Classify implements C1: it maps a stream id, from the vantage point of
// localRole, to the Class whose initial limit governs sends on that stream.
// It fails when localRole may not send on the stream at all — a
// unidirectional stream the peer opened is receive-only for us, and handing
// it to the send path is a caller bug.
func Classify(id StreamID, localRole Role) (Class, error) {
	localInitiated := id.initiatedByClient() == (localRole == RoleClient)

	if id.unidirectional() {
		if !localInitiated {
			return 0, fmt.Errorf("stream %d is a peer-initiated unidirectional stream; %s may not send on it", uint64(id), localRole)
		}
		return ClassUni, nil
	}

	if localInitiated {
		return ClassBidiLocal, nil
	}
	return ClassBidiRemote, nil
}

// RemoteField identifies one of the three per-stream initial-limit
// transport parameters as named by RFC 9000 §18.2 — relative to whichever
// endpoint sent them, not to the receiver.
type RemoteField int

const (
	FieldBidiRemote RemoteField = iota
	FieldBidiLocal
	FieldUni
)

// ClassifyForPeerParams maps a stream id, as known to a Client instance, to
// the RemoteField of an incoming transport-parameter set that constrains it.
//
// Transport parameters are named relative to the endpoint that declares
// them, not the endpoint that receives them: a server's
// initial_max_stream_data_bidi_local describes streams the SERVER initiated
// (low bits 01) — peer-initiated from the client's point of view — while its
// initial_max_stream_data_bidi_remote describes streams remote-initiated
// from the server's point of view, i.e. client-initiated (low bits 00), our
// own streams. This is the mirror image of Classify, and only meaningful for
// a Client applying a Server's parameters; RoleServer never calls it.
func ClassifyForPeerParams(id StreamID) (RemoteField, bool) {
	if id.unidirectional() {
		if id.initiatedByClient() {
			return FieldUni, true
		}
		// Server-initiated uni streams are receive-only for the client and
		// never acquire a send-side ledger entry; no field governs them here.
		return 0, false
	}
	if id.initiatedByClient() {
		return FieldBidiRemote, true
	}
	return FieldBidiLocal, true
}
