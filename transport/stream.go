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
	"context"

	"github.com/pkg/errors"
	"github.com/xtaci/smux"

	"github.com/xtaci/quicflow/protocol"
)

// Stream is an application-data smux stream whose Write calls are gated by
// the session's flowcontrol.Controller: every write first reserves credit
// from the connection-level ledger and blocks (respecting ctx) when none is
// available, exactly as a real QUIC stream-send path would before handing
// bytes to the packet-number space.
type Stream struct {
	id         protocol.StreamID
	underlying *smux.Stream
	session    *Session

	recvLimit   protocol.ByteCount // current advertised receive ceiling
	recvCounted protocol.ByteCount // bytes consumed since last advertisement
}

// ID returns the stream's identifier.
func (s *Stream) ID() protocol.StreamID { return s.id }

// Write reserves send credit from the flow controller and writes each
// granted chunk of p to the underlying smux stream as soon as it is granted,
// waiting for more credit (or ctx cancellation) in between. Partial grants
// are requested again in a loop so a large write is never silently
// truncated; on error it returns the number of bytes already written.
func (s *Stream) Write(ctx context.Context, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if err := s.session.WaitForCredit(ctx, s.id); err != nil {
			return written, err
		}

		assigned, err := s.session.fc.Assigned(s.id)
		if err != nil {
			return written, errors.Wrap(err, "transport: reading assigned send offset")
		}
		avail, err := s.session.fc.GetAvailable(s.id)
		if err != nil {
			return written, errors.Wrap(err, "transport: checking available credit")
		}
		if avail == 0 {
			continue // lost the race to another writer on this stream; wait again
		}

		want := len(p) - written
		if protocol.ByteCount(want) > avail {
			want = int(avail)
		}

		newAssigned, err := s.session.fc.Reserve(s.id, assigned+protocol.ByteCount(want))
		if err != nil {
			return written, errors.Wrap(err, "transport: reserving send credit")
		}
		granted := int(newAssigned - assigned)
		if granted == 0 {
			s.session.reportStreamBlocked(s.id)
			continue // another writer raced us between GetAvailable and Reserve
		}

		n, err := s.underlying.Write(p[written : written+granted])
		written += n
		if err != nil {
			return written, errors.Wrap(err, "transport: writing to stream")
		}
	}
	return written, nil
}

// Read reads available bytes from the underlying stream and periodically
// issues a MAX_STREAM_DATA update to the peer once enough has been
// consumed, so the peer's send ledger keeps advancing. This is the minimal
// receive-side issuance policy the demo needs; flowcontrol itself has no
// opinion on when or how much to grant.
// Read is not safe for concurrent use by multiple goroutines, matching
// smux's own single-reader contract for a stream.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.underlying.Read(p)
	if n > 0 {
		s.recvCounted += protocol.ByteCount(n)
		if s.recvCounted >= s.recvLimit/2 {
			s.recvLimit *= 2
			s.recvCounted = 0
			s.session.sendMaxStreamData(s.id, s.recvLimit)
		}
	}
	return n, err
}

// Close closes the underlying smux stream.
func (s *Stream) Close() error { return s.underlying.Close() }
