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

// Package transport is the demonstration endpoint: it rides a real kcp-go
// ARQ session, multiplexed with smux, and lets flowcontrol.Controller gate
// every byte an application stream sends. A dedicated smux stream (the
// control stream, the first stream the client opens) carries
// MAX_DATA / MAX_STREAM_DATA / transport-parameter wire.Frame messages in
// both directions.
package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/xtaci/smux"

	"github.com/xtaci/quicflow/flowcontrol"
	"github.com/xtaci/quicflow/internal/xlog"
	"github.com/xtaci/quicflow/protocol"
	"github.com/xtaci/quicflow/wire"
)

// Session is one quicflow demonstration connection: a kcp.UDPSession carrying
// an smux.Session, gated by a flowcontrol.Controller.
type Session struct {
	role protocol.Role
	conn *kcp.UDPSession
	mux  *smux.Session
	fc   *flowcontrol.Controller
	log  *xlog.Logger

	control *smux.Stream
	blocked *blockedSignal

	closeOnce sync.Once
}

// Dial opens a quicflow session as a Client: it dials raddr over kcp-go,
// negotiates smux on top, opens the control stream and returns. It does not
// wait for the server's initial transport parameters: controlReadLoop applies
// them to the flow controller whenever they arrive.
func Dial(raddr string, passphrase string, cfg Config, logger *xlog.Logger) (*Session, error) {
	if logger == nil {
		logger = xlog.Discard()
	}
	block, err := NewBlockCrypt(DeriveKey(passphrase))
	if err != nil {
		return nil, errors.Wrap(err, "transport: building block cipher")
	}
	conn, err := kcp.DialWithOptions(raddr, block, cfg.DataShard, cfg.ParityShard)
	if err != nil {
		return nil, errors.Wrap(err, "transport: kcp dial")
	}

	muxSess, err := smux.Client(conn, smuxConfig())
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "transport: smux client handshake")
	}

	control, err := muxSess.OpenStream()
	if err != nil {
		muxSess.Close()
		conn.Close()
		return nil, errors.Wrap(err, "transport: opening control stream")
	}

	fc := flowcontrol.New(protocol.RoleClient, cfg.InitialMaxData, cfg.InitialMaxStreamDataBidiLocal,
		cfg.InitialMaxStreamDataBidiRemote, cfg.InitialMaxStreamDataUni, logger)

	s := &Session{role: protocol.RoleClient, conn: conn, mux: muxSess, fc: fc, log: logger, control: control, blocked: newBlockedSignal(time.Second)}
	go s.controlReadLoop()
	return s, nil
}

// Listen starts a quicflow Listener as a Server.
func Listen(laddr string, passphrase string, cfg Config, logger *xlog.Logger) (*Listener, error) {
	if logger == nil {
		logger = xlog.Discard()
	}
	block, err := NewBlockCrypt(DeriveKey(passphrase))
	if err != nil {
		return nil, errors.Wrap(err, "transport: building block cipher")
	}
	kcpListener, err := kcp.ListenWithOptions(laddr, block, cfg.DataShard, cfg.ParityShard)
	if err != nil {
		return nil, errors.Wrap(err, "transport: kcp listen")
	}
	return &Listener{inner: kcpListener, cfg: cfg, log: logger}, nil
}

// Listener accepts incoming quicflow Server sessions.
type Listener struct {
	inner *kcp.Listener
	cfg   Config
	log   *xlog.Logger
}

// Accept blocks until a client dials in, completes the smux handshake,
// accepts the client's control stream, and sends our transport parameters on it.
func (l *Listener) Accept() (*Session, error) {
	conn, err := l.inner.AcceptKCP()
	if err != nil {
		return nil, errors.Wrap(err, "transport: kcp accept")
	}

	muxSess, err := smux.Server(conn, smuxConfig())
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "transport: smux server handshake")
	}

	control, err := muxSess.AcceptStream()
	if err != nil {
		muxSess.Close()
		conn.Close()
		return nil, errors.Wrap(err, "transport: accepting control stream")
	}

	fc := flowcontrol.New(protocol.RoleServer, l.cfg.InitialMaxData, l.cfg.InitialMaxStreamDataBidiLocal,
		l.cfg.InitialMaxStreamDataBidiRemote, l.cfg.InitialMaxStreamDataUni, l.log)

	s := &Session{role: protocol.RoleServer, conn: conn, mux: muxSess, fc: fc, log: l.log, control: control, blocked: newBlockedSignal(time.Second)}

	params := wire.Params{
		InitialMaxData:                 uint64(l.cfg.InitialMaxData),
		InitialMaxStreamDataBidiLocal:  uint64(l.cfg.InitialMaxStreamDataBidiLocal),
		InitialMaxStreamDataBidiRemote: uint64(l.cfg.InitialMaxStreamDataBidiRemote),
		InitialMaxStreamDataUni:        uint64(l.cfg.InitialMaxStreamDataUni),
	}
	buf, err := wire.AppendParamsFrame(nil, params)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "transport: encoding initial transport parameters")
	}
	if _, err := control.Write(buf); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "transport: sending initial transport parameters")
	}

	go s.controlReadLoop()
	return s, nil
}

// Close stops accepting new sessions.
func (l *Listener) Close() error { return l.inner.Close() }

// Addr returns the local listening address.
func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

// controlReadLoop decodes wire.Frame messages off the control stream and
// applies them to the local flowcontrol.Controller. It is the only reader of
// the control stream and runs for the lifetime of the session.
func (s *Session) controlReadLoop() {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := s.control.Read(chunk)
		if err != nil {
			if err != io.EOF {
				s.log.Warnf("transport: control stream read: %v", err)
			}
			return
		}
		buf = append(buf, chunk[:n]...)

		for {
			f, consumed, ferr := wire.ReadFrame(buf)
			if ferr != nil {
				break // wait for more bytes
			}
			buf = buf[consumed:]
			s.handleControlFrame(f)
		}
	}
}

func (s *Session) handleControlFrame(f wire.Frame) {
	switch f.Cmd {
	case wire.CmdMaxData:
		v, _, err := wire.ReadVarint(f.Payload)
		if err != nil {
			s.log.Warnf("transport: malformed MAX_DATA frame: %v", err)
			return
		}
		s.fc.OnMaxData(protocol.ByteCount(v))
	case wire.CmdMaxStreamData:
		id, newMax, err := wire.ParseMaxStreamData(f.Payload)
		if err != nil {
			s.log.Warnf("transport: malformed MAX_STREAM_DATA frame: %v", err)
			return
		}
		if err := s.fc.OnMaxStreamData(protocol.StreamID(id), protocol.ByteCount(newMax)); err != nil {
			s.log.Warnf("transport: applying MAX_STREAM_DATA: %v", err)
		}
	case wire.CmdParams:
		p, _, err := wire.ParseParams(f.Payload)
		if err != nil {
			s.log.Warnf("transport: malformed PARAMS frame: %v", err)
			return
		}
		if err := s.fc.ApplyPeerTransportParameters(p.ToFlowControl()); err != nil {
			s.log.Warnf("transport: applying peer transport parameters: %v", err)
		}
	case wire.CmdStreamDataBlocked:
		id, _, err := wire.ReadVarint(f.Payload)
		if err != nil {
			s.log.Warnf("transport: malformed STREAM_DATA_BLOCKED frame: %v", err)
			return
		}
		s.log.Infof("transport: peer reports stream %d blocked on send credit", id)
	case wire.CmdDataBlocked:
		s.log.Infof("transport: peer reports connection blocked on send credit")
	default:
		s.log.Warnf("transport: unknown control frame cmd %d", f.Cmd)
	}
}

// reportStreamBlocked emits a rate-limited STREAM_DATA_BLOCKED for id, or a
// DATA_BLOCKED if the connection-wide ledger (rather than id's own ceiling)
// is what's actually exhausted. This is the external collaborator mentioned
// in flowcontrol's Non-goals, triggered whenever a Stream.Write observes a
// zero-byte Reserve grant.
func (s *Session) reportStreamBlocked(id protocol.StreamID) {
	now := time.Now()
	if s.fc.ConnAvailable() == 0 {
		if !s.blocked.shouldSendConnBlocked(now) {
			return
		}
		buf, err := wire.AppendDataBlocked(nil)
		if err != nil {
			s.log.Warnf("transport: encoding DATA_BLOCKED: %v", err)
			return
		}
		if _, err := s.control.Write(buf); err != nil {
			s.log.Warnf("transport: sending DATA_BLOCKED: %v", err)
		}
		return
	}

	if !s.blocked.shouldSendStreamBlocked(id, now) {
		return
	}
	buf, err := wire.AppendStreamDataBlocked(nil, uint64(id))
	if err != nil {
		s.log.Warnf("transport: encoding STREAM_DATA_BLOCKED: %v", err)
		return
	}
	if _, err := s.control.Write(buf); err != nil {
		s.log.Warnf("transport: sending STREAM_DATA_BLOCKED: %v", err)
	}
}

// sendMaxStreamData is the receive-side issuance counterpart that keeps the
// demo usable: when our own Stream.Read has consumed enough of its receive
// buffer, it tells the peer to raise its send ceiling. Receive-side issuance
// policy itself is out of scope for flowcontrol; this is the minimal
// external collaborator the demo needs to make streams not stall forever.
func (s *Session) sendMaxStreamData(id protocol.StreamID, newMax protocol.ByteCount) {
	buf, err := wire.AppendMaxStreamData(nil, uint64(id), uint64(newMax))
	if err != nil {
		s.log.Warnf("transport: encoding MAX_STREAM_DATA: %v", err)
		return
	}
	if _, err := s.control.Write(buf); err != nil {
		s.log.Warnf("transport: sending MAX_STREAM_DATA: %v", err)
	}
}

// OpenStream opens a new application stream, gated by the flow controller.
func (s *Session) OpenStream() (*Stream, error) {
	st, err := s.mux.OpenStream()
	if err != nil {
		return nil, errors.Wrap(err, "transport: opening stream")
	}
	return s.wrap(st, true), nil
}

// AcceptStream accepts the next peer-opened application stream.
func (s *Session) AcceptStream() (*Stream, error) {
	st, err := s.mux.AcceptStream()
	if err != nil {
		return nil, errors.Wrap(err, "transport: accepting stream")
	}
	return s.wrap(st, false), nil
}

// wrap re-encodes smux's own numeric stream id into one that respects QUIC's
// low-bit id convention (RFC 9000 §2.1). smux numbers client-opened streams
// odd and server-opened streams even — the mirror image of QUIC's
// convention — and has no notion of a unidirectional stream at all, so bit 1
// of a raw smux id carries no meaning Classify could rely on. Re-encoding
// shifts smux's id (unique for the life of the session) into the high bits
// and sets the low two bits from localOpened/s.role directly, so every demo
// stream classifies as bidirectional and with the correct initiator.
func (s *Session) wrap(st *smux.Stream, localOpened bool) *Stream {
	clientInitiated := localOpened == (s.role == protocol.RoleClient)
	var low uint64
	if !clientInitiated {
		low = 1 // bit0 set: server-initiated, per RFC 9000 §2.1
	}
	id := protocol.StreamID(uint64(st.ID())<<2 | low)

	return &Stream{
		id:          id,
		underlying:  st,
		session:     s,
		recvLimit:   protocol.ByteCount(65536),
		recvCounted: 0,
	}
}

// Close tears down the smux session and the underlying kcp connection.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.mux != nil {
			err = s.mux.Close()
		}
		if s.conn != nil {
			s.conn.Close()
		}
	})
	return err
}

// WaitForCredit blocks until stream id has send credit, or ctx is done.
func (s *Session) WaitForCredit(ctx context.Context, id protocol.StreamID) error {
	return s.fc.WaitForCredit(ctx, id)
}

// ConnAvailable returns the connection-wide send headroom currently tracked
// by the flow controller, for diagnostics.
func (s *Session) ConnAvailable() protocol.ByteCount {
	return s.fc.ConnAvailable()
}
