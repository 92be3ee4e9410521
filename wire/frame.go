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

package wire

import (
	"encoding/binary"
	"fmt"
)

// Cmd identifies a control-stream message. quicflow multiplexes one
// dedicated smux stream per session for these; every application stream
// still flows through smux's own framing untouched.
type Cmd byte

const (
	// CmdMaxData carries a single varint: the new connAllowed ceiling.
	CmdMaxData Cmd = iota
	// CmdMaxStreamData carries two varints: stream id, then new allowed.
	CmdMaxStreamData
	// CmdParams carries a Params (four varints): the handshake-time
	// transport parameters, sent once by the server to the client.
	CmdParams
	// CmdStreamDataBlocked carries a single varint: the id of a stream the
	// sender could not make progress on at its last Reserve call.
	CmdStreamDataBlocked
	// CmdDataBlocked carries no payload: the connection-wide analog of
	// CmdStreamDataBlocked.
	CmdDataBlocked
)

const (
	sizeOfCmd    = 1
	sizeOfLength = 2
	headerSize   = sizeOfCmd + sizeOfLength
)

// Frame is a single control-stream message: a command byte, a uint16
// little-endian payload length, and the payload itself.
type Frame struct {
	Cmd     Cmd
	Payload []byte
}

// Append encodes f onto buf.
func (f Frame) Append(buf []byte) ([]byte, error) {
	if len(f.Payload) > 0xFFFF {
		return nil, fmt.Errorf("wire: frame payload of %d bytes exceeds uint16 length field", len(f.Payload))
	}
	buf = append(buf, byte(f.Cmd))
	var lenBuf [sizeOfLength]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(f.Payload)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, f.Payload...), nil
}

// ReadFrame decodes one Frame from the front of data, returning the frame
// and the number of bytes consumed.
func ReadFrame(data []byte) (Frame, int, error) {
	if len(data) < headerSize {
		return Frame{}, 0, ErrTruncated
	}
	cmd := Cmd(data[0])
	length := binary.LittleEndian.Uint16(data[1:3])
	if len(data) < headerSize+int(length) {
		return Frame{}, 0, ErrTruncated
	}
	payload := make([]byte, length)
	copy(payload, data[headerSize:headerSize+int(length)])
	return Frame{Cmd: cmd, Payload: payload}, headerSize + int(length), nil
}

// AppendMaxData builds a CmdMaxData frame for newMax.
func AppendMaxData(buf []byte, newMax uint64) ([]byte, error) {
	payload, err := AppendVarint(nil, newMax)
	if err != nil {
		return nil, err
	}
	return Frame{Cmd: CmdMaxData, Payload: payload}.Append(buf)
}

// AppendMaxStreamData builds a CmdMaxStreamData frame for (id, newMax).
func AppendMaxStreamData(buf []byte, id uint64, newMax uint64) ([]byte, error) {
	payload, err := AppendVarint(nil, id)
	if err != nil {
		return nil, err
	}
	if payload, err = AppendVarint(payload, newMax); err != nil {
		return nil, err
	}
	return Frame{Cmd: CmdMaxStreamData, Payload: payload}.Append(buf)
}

// ParseMaxStreamData decodes a CmdMaxStreamData frame's payload.
func ParseMaxStreamData(payload []byte) (id uint64, newMax uint64, err error) {
	id, n, err := ReadVarint(payload)
	if err != nil {
		return 0, 0, err
	}
	newMax, _, err = ReadVarint(payload[n:])
	if err != nil {
		return 0, 0, err
	}
	return id, newMax, nil
}

// AppendParamsFrame builds a CmdParams frame.
func AppendParamsFrame(buf []byte, p Params) ([]byte, error) {
	payload, err := AppendParams(nil, p)
	if err != nil {
		return nil, err
	}
	return Frame{Cmd: CmdParams, Payload: payload}.Append(buf)
}

// AppendStreamDataBlocked builds a CmdStreamDataBlocked frame for id.
func AppendStreamDataBlocked(buf []byte, id uint64) ([]byte, error) {
	payload, err := AppendVarint(nil, id)
	if err != nil {
		return nil, err
	}
	return Frame{Cmd: CmdStreamDataBlocked, Payload: payload}.Append(buf)
}

// AppendDataBlocked builds a payload-less CmdDataBlocked frame.
func AppendDataBlocked(buf []byte) ([]byte, error) {
	return Frame{Cmd: CmdDataBlocked}.Append(buf)
}
