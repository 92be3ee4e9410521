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
	"github.com/xtaci/quicflow/flowcontrol"
	"github.com/xtaci/quicflow/protocol"
)

// Params is the on-the-wire encoding of the four RFC 9000 §18.2 initial-limit
// transport parameters, in declaration order: initial_max_data,
// initial_max_stream_data_bidi_local, initial_max_stream_data_bidi_remote,
// initial_max_stream_data_uni. Field names follow flowcontrol.TransportParameters:
// they are relative to whichever endpoint sends this message.
type Params struct {
	InitialMaxData                 uint64
	InitialMaxStreamDataBidiLocal  uint64
	InitialMaxStreamDataBidiRemote uint64
	InitialMaxStreamDataUni        uint64
}

// AppendParams encodes p as four consecutive QUIC varints.
func AppendParams(buf []byte, p Params) ([]byte, error) {
	var err error
	for _, v := range []uint64{
		p.InitialMaxData,
		p.InitialMaxStreamDataBidiLocal,
		p.InitialMaxStreamDataBidiRemote,
		p.InitialMaxStreamDataUni,
	} {
		if buf, err = AppendVarint(buf, v); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// ParseParams decodes four consecutive QUIC varints into a Params.
func ParseParams(data []byte) (Params, int, error) {
	var p Params
	var total int
	for _, dst := range []*uint64{
		&p.InitialMaxData,
		&p.InitialMaxStreamDataBidiLocal,
		&p.InitialMaxStreamDataBidiRemote,
		&p.InitialMaxStreamDataUni,
	} {
		v, n, err := ReadVarint(data[total:])
		if err != nil {
			return Params{}, 0, err
		}
		*dst = v
		total += n
	}
	return p, total, nil
}

// ToFlowControl converts the wire representation into the type
// flowcontrol.Controller.ApplyPeerTransportParameters accepts.
func (p Params) ToFlowControl() flowcontrol.TransportParameters {
	return flowcontrol.TransportParameters{
		InitialMaxData:                 protocol.ByteCount(p.InitialMaxData),
		InitialMaxStreamDataBidiLocal:  protocol.ByteCount(p.InitialMaxStreamDataBidiLocal),
		InitialMaxStreamDataBidiRemote: protocol.ByteCount(p.InitialMaxStreamDataBidiRemote),
		InitialMaxStreamDataUni:        protocol.ByteCount(p.InitialMaxStreamDataUni),
	}
}
