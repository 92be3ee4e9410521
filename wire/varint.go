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

// Package wire encodes and decodes the control-stream messages quicflow uses
// to carry MAX_DATA, MAX_STREAM_DATA and transport-parameter updates over a
// real smux session: a QUIC-shaped varint encoding (RFC 9000 §16) plus an
// smux-shaped fixed command header.
package wire

import "errors"

// ErrVarintTooLarge is returned by AppendVarint when v exceeds the 62-bit
// range the QUIC varint encoding can represent.
var ErrVarintTooLarge = errors.New("wire: varint exceeds 62-bit range")

// ErrTruncated is returned by the varint and frame decoders when the input
// ends before a complete value could be read.
var ErrTruncated = errors.New("wire: truncated input")

const (
	maxVarint1 = 63
	maxVarint2 = 16383
	maxVarint4 = 1073741823
	maxVarint8 = (1 << 62) - 1
)

// AppendVarint appends the QUIC variable-length encoding of v to buf.
func AppendVarint(buf []byte, v uint64) ([]byte, error) {
	switch {
	case v <= maxVarint1:
		return append(buf, byte(v)), nil
	case v <= maxVarint2:
		return append(buf, byte(v>>8)|0x40, byte(v)), nil
	case v <= maxVarint4:
		return append(buf,
			byte(v>>24)|0x80,
			byte(v>>16),
			byte(v>>8),
			byte(v),
		), nil
	case v <= maxVarint8:
		return append(buf,
			byte(v>>56)|0xC0,
			byte(v>>48),
			byte(v>>40),
			byte(v>>32),
			byte(v>>24),
			byte(v>>16),
			byte(v>>8),
			byte(v),
		), nil
	default:
		return buf, ErrVarintTooLarge
	}
}

// ReadVarint reads one QUIC variable-length integer from the front of data
// and returns its value together with the number of bytes consumed.
func ReadVarint(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrTruncated
	}
	length := 1 << (data[0] >> 6)
	if len(data) < length {
		return 0, 0, ErrTruncated
	}
	v := uint64(data[0] & 0x3F)
	for i := 1; i < length; i++ {
		v = v<<8 | uint64(data[i])
	}
	return v, length, nil
}
