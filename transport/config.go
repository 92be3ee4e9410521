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
	"time"

	"github.com/xtaci/quicflow/protocol"
	"github.com/xtaci/smux"
)

// Config bundles the knobs needed to dial or listen for a quicflow demo
// session: the kcp-go ARQ parameters plus the four initial flow-control
// limits each side offers the other.
type Config struct {
	DataShard   int
	ParityShard int

	InitialMaxData                 protocol.ByteCount
	InitialMaxStreamDataBidiLocal  protocol.ByteCount
	InitialMaxStreamDataBidiRemote protocol.ByteCount
	InitialMaxStreamDataUni        protocol.ByteCount
}

// DefaultConfig returns normal-mode ARQ parameters, with flow-control limits
// sized for a demonstration session.
func DefaultConfig() Config {
	return Config{
		DataShard:                      10,
		ParityShard:                    3,
		InitialMaxData:                 1 << 20,
		InitialMaxStreamDataBidiLocal:  1 << 18,
		InitialMaxStreamDataBidiRemote: 1 << 18,
		InitialMaxStreamDataUni:        1 << 18,
	}
}

// smuxConfig builds the smux.Config quicflow rides on. Version is pinned to
// 1 — smux's own v2 window-update flow control (cmdUPD) is disabled — so
// that flowcontrol.Controller is the sole sender-side credit gatekeeper;
// running both would double-account the same bytes.
func smuxConfig() *smux.Config {
	cfg := smux.DefaultConfig()
	cfg.Version = 1
	cfg.KeepAliveInterval = 10 * time.Second
	return cfg
}
