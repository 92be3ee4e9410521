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

package main

import (
	"context"
	"io"
	"log"
	"net"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/xtaci/quicflow/internal/xlog"
	"github.com/xtaci/quicflow/protocol"
	"github.com/xtaci/quicflow/transport"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "quicflow-server"
	app.Usage = "demonstration server for the quicflow connection-level flow controller"
	app.Version = VERSION
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "listen, l", Value: ":29900", Usage: "quicflow listen address"},
		cli.StringFlag{Name: "target, t", Value: "127.0.0.1:80", Usage: "target address each incoming stream is proxied to"},
		cli.StringFlag{Name: "key", Value: "it's a secrect", Usage: "pre-shared secret between client and server", EnvVar: "QUICFLOW_KEY"},
		cli.IntFlag{Name: "datashard, ds", Value: 10, Usage: "reed-solomon erasure coding datashard"},
		cli.IntFlag{Name: "parityshard, ps", Value: 3, Usage: "reed-solomon erasure coding parityshard"},
		cli.Uint64Flag{Name: "initial-max-data", Value: 1 << 20, Usage: "connection-wide send credit offered to the peer"},
		cli.Uint64Flag{Name: "initial-max-stream-data-bidi-local", Value: 1 << 18, Usage: "per-stream send credit for our own bidi streams"},
		cli.Uint64Flag{Name: "initial-max-stream-data-bidi-remote", Value: 1 << 18, Usage: "per-stream send credit for peer-initiated bidi streams"},
		cli.Uint64Flag{Name: "initial-max-stream-data-uni", Value: 1 << 18, Usage: "per-stream send credit for our own uni streams"},
		cli.StringFlag{Name: "log", Value: "", Usage: "specify a log file to output, default goes to stderr"},
		cli.BoolFlag{Name: "verbose, v", Usage: "log flow-control debug chatter"},
		cli.StringFlag{Name: "c", Value: "", Usage: "config from json file, which will override the command from shell"},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	config := Config{
		Listen:                         c.String("listen"),
		Target:                         c.String("target"),
		Key:                            c.String("key"),
		DataShard:                      c.Int("datashard"),
		ParityShard:                    c.Int("parityshard"),
		InitialMaxData:                 c.Uint64("initial-max-data"),
		InitialMaxStreamDataBidiLocal:  c.Uint64("initial-max-stream-data-bidi-local"),
		InitialMaxStreamDataBidiRemote: c.Uint64("initial-max-stream-data-bidi-remote"),
		InitialMaxStreamDataUni:        c.Uint64("initial-max-stream-data-uni"),
		Log:                            c.String("log"),
		Verbose:                        c.Bool("verbose"),
	}
	if path := c.String("c"); path != "" {
		if err := parseJSONConfig(&config, path); err != nil {
			return err
		}
	}

	if config.Log != "" {
		f, err := os.OpenFile(config.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetOutput(f)
	}

	color.Cyan("quicflow-server %s", VERSION)
	log.Println("listening on:", config.Listen)
	log.Println("target:", config.Target)
	log.Println("initial_max_data:", config.InitialMaxData)
	log.Println("initial_max_stream_data_bidi_local:", config.InitialMaxStreamDataBidiLocal)
	log.Println("initial_max_stream_data_bidi_remote:", config.InitialMaxStreamDataBidiRemote)
	log.Println("initial_max_stream_data_uni:", config.InitialMaxStreamDataUni)

	logger := xlog.New(os.Stderr, config.Verbose)

	tcfg := transport.Config{
		DataShard:                      config.DataShard,
		ParityShard:                    config.ParityShard,
		InitialMaxData:                 protocol.ByteCount(config.InitialMaxData),
		InitialMaxStreamDataBidiLocal:  protocol.ByteCount(config.InitialMaxStreamDataBidiLocal),
		InitialMaxStreamDataBidiRemote: protocol.ByteCount(config.InitialMaxStreamDataBidiRemote),
		InitialMaxStreamDataUni:        protocol.ByteCount(config.InitialMaxStreamDataUni),
	}

	listener, err := transport.Listen(config.Listen, config.Key, tcfg, logger)
	if err != nil {
		return err
	}
	defer listener.Close()

	reg := newSessionRegistry()
	go watchSignals(reg)

	for {
		sess, err := listener.Accept()
		if err != nil {
			log.Printf("quicflow: accept: %v", err)
			continue
		}
		reg.add(sess)
		go handleSession(sess, config.Target, reg)
	}
}

func handleSession(sess *transport.Session, target string, reg *sessionRegistry) {
	defer reg.remove(sess)
	for {
		stream, err := sess.AcceptStream()
		if err != nil {
			return
		}
		go handleStream(stream, target)
	}
}

// handleStream proxies one quicflow stream to target, gating its own writes
// back to the client through the flow controller.
func handleStream(stream *transport.Stream, target string) {
	defer stream.Close()

	conn, err := net.Dial("tcp", target)
	if err != nil {
		log.Printf("quicflow: dialing target %s: %v", target, err)
		return
	}
	defer conn.Close()

	ctx := context.Background()
	done := make(chan struct{}, 2)

	go func() {
		buf := make([]byte, 32*1024)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				if _, werr := stream.Write(ctx, buf[:n]); werr != nil {
					break
				}
			}
			if err != nil {
				break
			}
		}
		done <- struct{}{}
	}()
	go func() {
		io.Copy(conn, stream)
		done <- struct{}{}
	}()
	<-done
}
