// +build linux darwin freebsd

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtaci/quicflow/transport"
)

// watchSignals logs a flow-control snapshot on SIGUSR1 and ignores SIGPIPE,
// which kcp-go's underlying UDP socket can otherwise raise on a reset peer.
func watchSignals(sess *transport.Session) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	signal.Ignore(syscall.SIGPIPE)

	for range ch {
		log.Printf("quicflow: connection send headroom: %d bytes", sess.ConnAvailable())
	}
}
