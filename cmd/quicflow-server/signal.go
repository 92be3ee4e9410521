// +build linux darwin freebsd

package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/xtaci/quicflow/transport"
)

// sessionRegistry tracks the live sessions accepted by this server so that
// watchSignals can report a snapshot across all of them on demand.
type sessionRegistry struct {
	mu   sync.Mutex
	sess map[*transport.Session]struct{}
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sess: make(map[*transport.Session]struct{})}
}

func (r *sessionRegistry) add(s *transport.Session) {
	r.mu.Lock()
	r.sess[s] = struct{}{}
	r.mu.Unlock()
}

func (r *sessionRegistry) remove(s *transport.Session) {
	r.mu.Lock()
	delete(r.sess, s)
	r.mu.Unlock()
}

// watchSignals logs a flow-control snapshot for every live session on
// SIGUSR1 and ignores SIGPIPE, which kcp-go's underlying UDP socket can
// otherwise raise on a reset peer.
func watchSignals(reg *sessionRegistry) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	signal.Ignore(syscall.SIGPIPE)

	for range ch {
		reg.mu.Lock()
		log.Printf("quicflow: %d active sessions", len(reg.sess))
		for s := range reg.sess {
			log.Printf("quicflow: connection send headroom: %d bytes", s.ConnAvailable())
		}
		reg.mu.Unlock()
	}
}
