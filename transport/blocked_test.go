package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xtaci/quicflow/protocol"
)

func TestBlockedSignalRateLimitsPerStream(t *testing.T) {
	b := newBlockedSignal(time.Minute)
	now := time.Now()

	assert.True(t, b.shouldSendStreamBlocked(protocol.StreamID(0), now))
	assert.False(t, b.shouldSendStreamBlocked(protocol.StreamID(0), now.Add(time.Second)))
	assert.True(t, b.shouldSendStreamBlocked(protocol.StreamID(0), now.Add(2*time.Minute)))

	// A different stream is independent.
	assert.True(t, b.shouldSendStreamBlocked(protocol.StreamID(4), now.Add(time.Second)))
}

func TestBlockedSignalRateLimitsConnWide(t *testing.T) {
	b := newBlockedSignal(time.Minute)
	now := time.Now()

	assert.True(t, b.shouldSendConnBlocked(now))
	assert.False(t, b.shouldSendConnBlocked(now.Add(time.Second)))
	assert.True(t, b.shouldSendConnBlocked(now.Add(2*time.Minute)))
}
