package flowcontrol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtaci/quicflow/protocol"
)

func TestWaitForCreditReturnsImmediatelyWhenAvailable(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.WaitForCredit(ctx, protocol.StreamID(0)))
}

func TestWaitForCreditWakesOnMaxStreamData(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 100, 100, 100)

	_, err := c.Reserve(protocol.StreamID(0), 100) // exhaust the stream ceiling
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- c.WaitForCredit(ctx, protocol.StreamID(0))
	}()

	time.Sleep(20 * time.Millisecond) // let the waiter park
	require.NoError(t, c.OnMaxStreamData(protocol.StreamID(0), 200))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter did not wake up after MAX_STREAM_DATA increase")
	}
}

func TestWaitForCreditDoesNotWakeOnIrrelevantMaxData(t *testing.T) {
	// Connection credit is plentiful; the stream's own ceiling is the
	// binding constraint, so a connection-wide MAX_DATA bump must not be
	// mistaken for progress on this stream (spurious wakeups are
	// allowed to re-check and re-suspend, but the waiter must eventually
	// unblock only once its own stream's ceiling is lifted).
	c := newTestController(t, protocol.RoleClient, 10000, 100, 100, 100)

	_, err := c.Reserve(protocol.StreamID(0), 100)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		done <- c.WaitForCredit(ctx, protocol.StreamID(0))
	}()

	time.Sleep(20 * time.Millisecond)
	c.OnMaxData(20000) // irrelevant: stream 0 is already conn-headroom-rich

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("test did not conclude")
	}
}

func TestWaitForCreditCancellation(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 100, 100, 100, 100)
	_, err := c.Reserve(protocol.StreamID(0), 100)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.WaitForCredit(ctx, protocol.StreamID(0)) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("cancellation did not unblock the waiter")
	}

	avail, err := c.GetAvailable(protocol.StreamID(0))
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(0), avail, "cancellation must not mutate the ledger")
}
