package flowcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtaci/quicflow/protocol"
)

func TestOnMaxDataIgnoresOutOfOrderDecrease(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 0, 0, 0, 0)

	c.OnMaxData(5000)
	c.OnMaxData(3000)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, protocol.ByteCount(5000), c.connAllowed)
}

func TestOnMaxStreamDataCreatesEntryOnFirstTouch(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 10, 10, 10)

	require.NoError(t, c.OnMaxStreamData(protocol.StreamID(4), 900))

	avail, err := c.GetAvailable(protocol.StreamID(4))
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(900), avail)
}

func TestApplyPeerTransportParametersRejectsServer(t *testing.T) {
	c := newTestController(t, protocol.RoleServer, 1000, 1000, 1000, 1000)

	err := c.ApplyPeerTransportParameters(TransportParameters{InitialMaxData: 2000})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestApplyPeerTransportParametersRaisesConnAllowed(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)

	_, err := c.Reserve(protocol.StreamID(0), 500)
	require.NoError(t, err)

	require.NoError(t, c.ApplyPeerTransportParameters(TransportParameters{
		InitialMaxData:                 2000,
		InitialMaxStreamDataBidiLocal:  1000,
		InitialMaxStreamDataBidiRemote: 1000,
		InitialMaxStreamDataUni:        1000,
	}))

	c.mu.Lock()
	connAllowed := c.connAllowed
	assigned := c.streams[protocol.StreamID(0)].assigned
	c.mu.Unlock()
	assert.Equal(t, protocol.ByteCount(2000), connAllowed)
	assert.Equal(t, protocol.ByteCount(500), assigned, "assigned must survive the parameter update untouched")
}

func TestApplyPeerTransportParametersIgnoresDecrease(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)

	require.NoError(t, c.ApplyPeerTransportParameters(TransportParameters{
		InitialMaxData:                 500,
		InitialMaxStreamDataBidiLocal:  1000,
		InitialMaxStreamDataBidiRemote: 1000,
		InitialMaxStreamDataUni:        1000,
	}))

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, protocol.ByteCount(1000), c.connAllowed)
}

func TestApplyPeerTransportParametersRaisesExistingStreamClasses(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 10000, 200, 200, 200)

	// stream 0: client-initiated bidi (our own) -> ClassBidiLocal
	// stream 1: server-initiated bidi (peer-initiated) -> ClassBidiRemote
	_, err := c.Reserve(protocol.StreamID(0), 200)
	require.NoError(t, err)
	_, err = c.Reserve(protocol.StreamID(1), 200)
	require.NoError(t, err)

	require.NoError(t, c.ApplyPeerTransportParameters(TransportParameters{
		InitialMaxData:                 10000,
		InitialMaxStreamDataBidiLocal:  900, // names OUR stream 1's class (server's own local streams)
		InitialMaxStreamDataBidiRemote: 800, // names OUR stream 0's class (server's remote = client-initiated)
		InitialMaxStreamDataUni:        700,
	}))

	c.mu.Lock()
	allowed0 := c.streams[protocol.StreamID(0)].allowed
	allowed1 := c.streams[protocol.StreamID(1)].allowed
	c.mu.Unlock()

	assert.Equal(t, protocol.ByteCount(800), allowed0)
	assert.Equal(t, protocol.ByteCount(900), allowed1)
}
