package flowcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtaci/quicflow/protocol"
)

func newTestController(t *testing.T, role protocol.Role, maxData, bidiLocal, bidiRemote, uni protocol.ByteCount) *Controller {
	t.Helper()
	return New(role, maxData, bidiLocal, bidiRemote, uni, nil)
}

func TestReserveGrantsUpToStreamCeiling(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 500, 200, 500)

	granted, err := c.Reserve(protocol.StreamID(0), 1000) // client bidi stream, own stream -> ClassBidiLocal, seeded from the peer's bidi_remote value (200)
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(200), granted)
}

func TestReserveGrantsUpToConnCeiling(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 300, 1000, 1000, 1000)

	granted, err := c.Reserve(protocol.StreamID(0), 1000)
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(300), granted)
}

func TestReserveIsMonotonic(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)

	granted, err := c.Reserve(protocol.StreamID(0), 100)
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(100), granted)

	granted, err = c.Reserve(protocol.StreamID(0), 250)
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(250), granted)
}

func TestReserveRejectsLowerThanAssigned(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)

	_, err := c.Reserve(protocol.StreamID(0), 100)
	require.NoError(t, err)

	_, err = c.Reserve(protocol.StreamID(0), 50)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReserveZeroIsLegalWhenExhausted(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 100, 1000, 1000, 1000)

	_, err := c.Reserve(protocol.StreamID(0), 100)
	require.NoError(t, err)

	granted, err := c.Reserve(protocol.StreamID(4), 50)
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(0), granted)
}

func TestReserveRejectsUnsendableStream(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)

	_, err := c.Reserve(protocol.StreamID(3), 10) // server-initiated uni
	assert.ErrorIs(t, err, ErrInternal)
}

func TestConservationAcrossStreams(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)

	var total protocol.ByteCount
	for i, id := range []protocol.StreamID{0, 4, 8, 12} {
		granted, err := c.Reserve(id, protocol.ByteCount(100*(i+1)))
		require.NoError(t, err)
		total += granted
	}

	c.mu.Lock()
	connAssigned := c.connAssigned
	c.mu.Unlock()
	assert.Equal(t, connAssigned, total)
}

func TestAssignedTracksReservations(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)

	assigned, err := c.Assigned(protocol.StreamID(0))
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(0), assigned)

	_, err = c.Reserve(protocol.StreamID(0), 300)
	require.NoError(t, err)

	assigned, err = c.Assigned(protocol.StreamID(0))
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(300), assigned)
}

func TestConnAvailableReflectsHeadroom(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 1000, 1000, 1000, 1000)
	assert.Equal(t, protocol.ByteCount(1000), c.ConnAvailable())

	_, err := c.Reserve(protocol.StreamID(0), 400)
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(600), c.ConnAvailable())
}

func TestGetAvailableIsAdvisory(t *testing.T) {
	c := newTestController(t, protocol.RoleClient, 500, 200, 200, 200)

	avail, err := c.GetAvailable(protocol.StreamID(0))
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(200), avail)

	_, err = c.Reserve(protocol.StreamID(0), 200)
	require.NoError(t, err)

	avail, err = c.GetAvailable(protocol.StreamID(0))
	require.NoError(t, err)
	assert.Equal(t, protocol.ByteCount(0), avail)
}
