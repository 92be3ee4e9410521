package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	buf, err := AppendMaxData(nil, 123456)
	require.NoError(t, err)

	f, n, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, CmdMaxData, f.Cmd)

	got, _, err := ReadVarint(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), got)
}

func TestMaxStreamDataRoundTrip(t *testing.T) {
	buf, err := AppendMaxStreamData(nil, 4, 9000)
	require.NoError(t, err)

	f, _, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, CmdMaxStreamData, f.Cmd)

	id, newMax, err := ParseMaxStreamData(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)
	assert.Equal(t, uint64(9000), newMax)
}

func TestParamsFrameRoundTrip(t *testing.T) {
	p := Params{
		InitialMaxData:                 1 << 20,
		InitialMaxStreamDataBidiLocal:  1 << 16,
		InitialMaxStreamDataBidiRemote: 1 << 17,
		InitialMaxStreamDataUni:        1 << 15,
	}
	buf, err := AppendParamsFrame(nil, p)
	require.NoError(t, err)

	f, n, err := ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, CmdParams, f.Cmd)

	got, _, err := ParseParams(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	fc := got.ToFlowControl()
	assert.Equal(t, uint64(fc.InitialMaxData), p.InitialMaxData)
}

func TestReadFrameTruncated(t *testing.T) {
	buf, err := AppendMaxData(nil, 42)
	require.NoError(t, err)

	_, _, err = ReadFrame(buf[:headerSize-1])
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = ReadFrame(buf[:len(buf)-1])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestAppendFramePayloadTooLarge(t *testing.T) {
	_, err := Frame{Cmd: CmdMaxData, Payload: make([]byte, 1<<17)}.Append(nil)
	assert.Error(t, err)
}
