package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtaci/quicflow/protocol"
)

func TestParamsRoundTrip(t *testing.T) {
	p := Params{
		InitialMaxData:                 1000,
		InitialMaxStreamDataBidiLocal:  200,
		InitialMaxStreamDataBidiRemote: 300,
		InitialMaxStreamDataUni:        400,
	}
	buf, err := AppendParams(nil, p)
	require.NoError(t, err)

	got, n, err := ParseParams(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, p, got)
}

func TestParamsToFlowControl(t *testing.T) {
	p := Params{InitialMaxData: 1000, InitialMaxStreamDataBidiLocal: 200, InitialMaxStreamDataBidiRemote: 300, InitialMaxStreamDataUni: 400}
	fc := p.ToFlowControl()
	assert.Equal(t, protocol.ByteCount(1000), fc.InitialMaxData)
	assert.Equal(t, protocol.ByteCount(200), fc.InitialMaxStreamDataBidiLocal)
	assert.Equal(t, protocol.ByteCount(300), fc.InitialMaxStreamDataBidiRemote)
	assert.Equal(t, protocol.ByteCount(400), fc.InitialMaxStreamDataUni)
}

func TestParseParamsTruncated(t *testing.T) {
	buf, err := AppendParams(nil, Params{InitialMaxData: 1000})
	require.NoError(t, err)

	_, _, err = ParseParams(buf[:1])
	assert.Error(t, err)
}
