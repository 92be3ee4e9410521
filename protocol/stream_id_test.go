package protocol

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyClientOwnStreams(t *testing.T) {
	class, err := Classify(StreamID(0), RoleClient) // client-initiated bidi
	require.NoError(t, err)
	assert.Equal(t, ClassBidiLocal, class)

	class, err = Classify(StreamID(2), RoleClient) // client-initiated uni
	require.NoError(t, err)
	assert.Equal(t, ClassUni, class)
}

func TestClassifyClientPeerBidi(t *testing.T) {
	class, err := Classify(StreamID(1), RoleClient) // server-initiated bidi
	require.NoError(t, err)
	assert.Equal(t, ClassBidiRemote, class)
}

func TestClassifyClientCannotSendOnPeerUni(t *testing.T) {
	_, err := Classify(StreamID(3), RoleClient) // server-initiated uni
	assert.Error(t, err)
}

func TestClassifyServerOwnStreams(t *testing.T) {
	class, err := Classify(StreamID(1), RoleServer) // server-initiated bidi
	require.NoError(t, err)
	assert.Equal(t, ClassBidiLocal, class)

	class, err = Classify(StreamID(3), RoleServer) // server-initiated uni
	require.NoError(t, err)
	assert.Equal(t, ClassUni, class)
}

func TestClassifyServerCannotSendOnPeerUni(t *testing.T) {
	_, err := Classify(StreamID(2), RoleServer) // client-initiated uni
	assert.Error(t, err)
}

// TestClassifyCompleteness fuzzes random 62-bit stream ids: every id is
// either classifiable for a given role, or rejected as not sendable by that
// role — Classify must never panic or silently misclassify.
func TestClassifyCompleteness(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		id := StreamID(uint64(r.Int63()) & uint64(MaxVarInt))
		for _, role := range []Role{RoleClient, RoleServer} {
			class, err := Classify(id, role)
			if err != nil {
				continue
			}
			switch class {
			case ClassBidiLocal, ClassBidiRemote, ClassUni:
			default:
				t.Fatalf("unreachable class %v for id %d role %v", class, id, role)
			}
		}
	}
}

func TestClassifyForPeerParams(t *testing.T) {
	field, ok := ClassifyForPeerParams(StreamID(0)) // client-initiated bidi, our own
	require.True(t, ok)
	assert.Equal(t, FieldBidiRemote, field)

	field, ok = ClassifyForPeerParams(StreamID(1)) // server-initiated bidi
	require.True(t, ok)
	assert.Equal(t, FieldBidiLocal, field)

	field, ok = ClassifyForPeerParams(StreamID(2)) // client-initiated uni
	require.True(t, ok)
	assert.Equal(t, FieldUni, field)

	_, ok = ClassifyForPeerParams(StreamID(3)) // server-initiated uni
	assert.False(t, ok)
}
