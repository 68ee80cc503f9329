package graphmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeId_Valid(t *testing.T) {
	id, err := NewNodeId(KindService, "checkout", "api")
	require.NoError(t, err)
	assert.Equal(t, "service:checkout:api", id.String())
	assert.Equal(t, KindService, id.Kind())
	assert.Equal(t, "checkout", id.Namespace())
	assert.Equal(t, "api", id.Name())
}

func TestNewNodeId_InvalidKind(t *testing.T) {
	_, err := NewNodeId(NodeKind("bogus"), "ns", "name")
	require.Error(t, err)
}

func TestNewNodeId_EmptySegment(t *testing.T) {
	_, err := NewNodeId(KindService, "", "name")
	require.Error(t, err)
}

func TestNewNodeId_ColonInSegment(t *testing.T) {
	_, err := NewNodeId(KindService, "name:space", "name")
	require.Error(t, err)
}

func TestNewNodeId_SegmentTooLong(t *testing.T) {
	long := make([]byte, 257)
	for i := range long {
		long[i] = 'a'
	}
	_, err := NewNodeId(KindService, string(long), "name")
	require.Error(t, err)
}

func TestParseNodeId_RoundTrip(t *testing.T) {
	id, err := NewNodeId(KindDatabase, "orders", "postgres")
	require.NoError(t, err)
	parsed, err := ParseNodeId(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseNodeId_MalformedFormat(t *testing.T) {
	_, err := ParseNodeId("service-only")
	require.Error(t, err)
}

func TestParseNodeId_UnknownKind(t *testing.T) {
	_, err := ParseNodeId("bogus:ns:name")
	require.Error(t, err)
}

func TestNodeId_JSONRoundTrip(t *testing.T) {
	id, err := NewNodeId(KindQueue, "orders", "events")
	require.NoError(t, err)
	data, err := id.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"queue:orders:events"`, string(data))

	var parsed NodeId
	require.NoError(t, parsed.UnmarshalJSON(data))
	assert.Equal(t, id, parsed)
}

func TestNodeId_IsZero(t *testing.T) {
	var id NodeId
	assert.True(t, id.IsZero())
	built, err := NewNodeId(KindService, "a", "b")
	require.NoError(t, err)
	assert.False(t, built.IsZero())
}
