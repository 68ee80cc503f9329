package graphmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNodeId(t *testing.T, kind NodeKind, ns, name string) NodeId {
	t.Helper()
	id, err := NewNodeId(kind, ns, name)
	require.NoError(t, err)
	return id
}

func TestNewEdge_ValidCallsApi(t *testing.T) {
	svc := mustNodeId(t, KindService, "checkout", "api")
	api := mustNodeId(t, KindAPI, "payments", "charge")
	e, err := NewEdge(svc, api, EdgeCalls, NewEdgeMetadata())
	require.NoError(t, err)
	assert.Equal(t, EdgeCalls, e.Kind)
}

func TestNewEdge_ValidCallsService(t *testing.T) {
	svc1 := mustNodeId(t, KindService, "checkout", "api")
	svc2 := mustNodeId(t, KindService, "fraud", "api")
	_, err := NewEdge(svc1, svc2, EdgeCalls, NewEdgeMetadata())
	require.NoError(t, err)
}

func TestNewEdge_InvalidSourceKind(t *testing.T) {
	db := mustNodeId(t, KindDatabase, "orders", "postgres")
	api := mustNodeId(t, KindAPI, "payments", "charge")
	_, err := NewEdge(db, api, EdgeCalls, NewEdgeMetadata())
	require.Error(t, err)
}

func TestNewEdge_InvalidTargetKind(t *testing.T) {
	svc := mustNodeId(t, KindService, "checkout", "api")
	queue := mustNodeId(t, KindQueue, "orders", "events")
	_, err := NewEdge(svc, queue, EdgeOwns, NewEdgeMetadata())
	require.NoError(t, err) // OWNS admits queue as target

	db := mustNodeId(t, KindDatabase, "orders", "postgres")
	_, err = NewEdge(svc, db, EdgePublishes, NewEdgeMetadata())
	require.Error(t, err) // PUBLISHES requires a queue target
}

func TestEdgeKind_IsDirectional(t *testing.T) {
	assert.True(t, EdgeCalls.IsDirectional())
	assert.False(t, EdgeImplicitlyCoupled.IsDirectional())
}

func TestEdgeMetadata_BuilderChain(t *testing.T) {
	m := NewEdgeMetadata().
		WithConfidence(0.8).
		WithReason("import detected").
		WithEvidence("line 12").
		WithHTTP("POST", "/charge").
		Confirm()
	require.NotNil(t, m.Confidence)
	assert.InDelta(t, 0.8, *m.Confidence, 0.0001)
	assert.Equal(t, "import detected", m.Reason)
	assert.Equal(t, []string{"line 12"}, m.Evidence)
	assert.Equal(t, "POST", m.HTTPMethod)
	assert.True(t, m.Confirmed)
}
