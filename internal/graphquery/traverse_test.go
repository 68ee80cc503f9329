package graphquery

import (
	"testing"

	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, kind graphmodel.NodeKind, ns, name string) graphmodel.NodeId {
	t.Helper()
	id, err := graphmodel.NewNodeId(kind, ns, name)
	require.NoError(t, err)
	return id
}

func mustNode(t *testing.T, kind graphmodel.NodeKind, ns, name string) graphmodel.Node {
	t.Helper()
	n, err := graphmodel.NewNodeBuilder(kind, ns, name).Build()
	require.NoError(t, err)
	return n
}

// diamond builds: checkout -CALLS-> fraud -CALLS-> payments, and
// checkout -CALLS-> payments directly, giving two paths of different
// length (S6 scenario shape).
func diamond(t *testing.T) (*graphmodel.Graph, graphmodel.NodeId, graphmodel.NodeId, graphmodel.NodeId) {
	t.Helper()
	g := graphmodel.NewGraph()
	checkout := mustNode(t, graphmodel.KindService, "checkout", "svc")
	fraud := mustNode(t, graphmodel.KindService, "fraud", "svc")
	payments := mustNode(t, graphmodel.KindService, "payments", "svc")
	require.NoError(t, g.AddNode(checkout))
	require.NoError(t, g.AddNode(fraud))
	require.NoError(t, g.AddNode(payments))

	e1, err := graphmodel.NewEdge(checkout.Id, fraud.Id, graphmodel.EdgeCalls, graphmodel.NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(e1))
	e2, err := graphmodel.NewEdge(fraud.Id, payments.Id, graphmodel.EdgeCalls, graphmodel.NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(e2))
	e3, err := graphmodel.NewEdge(checkout.Id, payments.Id, graphmodel.EdgeCalls, graphmodel.NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(e3))

	return g, checkout.Id, fraud.Id, payments.Id
}

func TestFindPath_DirectEdgeIsShortest(t *testing.T) {
	g, checkout, _, payments := diamond(t)
	path, found := FindPath(g, checkout, payments)
	require.True(t, found)
	assert.Equal(t, []graphmodel.NodeId{checkout, payments}, path)
}

func TestFindPath_Unreachable(t *testing.T) {
	g := graphmodel.NewGraph()
	a := mustNode(t, graphmodel.KindService, "a", "svc")
	b := mustNode(t, graphmodel.KindService, "b", "svc")
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	_, found := FindPath(g, a.Id, b.Id)
	assert.False(t, found)
}

func TestFindPath_SameNode(t *testing.T) {
	g, checkout, _, _ := diamond(t)
	path, found := FindPath(g, checkout, checkout)
	require.True(t, found)
	assert.Equal(t, []graphmodel.NodeId{checkout}, path)
}

func TestOutboundInbound(t *testing.T) {
	g, checkout, fraud, payments := diamond(t)
	out := Outbound(g, checkout, graphmodel.EdgeCalls)
	assert.Len(t, out, 2)

	in := Inbound(g, payments, graphmodel.EdgeCalls)
	assert.Len(t, in, 2)

	inFraud := Inbound(g, fraud, "")
	require.Len(t, inFraud, 1)
	assert.Equal(t, checkout, inFraud[0].Id)
}

func TestResourceAccessors(t *testing.T) {
	g := graphmodel.NewGraph()
	svc1 := mustNode(t, graphmodel.KindService, "checkout", "svc")
	svc2 := mustNode(t, graphmodel.KindService, "fraud", "svc")
	db := mustNode(t, graphmodel.KindDatabase, "orders", "postgres")
	require.NoError(t, g.AddNode(svc1))
	require.NoError(t, g.AddNode(svc2))
	require.NoError(t, g.AddNode(db))

	e1, err := graphmodel.NewEdge(svc1.Id, db.Id, graphmodel.EdgeReadsShared, graphmodel.NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(e1))
	e2, err := graphmodel.NewEdge(svc2.Id, db.Id, graphmodel.EdgeWritesShared, graphmodel.NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(e2))

	accessors := ResourceAccessors(g, db.Id)
	assert.Len(t, accessors, 2)
}

func TestSubgraph_InductionKeepsOnlyInducedEdges(t *testing.T) {
	g, checkout, fraud, payments := diamond(t)
	sub := Subgraph(g, map[graphmodel.NodeId]struct{}{checkout: {}, fraud: {}})
	assert.Equal(t, 2, sub.NodeCount())
	assert.Equal(t, 1, sub.EdgeCount())
	assert.False(t, sub.ContainsNode(payments))
}
