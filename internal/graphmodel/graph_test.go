package graphmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNode(t *testing.T, kind NodeKind, ns, name string) Node {
	t.Helper()
	n, err := NewNodeBuilder(kind, ns, name).Build()
	require.NoError(t, err)
	return n
}

func TestGraph_AddNode_DuplicateRejected(t *testing.T) {
	g := NewGraph()
	n := buildNode(t, KindService, "ns", "svc")
	require.NoError(t, g.AddNode(n))
	err := g.AddNode(n)
	require.Error(t, err)
}

func TestGraph_UpsertNode_MergesOnSecondCall(t *testing.T) {
	g := NewGraph()
	n1, err := NewNodeBuilder(KindService, "ns", "svc").Attribute("a", StringValue("1")).Build()
	require.NoError(t, err)
	created := g.UpsertNode(n1)
	assert.True(t, created)

	n2, err := NewNodeBuilder(KindService, "ns", "svc").Attribute("b", StringValue("2")).Build()
	require.NoError(t, err)
	created = g.UpsertNode(n2)
	assert.False(t, created)

	stored, ok := g.GetNode(n1.Id)
	require.True(t, ok)
	assert.Len(t, stored.Attributes, 2)
	assert.Equal(t, 1, g.NodeCount())
}

func TestGraph_RemoveNode_CascadesEdges(t *testing.T) {
	g := NewGraph()
	svc := buildNode(t, KindService, "checkout", "api")
	api := buildNode(t, KindAPI, "payments", "charge")
	require.NoError(t, g.AddNode(svc))
	require.NoError(t, g.AddNode(api))
	e, err := NewEdge(svc.Id, api.Id, EdgeCalls, NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(e))

	require.NoError(t, g.RemoveNode(svc.Id))
	assert.Equal(t, 0, g.EdgeCount())
	assert.False(t, g.ContainsNode(svc.Id))
	assert.Empty(t, g.EdgesTo(api.Id))
}

func TestGraph_RemoveNode_NotFound(t *testing.T) {
	g := NewGraph()
	err := g.RemoveNode(mustNodeId(t, KindService, "a", "b"))
	require.Error(t, err)
}

func TestGraph_AddEdge_RequiresBothEndpoints(t *testing.T) {
	g := NewGraph()
	svc := buildNode(t, KindService, "checkout", "api")
	require.NoError(t, g.AddNode(svc))
	api := buildNode(t, KindAPI, "payments", "charge")
	e, err := NewEdge(svc.Id, api.Id, EdgeCalls, NewEdgeMetadata())
	require.NoError(t, err)
	err = g.AddEdge(e)
	require.Error(t, err)
}

func TestGraph_AddEdge_DuplicateTripleRejected(t *testing.T) {
	g := NewGraph()
	svc := buildNode(t, KindService, "checkout", "api")
	api := buildNode(t, KindAPI, "payments", "charge")
	require.NoError(t, g.AddNode(svc))
	require.NoError(t, g.AddNode(api))
	e, err := NewEdge(svc.Id, api.Id, EdgeCalls, NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(e))
	err = g.AddEdge(e)
	require.Error(t, err)
}

func TestGraph_UpsertEdge_ReplacesMetadataOnDuplicateTriple(t *testing.T) {
	g := NewGraph()
	svc := buildNode(t, KindService, "checkout", "api")
	api := buildNode(t, KindAPI, "payments", "charge")
	require.NoError(t, g.AddNode(svc))
	require.NoError(t, g.AddNode(api))

	e1, err := NewEdge(svc.Id, api.Id, EdgeCalls, NewEdgeMetadata().WithReason("first"))
	require.NoError(t, err)
	created, err := g.UpsertEdge(e1)
	require.NoError(t, err)
	assert.True(t, created)

	e2, err := NewEdge(svc.Id, api.Id, EdgeCalls, NewEdgeMetadata().WithReason("second"))
	require.NoError(t, err)
	created, err = g.UpsertEdge(e2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, g.EdgeCount())

	edges := g.EdgesFrom(svc.Id)
	require.Len(t, edges, 1)
	assert.Equal(t, "second", edges[0].Metadata.Reason)
}

func TestGraph_EdgesFromTo_ByKind(t *testing.T) {
	g := NewGraph()
	svc := buildNode(t, KindService, "checkout", "api")
	db := buildNode(t, KindDatabase, "orders", "postgres")
	queue := buildNode(t, KindQueue, "orders", "events")
	require.NoError(t, g.AddNode(svc))
	require.NoError(t, g.AddNode(db))
	require.NoError(t, g.AddNode(queue))

	readsEdge, err := NewEdge(svc.Id, db.Id, EdgeReads, NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(readsEdge))
	pubEdge, err := NewEdge(svc.Id, queue.Id, EdgePublishes, NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(pubEdge))

	assert.Len(t, g.EdgesFrom(svc.Id), 2)
	assert.Len(t, g.EdgesFromByKind(svc.Id, EdgeReads), 1)
	assert.Len(t, g.EdgesToByKind(db.Id, EdgeReads), 1)
	assert.Empty(t, g.EdgesToByKind(db.Id, EdgePublishes))
}

func TestGraph_NodesByKind(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(buildNode(t, KindService, "a", "one")))
	require.NoError(t, g.AddNode(buildNode(t, KindService, "b", "two")))
	require.NoError(t, g.AddNode(buildNode(t, KindDatabase, "c", "three")))
	assert.Len(t, g.NodesByKind(KindService), 2)
	assert.Len(t, g.NodesByKind(KindDatabase), 1)
}
