package render

import (
	"testing"
	"time"

	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph(t *testing.T) *graphmodel.Graph {
	t.Helper()
	g := graphmodel.NewGraph()
	svc, err := graphmodel.NewNodeBuilder(graphmodel.KindService, "acme", "checkout").
		Attribute("language", graphmodel.StringValue("typescript")).Build()
	require.NoError(t, err)
	db, err := graphmodel.NewNodeBuilder(graphmodel.KindDatabase, "acme", "orders").Build()
	require.NoError(t, err)
	require.NoError(t, g.AddNode(svc))
	require.NoError(t, g.AddNode(db))
	e, err := graphmodel.NewEdge(svc.Id, db.Id, graphmodel.EdgeReads, graphmodel.NewEdgeMetadata())
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(e))
	return g
}

func TestJSON_Deterministic(t *testing.T) {
	g := sampleGraph(t)
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in := FromGraph(g, QueryInfo{Kind: QueryFull})
	a, err := JSON(in, nil, ts)
	require.NoError(t, err)
	b, err := JSON(in, nil, ts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestJSON_BudgetCompliance(t *testing.T) {
	g := sampleGraph(t)
	in := FromGraph(g, QueryInfo{Kind: QueryFull})
	budget := NewBudget(50)
	data, err := JSON(in, budget, time.Now().UTC())
	require.NoError(t, err)
	assert.LessOrEqual(t, budget.Used(), 50)
	assert.NotEmpty(t, data)
}

func TestJSON_NoBudgetIncludesEverything(t *testing.T) {
	g := sampleGraph(t)
	in := FromGraph(g, QueryInfo{Kind: QueryFull})
	data, err := JSON(in, nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Contains(t, string(data), "checkout")
	assert.Contains(t, string(data), "orders")
}

func TestMarkdown_SummaryOmitsBusinessContext(t *testing.T) {
	g := graphmodel.NewGraph()
	svc, err := graphmodel.NewNodeBuilder(graphmodel.KindService, "acme", "checkout").
		Context(graphmodel.BusinessContext{Purpose: "handles checkout"}).Build()
	require.NoError(t, err)
	require.NoError(t, g.AddNode(svc))
	in := FromGraph(g, QueryInfo{Kind: QueryFull})

	summary := Markdown(in, DetailSummary, nil)
	assert.NotContains(t, summary, "handles checkout")

	full := Markdown(in, DetailFull, nil)
	assert.Contains(t, full, "handles checkout")
}

func TestMarkdown_BudgetTruncationMarker(t *testing.T) {
	g := sampleGraph(t)
	in := FromGraph(g, QueryInfo{Kind: QueryFull})
	budget := NewBudget(1)
	out := Markdown(in, DetailStandard, budget)
	assert.Contains(t, out, "truncated")
}

func TestDiagram_OnlyReferencesKeptNodes(t *testing.T) {
	g := sampleGraph(t)
	in := FromGraph(g, QueryInfo{Kind: QueryFull})
	out := Diagram(in, DirectionTopDown, nil)
	assert.Contains(t, out, "flowchart TD")
	assert.Contains(t, out, "-->|READS|")
}

func TestTokenCounter_MonotoneInLength(t *testing.T) {
	assert.Less(t, TokenCounter("short"), TokenCounter("a very much longer piece of text indeed"))
}
