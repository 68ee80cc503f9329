package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgekit-dev/forge/internal/graphmodel"
)

func buildNode(t *testing.T, kind graphmodel.NodeKind, namespace, name string) graphmodel.Node {
	t.Helper()
	n, err := graphmodel.NewNodeBuilder(kind, namespace, name).Build()
	require.NoError(t, err)
	return n
}

func testGraph(t *testing.T) *graphmodel.Graph {
	t.Helper()
	g := graphmodel.NewGraph()
	svc := buildNode(t, graphmodel.KindService, "checkout", "api")
	db := buildNode(t, graphmodel.KindDatabase, "checkout", "orders")
	require.NoError(t, g.AddNode(svc))
	require.NoError(t, g.AddNode(db))
	_, err := g.UpsertEdge(graphmodel.Edge{Source: svc.Id, Target: db.Id, Kind: graphmodel.EdgeReads})
	require.NoError(t, err)
	return g
}

func TestHandler_InitializeAndToolsList(t *testing.T) {
	h := NewHandler()
	g := testGraph(t)
	h.RegisterTool("forge.extract_subgraph", &ExtractSubgraphTool{Graph: g})
	h.RegisterTool("forge.list_context_gaps", &ListContextGapsTool{Graph: g})

	resp := h.Handle(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	require.Nil(t, resp.Error)
	assert.NotNil(t, resp.Result)

	resp = h.Handle(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})
	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Len(t, result["tools"], 2)
}

func TestHandler_UnknownMethodErrors(t *testing.T) {
	h := NewHandler()
	resp := h.Handle(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 1, Method: "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestHandler_ToolCall_MissingNameErrors(t *testing.T) {
	h := NewHandler()
	resp := h.Handle(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: map[string]any{}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestExtractSubgraphTool_Execute(t *testing.T) {
	g := testGraph(t)
	tool := &ExtractSubgraphTool{Graph: g}

	seedID, err := graphmodel.NewNodeId(graphmodel.KindService, "checkout", "api")
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), map[string]any{
		"seeds":     []any{seedID.String()},
		"max_depth": 1,
	})
	require.NoError(t, err)

	raw, ok := result.(jsonRawMessage)
	require.True(t, ok)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "nodes")
}

func TestExtractSubgraphTool_RequiresSeeds(t *testing.T) {
	g := testGraph(t)
	tool := &ExtractSubgraphTool{Graph: g}
	_, err := tool.Execute(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestExtractSubgraphTool_RejectsMalformedSeed(t *testing.T) {
	g := testGraph(t)
	tool := &ExtractSubgraphTool{Graph: g}
	_, err := tool.Execute(context.Background(), map[string]any{"seeds": []any{"not-a-valid-id"}})
	assert.Error(t, err)
}

func TestListContextGapsTool_Execute(t *testing.T) {
	g := testGraph(t)
	tool := &ListContextGapsTool{Graph: g}

	result, err := tool.Execute(context.Background(), map[string]any{"top_n": 1})
	require.NoError(t, err)

	out := result.(map[string]any)
	gaps := out["gaps"].([]map[string]any)
	assert.LessOrEqual(t, len(gaps), 1)
}

func TestStdioTransport_ProcessesOneRequestPerLine(t *testing.T) {
	h := NewHandler()
	var out strings.Builder
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n")

	transport := NewStdioTransport(in, &out, h)
	require.NoError(t, transport.Run(context.Background()))

	assert.Contains(t, out.String(), `"protocolVersion"`)
}

func TestStdioTransport_MalformedLineReturnsParseError(t *testing.T) {
	h := NewHandler()
	var out strings.Builder
	in := strings.NewReader("not json\n")

	transport := NewStdioTransport(in, &out, h)
	require.NoError(t, transport.Run(context.Background()))

	assert.Contains(t, out.String(), "-32700")
}
