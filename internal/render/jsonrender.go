package render

import (
	"encoding/json"
	"time"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/graphmodel"
)

const schemaRef = "https://forgekit.dev/schema/graph-v1.json"
const renderVersion = "1.0.0"

type jsonNode struct {
	ID              string                               `json:"id"`
	Type            graphmodel.NodeKind                   `json:"type"`
	Name            string                                `json:"name"`
	Relevance       *float64                              `json:"relevance,omitempty"`
	Attributes      map[string]graphmodel.AttributeValue   `json:"attributes"`
	BusinessContext *graphmodel.BusinessContext            `json:"business_context,omitempty"`
}

type jsonEdge struct {
	Source   string                   `json:"source"`
	Target   string                   `json:"target"`
	Type     graphmodel.EdgeKind      `json:"type"`
	Metadata graphmodel.EdgeMetadata  `json:"metadata"`
}

type jsonQuery struct {
	Type     QueryKind `json:"type"`
	Seeds    []string  `json:"seeds,omitempty"`
	MaxDepth int       `json:"max_depth,omitempty"`
}

type jsonSummary struct {
	TotalNodes int            `json:"total_nodes"`
	TotalEdges int            `json:"total_edges"`
	ByType     map[string]int `json:"by_type"`
}

type jsonOutput struct {
	Schema      string      `json:"$schema"`
	Version     string      `json:"version"`
	GeneratedAt time.Time   `json:"generated_at"`
	Query       jsonQuery   `json:"query"`
	Nodes       []jsonNode  `json:"nodes"`
	Edges       []jsonEdge  `json:"edges"`
	Summary     jsonSummary `json:"summary"`
	Truncated   *truncation `json:"truncated,omitempty"`
}

type truncation struct {
	NodesOmitted int `json:"nodes_omitted"`
	EdgesOmitted int `json:"edges_omitted"`
}

// JSON renders in to the §6 schema. When budget is non-nil, nodes are
// emitted in the input's existing order (already descending-relevance for
// a subgraph, descending edge count with NodeId tie-breaks for a full
// graph) until the next node would exceed it; the stopped-at point sets
// the truncation marker.
func JSON(in Input, budget *Budget, generatedAt time.Time) ([]byte, error) {
	nodes := make([]jsonNode, 0, len(in.Nodes))
	kept := make(map[graphmodel.NodeId]struct{}, len(in.Nodes))
	nodesOmitted := 0

	for _, entry := range in.Nodes {
		jn := jsonNode{
			ID:         entry.Node.Id.String(),
			Type:       entry.Node.Kind,
			Name:       entry.Node.DisplayName,
			Attributes: entry.Node.Attributes,
		}
		if entry.HasScore {
			r := entry.Relevance
			jn.Relevance = &r
		}
		jn.BusinessContext = entry.Node.BusinessContext

		data, err := json.Marshal(jn)
		if err != nil {
			return nil, apperrors.Serialization(err)
		}
		if budget != nil && !budget.TryAdd(string(data)) {
			nodesOmitted++
			continue
		}
		nodes = append(nodes, jn)
		kept[entry.Node.Id] = struct{}{}
	}

	edges := make([]jsonEdge, 0, len(in.Edges))
	edgesOmitted := 0
	for _, e := range in.Edges {
		_, sourceKept := kept[e.Source]
		_, targetKept := kept[e.Target]
		if budget != nil && (!sourceKept || !targetKept) {
			edgesOmitted++
			continue
		}
		edges = append(edges, jsonEdge{
			Source:   e.Source.String(),
			Target:   e.Target.String(),
			Type:     e.Kind,
			Metadata: e.Metadata,
		})
	}

	byType := make(map[string]int)
	for _, n := range nodes {
		byType[string(n.Type)]++
	}

	out := jsonOutput{
		Schema:      schemaRef,
		Version:     renderVersion,
		GeneratedAt: generatedAt,
		Query: jsonQuery{
			Type:     in.Query.Kind,
			Seeds:    in.Query.Seeds,
			MaxDepth: in.Query.MaxDepth,
		},
		Nodes: nodes,
		Edges: edges,
		Summary: jsonSummary{
			TotalNodes: len(nodes),
			TotalEdges: len(edges),
			ByType:     byType,
		},
	}
	if budget != nil && (nodesOmitted > 0 || edgesOmitted > 0) {
		out.Truncated = &truncation{NodesOmitted: nodesOmitted, EdgesOmitted: edgesOmitted}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, apperrors.Serialization(err)
	}
	return data, nil
}
