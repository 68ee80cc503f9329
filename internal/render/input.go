package render

import (
	"sort"

	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/forgekit-dev/forge/internal/graphquery"
)

// QueryKind tags what a render was produced from, carried into the
// rendered JSON's "query" block.
type QueryKind string

const (
	QueryFull         QueryKind = "full"
	QuerySubgraph     QueryKind = "subgraph"
	QueryServiceFilter QueryKind = "service_filter"
)

// QueryInfo describes how the rendered content was selected.
type QueryInfo struct {
	Kind     QueryKind
	Seeds    []string
	MaxDepth int
}

// ScoredEntry pairs a node with its relevance (1.0 for a full-graph
// render, where every node is equally in scope).
type ScoredEntry struct {
	Node     graphmodel.Node
	Relevance float64
	HasScore bool
}

// Input is the renderer-agnostic view every surface form consumes, with
// nodes already ordered (full graph: descending edge count; subgraph: the
// extraction's descending relevance), ties broken by NodeId string order
// for determinism.
type Input struct {
	Query QueryInfo
	Nodes []ScoredEntry
	Edges []graphmodel.Edge
}

// FromGraph renders the entire graph with no relevance scoring, nodes
// ordered by descending edge count (incoming plus outgoing), ties broken
// by NodeId.
func FromGraph(g *graphmodel.Graph, query QueryInfo) Input {
	nodes := g.Nodes()
	edges := g.Edges()
	degree := make(map[graphmodel.NodeId]int, len(nodes))
	for _, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	sort.Slice(nodes, func(i, j int) bool {
		if degree[nodes[i].Id] != degree[nodes[j].Id] {
			return degree[nodes[i].Id] > degree[nodes[j].Id]
		}
		return nodes[i].Id.String() < nodes[j].Id.String()
	})
	entries := make([]ScoredEntry, len(nodes))
	for i, n := range nodes {
		entries[i] = ScoredEntry{Node: n}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source.String() < edges[j].Source.String()
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target.String() < edges[j].Target.String()
		}
		return edges[i].Kind < edges[j].Kind
	})
	return Input{Query: query, Nodes: entries, Edges: edges}
}

// FromSubgraph renders an extraction result, preserving its score-descending,
// NodeId-tiebroken order.
func FromSubgraph(sub graphquery.ExtractedSubgraph, query QueryInfo) Input {
	entries := make([]ScoredEntry, len(sub.Nodes))
	for i, sn := range sub.Nodes {
		entries[i] = ScoredEntry{Node: sn.Node, Relevance: sn.Score, HasScore: true}
	}
	edges := append([]graphmodel.Edge(nil), sub.Edges...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source.String() < edges[j].Source.String()
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target.String() < edges[j].Target.String()
		}
		return edges[i].Kind < edges[j].Kind
	})
	return Input{Query: query, Nodes: entries, Edges: edges}
}

// EdgesForNode returns edges from the input whose source is id, grouped
// for per-service Markdown sections.
func (in Input) EdgesForNode(id graphmodel.NodeId) []graphmodel.Edge {
	var out []graphmodel.Edge
	for _, e := range in.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}
