package graphquery

import (
	"math"
	"sort"

	"github.com/forgekit-dev/forge/internal/graphmodel"
)

// SubgraphConfig parameterizes bounded-BFS extraction.
type SubgraphConfig struct {
	Seeds                   []graphmodel.NodeId
	MaxDepth                 int
	IncludeImplicitCouplings bool
	MinRelevance             float64
	EdgeKinds                []graphmodel.EdgeKind // empty means all kinds participate
}

// ScoredNode pairs a node with the relevance score it was reached at.
type ScoredNode struct {
	Node  graphmodel.Node
	Score float64
}

// ExtractedSubgraph is the result of bounded-BFS extraction: nodes sorted
// by score descending (ties broken by NodeId string order), and every edge
// whose endpoints both survived the relevance cutoff.
type ExtractedSubgraph struct {
	Nodes []ScoredNode
	Edges []graphmodel.Edge
}

// decay gives the relevance assigned to a node reached when expanding from
// depth d to d+1: 0.7^(d+1). Chosen to match the observed reference scores
// {1.0, 0.7, 0.49, ...} for seeds and their first two hops.
func decay(d int) float64 {
	return math.Pow(0.7, float64(d+1))
}

func edgeKindAllowed(cfg SubgraphConfig, kind graphmodel.EdgeKind) bool {
	if kind == graphmodel.EdgeImplicitlyCoupled && !cfg.IncludeImplicitCouplings {
		return false
	}
	if len(cfg.EdgeKinds) == 0 {
		return true
	}
	for _, k := range cfg.EdgeKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ExtractSubgraph performs the bounded-BFS relevance-decayed extraction
// described for the graph query layer: seeds start at relevance 1.0,
// neighbors reached via outgoing or incoming edges when expanding from
// depth d get relevance decay(d), revisits keep the maximum relevance seen,
// and after expansion nodes below MinRelevance (and edges touching a
// dropped node) are pruned. Extraction never fails; an empty seed set
// yields an empty result.
func ExtractSubgraph(g *graphmodel.Graph, cfg SubgraphConfig) ExtractedSubgraph {
	if len(cfg.Seeds) == 0 {
		return ExtractedSubgraph{}
	}

	relevance := make(map[graphmodel.NodeId]float64)
	depthOf := make(map[graphmodel.NodeId]int)
	var frontier []graphmodel.NodeId

	for _, s := range cfg.Seeds {
		if !g.ContainsNode(s) {
			continue
		}
		if cur, ok := relevance[s]; !ok || 1.0 > cur {
			relevance[s] = 1.0
		}
		depthOf[s] = 0
		frontier = append(frontier, s)
	}

	for d := 0; d < cfg.MaxDepth && len(frontier) > 0; d++ {
		var next []graphmodel.NodeId
		nextSeen := make(map[graphmodel.NodeId]struct{})
		step := decay(d)

		for _, id := range frontier {
			neighbors := neighborEdges(g, id)
			for _, ne := range neighbors {
				if !edgeKindAllowed(cfg, ne.edge.Kind) {
					continue
				}
				candidate := step
				if cur, ok := relevance[ne.neighbor]; !ok || candidate > cur {
					relevance[ne.neighbor] = candidate
				}
				if _, ok := depthOf[ne.neighbor]; !ok {
					depthOf[ne.neighbor] = d + 1
				}
				if _, seen := nextSeen[ne.neighbor]; !seen {
					nextSeen[ne.neighbor] = struct{}{}
					next = append(next, ne.neighbor)
				}
			}
		}
		frontier = next
	}

	kept := make(map[graphmodel.NodeId]struct{})
	var scored []ScoredNode
	for id, score := range relevance {
		if score < cfg.MinRelevance {
			continue
		}
		n, ok := g.GetNode(id)
		if !ok {
			continue
		}
		kept[id] = struct{}{}
		scored = append(scored, ScoredNode{Node: n, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Node.Id.String() < scored[j].Node.Id.String()
	})

	var edges []graphmodel.Edge
	for _, e := range g.Edges() {
		_, sourceKept := kept[e.Source]
		_, targetKept := kept[e.Target]
		if sourceKept && targetKept && edgeKindAllowed(cfg, e.Kind) {
			edges = append(edges, e)
		}
	}

	return ExtractedSubgraph{Nodes: scored, Edges: edges}
}

type neighborEdge struct {
	neighbor graphmodel.NodeId
	edge     graphmodel.Edge
}

// neighborEdges gathers both outgoing and incoming neighbors of id, since
// extraction expands in both directions.
func neighborEdges(g *graphmodel.Graph, id graphmodel.NodeId) []neighborEdge {
	var out []neighborEdge
	for _, e := range g.EdgesFrom(id) {
		out = append(out, neighborEdge{neighbor: e.Target, edge: e})
	}
	for _, e := range g.EdgesTo(id) {
		out = append(out, neighborEdge{neighbor: e.Source, edge: e})
	}
	return out
}
