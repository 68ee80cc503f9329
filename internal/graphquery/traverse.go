// Package graphquery implements read-only traversal and subgraph-extraction
// algorithms over a *graphmodel.Graph: neighborhood lookups, shortest-path
// search, node-set induction, and bounded-BFS extraction with relevance
// decay (token budgeting happens later, in internal/render). None of this has an original Rust source in the
// retrieved reference pack (the upstream crate's query module was not
// captured), so it is built directly from the traversal semantics the rest
// of the system implies, in the idiom of the graph store it queries.
package graphquery

import "github.com/forgekit-dev/forge/internal/graphmodel"

// Outbound returns the nodes id has an edge to, optionally restricted to
// kind (pass "" for every kind).
func Outbound(g *graphmodel.Graph, id graphmodel.NodeId, kind graphmodel.EdgeKind) []graphmodel.Node {
	var edges []graphmodel.Edge
	if kind == "" {
		edges = g.EdgesFrom(id)
	} else {
		edges = g.EdgesFromByKind(id, kind)
	}
	out := make([]graphmodel.Node, 0, len(edges))
	for _, e := range edges {
		if n, ok := g.GetNode(e.Target); ok {
			out = append(out, n)
		}
	}
	return out
}

// Inbound returns the nodes that have an edge into id, optionally
// restricted to kind.
func Inbound(g *graphmodel.Graph, id graphmodel.NodeId, kind graphmodel.EdgeKind) []graphmodel.Node {
	var edges []graphmodel.Edge
	if kind == "" {
		edges = g.EdgesTo(id)
	} else {
		edges = g.EdgesToByKind(id, kind)
	}
	out := make([]graphmodel.Node, 0, len(edges))
	for _, e := range edges {
		if n, ok := g.GetNode(e.Source); ok {
			out = append(out, n)
		}
	}
	return out
}

// ResourceAccessors returns every service with an edge into resource,
// i.e. the set of services that share access to a database, queue, or
// cloud resource.
func ResourceAccessors(g *graphmodel.Graph, resource graphmodel.NodeId) []graphmodel.Node {
	seen := make(map[graphmodel.NodeId]struct{})
	var out []graphmodel.Node
	for _, e := range g.EdgesTo(resource) {
		if e.Source.Kind() != graphmodel.KindService {
			continue
		}
		if _, dup := seen[e.Source]; dup {
			continue
		}
		seen[e.Source] = struct{}{}
		if n, ok := g.GetNode(e.Source); ok {
			out = append(out, n)
		}
	}
	return out
}

// FindPath runs unweighted BFS from source to target over directional
// edges only (IMPLICITLY_COUPLED is symmetric and excluded), returning the
// first minimum-hop path found as a sequence of node ids including both
// endpoints. Returns nil, false if no path exists.
func FindPath(g *graphmodel.Graph, source, target graphmodel.NodeId) ([]graphmodel.NodeId, bool) {
	if source == target {
		return []graphmodel.NodeId{source}, true
	}
	visited := map[graphmodel.NodeId]struct{}{source: {}}
	prev := make(map[graphmodel.NodeId]graphmodel.NodeId)
	queue := []graphmodel.NodeId{source}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.EdgesFrom(cur) {
			if !e.Kind.IsDirectional() {
				continue
			}
			next := e.Target
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			prev[next] = cur
			if next == target {
				return reconstructPath(prev, source, target), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func reconstructPath(prev map[graphmodel.NodeId]graphmodel.NodeId, source, target graphmodel.NodeId) []graphmodel.NodeId {
	path := []graphmodel.NodeId{target}
	cur := target
	for cur != source {
		cur = prev[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Subgraph returns a new graph containing exactly the nodes in nodeSet and
// the edges whose both endpoints lie in it.
func Subgraph(g *graphmodel.Graph, nodeSet map[graphmodel.NodeId]struct{}) *graphmodel.Graph {
	out := graphmodel.NewGraph()
	for id := range nodeSet {
		if n, ok := g.GetNode(id); ok {
			out.UpsertNode(n)
		}
	}
	for _, e := range g.Edges() {
		_, sourceIn := nodeSet[e.Source]
		_, targetIn := nodeSet[e.Target]
		if sourceIn && targetIn {
			out.UpsertEdge(e)
		}
	}
	return out
}
