package graphmodel

import "github.com/forgekit-dev/forge/internal/apperrors"

// Graph is an in-process directed multigraph of Node/Edge, indexed for O(1)
// lookup by id and O(degree) traversal. It replaces petgraph's DiGraph: the
// spec forbids a general-purpose graph database or library, so identity and
// adjacency are tracked by hand with plain maps and slices.
//
// Graph is not internally synchronized; callers that mutate it from more
// than one goroutine must provide their own locking. The survey fan-out
// avoids this by building one Graph per repository and folding the results
// with Upsert, which is safe because upsert is associative and commutative.
type Graph struct {
	nodes    map[NodeId]*Node
	nodeOrder []NodeId

	edges     map[edgeTriple]*Edge
	edgeOrder []edgeTriple
	outIndex  map[NodeId][]edgeTriple
	inIndex   map[NodeId][]edgeTriple
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[NodeId]*Node),
		edges:    make(map[edgeTriple]*Edge),
		outIndex: make(map[NodeId][]edgeTriple),
		inIndex:  make(map[NodeId][]edgeTriple),
	}
}

// AddNode inserts node, failing if its id already exists.
func (g *Graph) AddNode(node Node) error {
	if _, exists := g.nodes[node.Id]; exists {
		return apperrors.DuplicateNode(node.Id.String())
	}
	n := node
	g.nodes[node.Id] = &n
	g.nodeOrder = append(g.nodeOrder, node.Id)
	return nil
}

// UpsertNode inserts node if new, or merges it into the existing node per
// Node.Merge's incoming-wins rule otherwise. Returns true if a new node was
// created.
func (g *Graph) UpsertNode(node Node) bool {
	existing, ok := g.nodes[node.Id]
	if !ok {
		n := node
		g.nodes[node.Id] = &n
		g.nodeOrder = append(g.nodeOrder, node.Id)
		return true
	}
	existing.Merge(node)
	return false
}

// GetNode returns the node for id, if present.
func (g *Graph) GetNode(id NodeId) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// GetNodeMut returns a pointer to the stored node for in-place mutation,
// e.g. attaching interview-derived BusinessContext.
func (g *Graph) GetNodeMut(id NodeId) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// ContainsNode reports whether id is present.
func (g *Graph) ContainsNode(id NodeId) bool {
	_, ok := g.nodes[id]
	return ok
}

// RemoveNode deletes the node and cascades to every edge touching it.
func (g *Graph) RemoveNode(id NodeId) error {
	if _, ok := g.nodes[id]; !ok {
		return apperrors.NodeNotFound(id.String())
	}
	delete(g.nodes, id)
	for i, nid := range g.nodeOrder {
		if nid == id {
			g.nodeOrder = append(g.nodeOrder[:i], g.nodeOrder[i+1:]...)
			break
		}
	}

	remaining := g.edgeOrder[:0]
	for _, t := range g.edgeOrder {
		if t.source == id || t.target == id {
			delete(g.edges, t)
			continue
		}
		remaining = append(remaining, t)
	}
	g.edgeOrder = remaining
	delete(g.outIndex, id)
	delete(g.inIndex, id)
	g.reindexAdjacency()
	return nil
}

func (g *Graph) reindexAdjacency() {
	g.outIndex = make(map[NodeId][]edgeTriple)
	g.inIndex = make(map[NodeId][]edgeTriple)
	for _, t := range g.edgeOrder {
		g.outIndex[t.source] = append(g.outIndex[t.source], t)
		g.inIndex[t.target] = append(g.inIndex[t.target], t)
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, *g.nodes[id])
	}
	return out
}

// NodesByKind returns every node of the given kind, in insertion order.
func (g *Graph) NodesByKind(kind NodeKind) []Node {
	var out []Node
	for _, id := range g.nodeOrder {
		if id.Kind() == kind {
			out = append(out, *g.nodes[id])
		}
	}
	return out
}

// AddEdge inserts a new edge, failing if both endpoints don't already exist
// as nodes or the (source, target, kind) triple is a duplicate.
func (g *Graph) AddEdge(edge Edge) error {
	if !g.ContainsNode(edge.Source) {
		return apperrors.NodeNotFound(edge.Source.String())
	}
	if !g.ContainsNode(edge.Target) {
		return apperrors.NodeNotFound(edge.Target.String())
	}
	t := edge.triple()
	if _, exists := g.edges[t]; exists {
		return apperrors.DuplicateEdge(edge.Source.String(), edge.Target.String(), string(edge.Kind))
	}
	e := edge
	g.edges[t] = &e
	g.edgeOrder = append(g.edgeOrder, t)
	g.outIndex[edge.Source] = append(g.outIndex[edge.Source], t)
	g.inIndex[edge.Target] = append(g.inIndex[edge.Target], t)
	return nil
}

// UpsertEdge inserts the edge if new, or replaces its metadata if the
// (source, target, kind) triple already exists. Returns true if new.
func (g *Graph) UpsertEdge(edge Edge) (bool, error) {
	if !g.ContainsNode(edge.Source) {
		return false, apperrors.NodeNotFound(edge.Source.String())
	}
	if !g.ContainsNode(edge.Target) {
		return false, apperrors.NodeNotFound(edge.Target.String())
	}
	t := edge.triple()
	if existing, ok := g.edges[t]; ok {
		e := edge
		*existing = e
		return false, nil
	}
	e := edge
	g.edges[t] = &e
	g.edgeOrder = append(g.edgeOrder, t)
	g.outIndex[edge.Source] = append(g.outIndex[edge.Source], t)
	g.inIndex[edge.Target] = append(g.inIndex[edge.Target], t)
	return true, nil
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edgeOrder) }

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, t := range g.edgeOrder {
		out = append(out, *g.edges[t])
	}
	return out
}

// EdgesByKind returns every edge of the given kind, in insertion order.
func (g *Graph) EdgesByKind(kind EdgeKind) []Edge {
	var out []Edge
	for _, t := range g.edgeOrder {
		if t.kind == kind {
			out = append(out, *g.edges[t])
		}
	}
	return out
}

// EdgesFrom returns every edge with the given source, in insertion order.
func (g *Graph) EdgesFrom(id NodeId) []Edge {
	triples := g.outIndex[id]
	out := make([]Edge, 0, len(triples))
	for _, t := range triples {
		out = append(out, *g.edges[t])
	}
	return out
}

// EdgesTo returns every edge with the given target, in insertion order.
func (g *Graph) EdgesTo(id NodeId) []Edge {
	triples := g.inIndex[id]
	out := make([]Edge, 0, len(triples))
	for _, t := range triples {
		out = append(out, *g.edges[t])
	}
	return out
}

// EdgesFromByKind returns edges from id restricted to kind.
func (g *Graph) EdgesFromByKind(id NodeId, kind EdgeKind) []Edge {
	var out []Edge
	for _, t := range g.outIndex[id] {
		if t.kind == kind {
			out = append(out, *g.edges[t])
		}
	}
	return out
}

// EdgesToByKind returns edges to id restricted to kind.
func (g *Graph) EdgesToByKind(id NodeId, kind EdgeKind) []Edge {
	var out []Edge
	for _, t := range g.inIndex[id] {
		if t.kind == kind {
			out = append(out, *g.edges[t])
		}
	}
	return out
}
