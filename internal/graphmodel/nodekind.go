// Package graphmodel implements the typed knowledge-graph data model: node
// identities, typed nodes and edges, and the in-process directed multigraph
// that stores them. Grounded on the original Rust `forge-graph` crate.
package graphmodel

// NodeKind is the closed set of entity categories the graph can hold.
type NodeKind string

const (
	KindService       NodeKind = "service"
	KindAPI           NodeKind = "api"
	KindDatabase      NodeKind = "database"
	KindQueue         NodeKind = "queue"
	KindCloudResource NodeKind = "cloud_resource"
)

var validNodeKinds = map[NodeKind]struct{}{
	KindService:       {},
	KindAPI:           {},
	KindDatabase:      {},
	KindQueue:         {},
	KindCloudResource: {},
}

// Valid reports whether k is one of the closed NodeKind values.
func (k NodeKind) Valid() bool {
	_, ok := validNodeKinds[k]
	return ok
}

func (k NodeKind) String() string { return string(k) }
