package graphmodel

import (
	"time"

	"github.com/forgekit-dev/forge/internal/apperrors"
)

// EdgeKind is the closed set of typed relationships between nodes.
type EdgeKind string

const (
	EdgeCalls             EdgeKind = "CALLS"
	EdgeOwns              EdgeKind = "OWNS"
	EdgeReads             EdgeKind = "READS"
	EdgeWrites            EdgeKind = "WRITES"
	EdgePublishes         EdgeKind = "PUBLISHES"
	EdgeSubscribes        EdgeKind = "SUBSCRIBES"
	EdgeUses              EdgeKind = "USES"
	EdgeReadsShared       EdgeKind = "READS_SHARED"
	EdgeWritesShared      EdgeKind = "WRITES_SHARED"
	EdgeImplicitlyCoupled EdgeKind = "IMPLICITLY_COUPLED"
)

// validSourceKinds and validTargetKinds enumerate, per edge kind, which node
// kinds may sit at each end. A kind absent from a map admits no NodeKind;
// every EdgeKind, IMPLICITLY_COUPLED (services to services only) included,
// is listed explicitly below.
var validSourceKinds = map[EdgeKind]map[NodeKind]struct{}{
	EdgeCalls:             {KindService: {}},
	EdgeOwns:              {KindService: {}},
	EdgeReads:             {KindService: {}},
	EdgeWrites:            {KindService: {}},
	EdgePublishes:         {KindService: {}},
	EdgeSubscribes:        {KindService: {}},
	EdgeUses:              {KindService: {}},
	EdgeReadsShared:       {KindService: {}},
	EdgeWritesShared:      {KindService: {}},
	EdgeImplicitlyCoupled: {KindService: {}},
}

var validTargetKinds = map[EdgeKind]map[NodeKind]struct{}{
	EdgeCalls:             {KindAPI: {}, KindService: {}},
	EdgeOwns:              {KindDatabase: {}, KindQueue: {}, KindCloudResource: {}},
	EdgeReads:             {KindDatabase: {}},
	EdgeWrites:            {KindDatabase: {}},
	EdgePublishes:         {KindQueue: {}},
	EdgeSubscribes:        {KindQueue: {}},
	EdgeUses:              {KindCloudResource: {}},
	EdgeReadsShared:       {KindDatabase: {}, KindQueue: {}},
	EdgeWritesShared:      {KindDatabase: {}, KindQueue: {}},
	EdgeImplicitlyCoupled: {KindService: {}},
}

// Valid reports whether k is one of the closed EdgeKind values.
func (k EdgeKind) Valid() bool {
	_, ok := validSourceKinds[k]
	return ok
}

// IsDirectional reports whether the edge has meaningful direction.
// IMPLICITLY_COUPLED is the sole symmetric relationship.
func (k EdgeKind) IsDirectional() bool {
	return k != EdgeImplicitlyCoupled
}

func (k EdgeKind) admitsSource(kind NodeKind) bool {
	set, ok := validSourceKinds[k]
	if !ok {
		return false
	}
	_, admitted := set[kind]
	return admitted
}

func (k EdgeKind) admitsTarget(kind NodeKind) bool {
	set, ok := validTargetKinds[k]
	if !ok {
		return false
	}
	_, admitted := set[kind]
	return admitted
}

// EdgeMetadata carries evidence and provenance for why an edge was asserted.
type EdgeMetadata struct {
	Confidence    *float64 `json:"confidence,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Evidence      []string `json:"evidence,omitempty"`
	HTTPMethod    string   `json:"http_method,omitempty"`
	EndpointPath  string   `json:"endpoint_path,omitempty"`
	DiscoveredAt  time.Time `json:"discovered_at"`
	Confirmed     bool     `json:"confirmed"`
}

func NewEdgeMetadata() EdgeMetadata {
	return EdgeMetadata{DiscoveredAt: time.Now().UTC()}
}

func (m EdgeMetadata) WithConfidence(c float64) EdgeMetadata {
	m.Confidence = &c
	return m
}

func (m EdgeMetadata) WithReason(reason string) EdgeMetadata {
	m.Reason = reason
	return m
}

func (m EdgeMetadata) WithEvidence(evidence ...string) EdgeMetadata {
	m.Evidence = append(m.Evidence, evidence...)
	return m
}

func (m EdgeMetadata) WithHTTP(method, path string) EdgeMetadata {
	m.HTTPMethod = method
	m.EndpointPath = path
	return m
}

func (m EdgeMetadata) Confirm() EdgeMetadata {
	m.Confirmed = true
	return m
}

// Edge is a typed relationship between two nodes, identified for dedup
// purposes by the (Source, Target, Kind) triple.
type Edge struct {
	Source   NodeId       `json:"source"`
	Target   NodeId       `json:"target"`
	Kind     EdgeKind     `json:"type"`
	Metadata EdgeMetadata `json:"metadata"`
}

// NewEdge validates source/target kind compatibility against kind's tables
// before constructing the edge.
func NewEdge(source, target NodeId, kind EdgeKind, metadata EdgeMetadata) (Edge, error) {
	if !kind.Valid() {
		return Edge{}, apperrors.InvalidKind(string(kind))
	}
	if !kind.admitsSource(source.Kind()) {
		return Edge{}, apperrors.InvalidSourceKind(string(source.Kind()), string(kind))
	}
	if !kind.admitsTarget(target.Kind()) {
		return Edge{}, apperrors.InvalidTargetKind(string(target.Kind()), string(kind))
	}
	return Edge{Source: source, Target: target, Kind: kind, Metadata: metadata}, nil
}

// NewEdgeUnchecked builds an edge without kind-compatibility validation, for
// callers (tests, inference passes that already hold the invariant) that
// have independently established it holds.
func NewEdgeUnchecked(source, target NodeId, kind EdgeKind, metadata EdgeMetadata) Edge {
	return Edge{Source: source, Target: target, Kind: kind, Metadata: metadata}
}

// triple is the dedup key: edges are unique on (source, target, kind).
type edgeTriple struct {
	source NodeId
	target NodeId
	kind   EdgeKind
}

func (e Edge) triple() edgeTriple {
	return edgeTriple{source: e.Source, target: e.Target, kind: e.Kind}
}
