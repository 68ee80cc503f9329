package graphmodel

import (
	"time"

	"github.com/forgekit-dev/forge/internal/apperrors"
)

// DiscoverySource records how a node's existence was learned.
type DiscoverySource string

const (
	SourceJavaScriptParser DiscoverySource = "javascript_parser"
	SourcePythonParser     DiscoverySource = "python_parser"
	SourceTerraformParser  DiscoverySource = "terraform_parser"
	SourceManual           DiscoverySource = "manual"
	SourceCouplingAnalysis DiscoverySource = "coupling_analysis"
	SourceInterview        DiscoverySource = "interview"
)

// BusinessContext carries the human-authored knowledge a node accumulates
// over interviews: why it exists, who owns it, and pitfalls worth knowing.
type BusinessContext struct {
	Purpose  string   `json:"purpose,omitempty"`
	Owner    string   `json:"owner,omitempty"`
	History  string   `json:"history,omitempty"`
	Gotchas  []string `json:"gotchas,omitempty"`
	Notes    []string `json:"notes,omitempty"`
}

// IsEmpty reports whether every field is at its zero value.
func (b BusinessContext) IsEmpty() bool {
	return b.Purpose == "" && b.Owner == "" && b.History == "" && len(b.Gotchas) == 0 && len(b.Notes) == 0
}

// NodeMetadata tracks provenance and timestamps, separate from the node's
// domain attributes.
type NodeMetadata struct {
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Source     DiscoverySource `json:"source"`
	CommitSHA  string          `json:"commit_sha,omitempty"`
	SourceFile string          `json:"source_file,omitempty"`
	SourceLine int             `json:"source_line,omitempty"`
}

// Node is a single vertex in the knowledge graph: a stable identity, a bag
// of typed attributes, optional business context, and provenance metadata.
// Kind always agrees with the kind parsed from Id.
type Node struct {
	Id              NodeId                    `json:"id"`
	Kind            NodeKind                  `json:"type"`
	DisplayName     string                    `json:"display_name"`
	Attributes      map[string]AttributeValue `json:"attributes"`
	BusinessContext *BusinessContext          `json:"business_context,omitempty"`
	Metadata        NodeMetadata              `json:"metadata"`
}

// NodeBuilder assembles a Node fluently, mirroring the Rust NodeBuilder.
type NodeBuilder struct {
	kind        NodeKind
	namespace   string
	name        string
	displayName string
	attrs       map[string]AttributeValue
	bizContext  *BusinessContext
	source      DiscoverySource
	commitSHA   string
	sourceFile  string
	sourceLine  int
}

// NewNodeBuilder starts a builder for a node of the given kind, namespace,
// and name. DisplayName defaults to name unless overridden via
// DisplayName. Source defaults to SourceManual.
func NewNodeBuilder(kind NodeKind, namespace, name string) *NodeBuilder {
	return &NodeBuilder{
		kind:        kind,
		namespace:   namespace,
		name:        name,
		displayName: name,
		attrs:       make(map[string]AttributeValue),
		source:      SourceManual,
	}
}

// DisplayName overrides the node's human-readable name, which otherwise
// defaults to the identity's name segment.
func (b *NodeBuilder) DisplayName(name string) *NodeBuilder {
	b.displayName = name
	return b
}

func (b *NodeBuilder) Attribute(key string, value AttributeValue) *NodeBuilder {
	b.attrs[key] = value
	return b
}

func (b *NodeBuilder) Attributes(attrs map[string]AttributeValue) *NodeBuilder {
	for k, v := range attrs {
		b.attrs[k] = v
	}
	return b
}

func (b *NodeBuilder) Context(ctx BusinessContext) *NodeBuilder {
	b.bizContext = &ctx
	return b
}

func (b *NodeBuilder) Source(s DiscoverySource) *NodeBuilder {
	b.source = s
	return b
}

func (b *NodeBuilder) CommitSHA(sha string) *NodeBuilder {
	b.commitSHA = sha
	return b
}

func (b *NodeBuilder) SourceFile(path string) *NodeBuilder {
	b.sourceFile = path
	return b
}

func (b *NodeBuilder) SourceLine(line int) *NodeBuilder {
	b.sourceLine = line
	return b
}

// Build validates the identity segments and produces the Node, stamping
// CreatedAt and UpdatedAt to now.
func (b *NodeBuilder) Build() (Node, error) {
	id, err := NewNodeId(b.kind, b.namespace, b.name)
	if err != nil {
		return Node{}, err
	}
	if b.displayName == "" {
		return Node{}, apperrors.MissingDisplayName(id.String())
	}
	now := time.Now().UTC()
	return Node{
		Id:              id,
		Kind:            id.Kind(),
		DisplayName:     b.displayName,
		Attributes:      b.attrs,
		BusinessContext: b.bizContext,
		Metadata: NodeMetadata{
			CreatedAt:  now,
			UpdatedAt:  now,
			Source:     b.source,
			CommitSHA:  b.commitSHA,
			SourceFile: b.sourceFile,
			SourceLine: b.sourceLine,
		},
	}, nil
}

// Merge folds incoming into the receiver per the upsert rule: incoming
// attributes win on key conflict, the attribute set is the union, incoming's
// business context replaces the existing one only if present, and
// UpdatedAt always advances to incoming's stamp.
func (n *Node) Merge(incoming Node) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]AttributeValue)
	}
	for k, v := range incoming.Attributes {
		n.Attributes[k] = v
	}
	if incoming.BusinessContext != nil {
		n.BusinessContext = incoming.BusinessContext
	}
	n.Metadata.UpdatedAt = incoming.Metadata.UpdatedAt
	if incoming.Metadata.CommitSHA != "" {
		n.Metadata.CommitSHA = incoming.Metadata.CommitSHA
	}
	if incoming.Metadata.SourceFile != "" {
		n.Metadata.SourceFile = incoming.Metadata.SourceFile
		n.Metadata.SourceLine = incoming.Metadata.SourceLine
	}
}
