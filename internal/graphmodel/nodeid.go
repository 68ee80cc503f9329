package graphmodel

import (
	"strings"

	"github.com/forgekit-dev/forge/internal/apperrors"
)

const maxSegmentLength = 256

// NodeId is the canonical "{kind}:{namespace}:{name}" string identifying a
// node across languages and repositories. It is immutable once constructed.
type NodeId struct {
	value string
}

// NewNodeId validates namespace and name and builds the canonical id for
// kind. Returns an *apperrors.Error on any validation failure.
func NewNodeId(kind NodeKind, namespace, name string) (NodeId, error) {
	if !kind.Valid() {
		return NodeId{}, apperrors.InvalidKind(string(kind))
	}
	if err := validateSegment(namespace); err != nil {
		return NodeId{}, err
	}
	if err := validateSegment(name); err != nil {
		return NodeId{}, err
	}
	return NodeId{value: string(kind) + ":" + namespace + ":" + name}, nil
}

// ParseNodeId parses an existing canonical string, validating the kind
// segment but not re-validating namespace/name contents (they were already
// validated at construction time by the invariant that only NewNodeId or a
// prior successful Parse ever produces this string).
func ParseNodeId(s string) (NodeId, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return NodeId{}, apperrors.InvalidFormat(s)
	}
	kind := NodeKind(parts[0])
	if !kind.Valid() {
		return NodeId{}, apperrors.InvalidKind(parts[0])
	}
	if parts[1] == "" || parts[2] == "" {
		return NodeId{}, apperrors.EmptySegment(s)
	}
	return NodeId{value: s}, nil
}

func validateSegment(s string) error {
	if s == "" {
		return apperrors.EmptySegment(s)
	}
	if strings.Contains(s, ":") {
		return apperrors.InvalidCharacter(s)
	}
	if len(s) > maxSegmentLength {
		return apperrors.TooLong(s)
	}
	return nil
}

// Kind returns the node kind parsed from the id's first segment.
func (id NodeId) Kind() NodeKind {
	i := strings.IndexByte(id.value, ':')
	if i < 0 {
		return ""
	}
	return NodeKind(id.value[:i])
}

// Namespace returns the id's second segment.
func (id NodeId) Namespace() string {
	parts := strings.SplitN(id.value, ":", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Name returns the id's third segment.
func (id NodeId) Name() string {
	parts := strings.SplitN(id.value, ":", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// String returns the canonical "{kind}:{namespace}:{name}" form.
func (id NodeId) String() string { return id.value }

// IsZero reports whether id was never constructed.
func (id NodeId) IsZero() bool { return id.value == "" }

// MarshalJSON emits the canonical string form.
func (id NodeId) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON parses the canonical string form via ParseNodeId.
func (id *NodeId) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseNodeId(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
