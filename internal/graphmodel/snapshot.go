package graphmodel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/forgekit-dev/forge/internal/apperrors"
)

const schemaVersion = "graph-v1"

// GraphMetadata carries snapshot-level provenance, distinct from any one
// node or edge's metadata.
type GraphMetadata struct {
	ForgeVersion     string    `json:"tool_version"`
	CreatedAt        time.Time `json:"created_at"`
	ModifiedAt       time.Time `json:"modified_at"`
	SurveyCount      int       `json:"survey_count"`
	LastSurveyConfig string    `json:"last_survey_config,omitempty"`
}

// GraphSnapshot is the on-disk, schema-versioned serialization of a Graph.
type GraphSnapshot struct {
	Schema   string        `json:"schema"`
	Metadata GraphMetadata `json:"metadata"`
	Nodes    []Node        `json:"nodes"`
	Edges    []Edge        `json:"edges"`
}

// Snapshot captures the graph's current state for persistence.
func (g *Graph) Snapshot(meta GraphMetadata) GraphSnapshot {
	meta.ModifiedAt = time.Now().UTC()
	return GraphSnapshot{
		Schema:   schemaVersion,
		Metadata: meta,
		Nodes:    g.Nodes(),
		Edges:    g.Edges(),
	}
}

// ToJSON serializes the snapshot with stable, indented formatting.
func (s GraphSnapshot) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, apperrors.Serialization(err)
	}
	return data, nil
}

// FromJSON parses a previously serialized snapshot.
func FromJSON(data []byte) (GraphSnapshot, error) {
	var s GraphSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return GraphSnapshot{}, apperrors.Deserialization(err, "malformed json")
	}
	if s.Schema != schemaVersion {
		return GraphSnapshot{}, apperrors.Deserialization(nil, "unsupported schema: "+s.Schema)
	}
	return s, nil
}

// Save writes the snapshot to path, writing to a sibling temp file first
// and renaming into place so a crash mid-write never leaves a truncated
// graph file behind.
func (s GraphSnapshot) Save(path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".graph-*.tmp")
	if err != nil {
		return apperrors.PersistenceIO(err, path)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperrors.PersistenceIO(err, path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperrors.PersistenceIO(err, path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperrors.PersistenceIO(err, path)
	}
	return nil
}

// LoadSnapshot reads and parses a snapshot from path.
func LoadSnapshot(path string) (GraphSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GraphSnapshot{}, apperrors.PersistenceIO(err, path)
	}
	return FromJSON(data)
}

// ToGraph rebuilds a Graph from the snapshot's node and edge lists. Edges
// are added with AddEdge, so a corrupt snapshot referencing an edge whose
// endpoint node is missing surfaces as an error rather than a silent drop.
func (s GraphSnapshot) ToGraph() (*Graph, error) {
	g := NewGraph()
	for _, n := range s.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range s.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}
