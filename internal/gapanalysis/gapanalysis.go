// Package gapanalysis scores graph nodes by how much business context they
// are missing, to pick interview candidates. Grounded on
// original_source/forge-llm/src/interview.rs's analyze_gaps family: the
// same per-service signal table and shared-resource-ownership check,
// reimplemented against graphmodel.Graph instead of the Rust ForgeGraph.
package gapanalysis

import (
	"math"
	"sort"

	"github.com/forgekit-dev/forge/internal/graphmodel"
)

// Reason tags why a node accumulated gap score, carried through to the
// interview subsystem so it can phrase a targeted question.
type Reason string

const (
	ReasonMissingPurpose        Reason = "missing_purpose"
	ReasonMissingOwner          Reason = "missing_owner"
	ReasonHighCentrality        Reason = "high_centrality"
	ReasonImplicitCoupling      Reason = "implicit_coupling"
	ReasonComplexWithoutGotchas Reason = "complex_without_gotchas"
	ReasonSharedResourceNoOwner Reason = "shared_resource_without_owner"
)

// Contribution is one scored signal behind a Score, kept separate from the
// running total so callers can explain a score instead of just showing it.
type Contribution struct {
	Reason Reason
	Amount float64
	Detail string
}

// Score is a node's accumulated gap score, clipped at 1.0.
type Score struct {
	NodeId        graphmodel.NodeId
	Value         float64
	Contributions []Contribution
}

func (s *Score) add(reason Reason, amount float64, detail string) {
	s.Value += amount
	if s.Value > 1.0 {
		s.Value = 1.0
	}
	s.Contributions = append(s.Contributions, Contribution{Reason: reason, Amount: amount, Detail: detail})
}

// Config carries the weights and thresholds behind each signal, all
// configurable per spec: "Thresholds and weights are configurable."
type Config struct {
	MissingPurposeScore        float64
	MissingOwnerScore          float64
	MaxCentralityScore         float64
	HighCentralityThreshold    int
	ImplicitCouplingScore      float64
	ComplexWithoutGotchasScore float64
	ComplexityThreshold        int
	SharedResourceScore        float64
}

// DefaultConfig mirrors the weighted-signal table: 0.30 missing purpose,
// 0.20 missing owner, up to 0.20 degree-scaled centrality from 5 edges on,
// 0.15 implicit coupling, 0.10 for 3+ edges with no recorded gotchas, and
// 0.25 for a shared, unowned database or queue.
func DefaultConfig() Config {
	return Config{
		MissingPurposeScore:        0.30,
		MissingOwnerScore:          0.20,
		MaxCentralityScore:         0.20,
		HighCentralityThreshold:    5,
		ImplicitCouplingScore:      0.15,
		ComplexWithoutGotchasScore: 0.10,
		ComplexityThreshold:        3,
		SharedResourceScore:        0.25,
	}
}

// accessKinds are the edge kinds that count as a service "accessing" a
// database or queue, for the shared-resource-without-owner check. OWNS and
// USES don't count: an owner isn't an accessor, and USES targets only
// cloud resources.
var accessKinds = map[graphmodel.EdgeKind]struct{}{
	graphmodel.EdgeReads:        {},
	graphmodel.EdgeWrites:       {},
	graphmodel.EdgeReadsShared:  {},
	graphmodel.EdgeWritesShared: {},
	graphmodel.EdgePublishes:    {},
	graphmodel.EdgeSubscribes:   {},
}

// Analyze scores every service, database, and queue node in g using
// DefaultConfig, returning only positive-score nodes sorted descending.
func Analyze(g *graphmodel.Graph) []Score {
	return AnalyzeWithConfig(g, DefaultConfig())
}

// AnalyzeWithConfig is Analyze with an explicit Config.
func AnalyzeWithConfig(g *graphmodel.Graph, cfg Config) []Score {
	scores := make(map[graphmodel.NodeId]*Score)

	for _, svc := range g.NodesByKind(graphmodel.KindService) {
		analyzeService(g, svc, cfg, scores)
	}
	for _, db := range g.NodesByKind(graphmodel.KindDatabase) {
		analyzeSharedResource(g, db, cfg, scores)
	}
	for _, q := range g.NodesByKind(graphmodel.KindQueue) {
		analyzeSharedResource(g, q, cfg, scores)
	}

	out := make([]Score, 0, len(scores))
	for _, s := range scores {
		if s.Value > 0 {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].NodeId.String() < out[j].NodeId.String()
	})
	return out
}

func analyzeService(g *graphmodel.Graph, svc graphmodel.Node, cfg Config, scores map[graphmodel.NodeId]*Score) {
	score := &Score{NodeId: svc.Id}

	hasPurpose := svc.BusinessContext != nil && svc.BusinessContext.Purpose != ""
	if !hasPurpose {
		score.add(ReasonMissingPurpose, cfg.MissingPurposeScore, "")
	}

	hasOwner := svc.BusinessContext != nil && svc.BusinessContext.Owner != ""
	if !hasOwner {
		score.add(ReasonMissingOwner, cfg.MissingOwnerScore, "")
	}

	totalEdges := len(g.EdgesFrom(svc.Id)) + len(g.EdgesTo(svc.Id))
	if totalEdges >= cfg.HighCentralityThreshold {
		centralityScore := cfg.MaxCentralityScore * math.Min(1.0, float64(totalEdges)/10.0)
		score.add(ReasonHighCentrality, centralityScore, "")
	}

	if coupled := findImplicitCouplings(g, svc.Id); len(coupled) > 0 {
		score.add(ReasonImplicitCoupling, cfg.ImplicitCouplingScore, "")
	}

	hasGotchas := svc.BusinessContext != nil && len(svc.BusinessContext.Gotchas) > 0
	if !hasGotchas && totalEdges >= cfg.ComplexityThreshold {
		score.add(ReasonComplexWithoutGotchas, cfg.ComplexWithoutGotchasScore, "")
	}

	if score.Value > 0 {
		scores[svc.Id] = score
	}
}

// analyzeSharedResource flags a database or queue read/written by two or
// more distinct services with no incoming OWNS edge.
func analyzeSharedResource(g *graphmodel.Graph, resource graphmodel.Node, cfg Config, scores map[graphmodel.NodeId]*Score) {
	accessors := resourceAccessors(g, resource.Id)
	if len(accessors) <= 1 {
		return
	}

	hasOwner := false
	for _, e := range g.EdgesTo(resource.Id) {
		if e.Kind == graphmodel.EdgeOwns {
			hasOwner = true
			break
		}
	}
	if hasOwner {
		return
	}

	score, ok := scores[resource.Id]
	if !ok {
		score = &Score{NodeId: resource.Id}
		scores[resource.Id] = score
	}
	score.add(ReasonSharedResourceNoOwner, cfg.SharedResourceScore, "")
}

// resourceAccessors returns the distinct services with an access edge
// (read, write, shared variants, publish, or subscribe) into resource.
func resourceAccessors(g *graphmodel.Graph, resource graphmodel.NodeId) []graphmodel.NodeId {
	seen := make(map[graphmodel.NodeId]struct{})
	var out []graphmodel.NodeId
	for _, e := range g.EdgesTo(resource) {
		if _, ok := accessKinds[e.Kind]; !ok {
			continue
		}
		if _, dup := seen[e.Source]; dup {
			continue
		}
		seen[e.Source] = struct{}{}
		out = append(out, e.Source)
	}
	return out
}

// findImplicitCouplings returns the services svc shares an
// IMPLICITLY_COUPLED edge with, in either direction.
func findImplicitCouplings(g *graphmodel.Graph, svc graphmodel.NodeId) []graphmodel.NodeId {
	seen := make(map[graphmodel.NodeId]struct{})
	var out []graphmodel.NodeId
	for _, e := range g.EdgesFromByKind(svc, graphmodel.EdgeImplicitlyCoupled) {
		if _, dup := seen[e.Target]; !dup {
			seen[e.Target] = struct{}{}
			out = append(out, e.Target)
		}
	}
	for _, e := range g.EdgesToByKind(svc, graphmodel.EdgeImplicitlyCoupled) {
		if _, dup := seen[e.Source]; !dup {
			seen[e.Source] = struct{}{}
			out = append(out, e.Source)
		}
	}
	return out
}
