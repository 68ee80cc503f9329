// Package survey fans a build out across repositories and folds the
// per-repo graphs into one master graph, grounded on the teacher
// orchestrator's errgroup-based phase pattern, re-scoped from a single
// GitHub extraction pipeline to many independent repository builds.
package survey

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/forgekit-dev/forge/internal/builder"
	"github.com/forgekit-dev/forge/internal/extract/hcl"
	"github.com/forgekit-dev/forge/internal/extract/jsts"
	"github.com/forgekit-dev/forge/internal/extract/python"
	"github.com/forgekit-dev/forge/internal/extract/walk"
	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/forgekit-dev/forge/internal/logging"
)

// Target is one repository to survey: a local checkout path and the
// namespace label (typically "org/name") its nodes are keyed under.
type Target struct {
	Namespace string
	RepoPath  string
}

// Config parameterizes a survey run.
type Config struct {
	Targets        []Target
	MaxConcurrency int // 0 defaults to 4
}

// Result pairs the merged graph with per-target errors that didn't abort
// the survey (a single repository's extractors failing entirely still
// lets every other repository complete, per the partial-success policy).
type Result struct {
	Graph      *graphmodel.Graph
	PerTarget  map[string]error
}

// Run builds one Builder per target concurrently, then folds every
// resulting graph into a master graph via upsert — safe because upsert is
// associative and commutative on disjoint id spaces — and runs implicit
// coupling inference once more over the merged graph, since cross-repo
// resource sharing can only be observed once every repo's discoveries are
// present.
func Run(ctx context.Context, cfg Config, log *logging.Logger) (*Result, error) {
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	type perTargetGraph struct {
		namespace string
		graph     *graphmodel.Graph
		err       error
	}
	results := make([]perTargetGraph, len(cfg.Targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, target := range cfg.Targets {
		i, target := i, target
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = perTargetGraph{namespace: target.Namespace, err: gctx.Err()}
				return nil
			default:
			}
			b, err := buildOne(target, log)
			results[i] = perTargetGraph{namespace: target.Namespace, graph: b, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	master := graphmodel.NewGraph()
	perTarget := make(map[string]error, len(results))
	for _, r := range results {
		perTarget[r.namespace] = r.err
		if r.graph == nil {
			continue
		}
		for _, n := range r.graph.Nodes() {
			master.UpsertNode(n)
		}
		for _, e := range r.graph.Edges() {
			master.UpsertEdge(e)
		}
	}

	mergedNamespace := "survey"
	if len(cfg.Targets) == 1 {
		mergedNamespace = cfg.Targets[0].Namespace
	}
	merged := builder.New(mergedNamespace)
	rebuildAccessIndex(merged, master)
	if err := merged.InferImplicitCoupling(); err != nil {
		return nil, err
	}

	return &Result{Graph: master, PerTarget: perTarget}, nil
}

// rebuildAccessIndex re-derives, from the merged graph's edges, which
// services access which resource without an owns edge — the state
// InferImplicitCoupling needs but that a fresh builder wrapping an
// already-built graph doesn't carry.
func rebuildAccessIndex(b *builder.Builder, g *graphmodel.Graph) {
	b.AttachGraph(g)
	owned := make(map[graphmodel.NodeId]struct{})
	for _, e := range g.EdgesByKind(graphmodel.EdgeOwns) {
		owned[e.Target] = struct{}{}
	}
	for _, kind := range []graphmodel.EdgeKind{
		graphmodel.EdgeReads, graphmodel.EdgeWrites,
		graphmodel.EdgeReadsShared, graphmodel.EdgeWritesShared,
		graphmodel.EdgePublishes, graphmodel.EdgeSubscribes,
	} {
		for _, e := range g.EdgesByKind(kind) {
			if _, isOwned := owned[e.Target]; isOwned {
				b.MarkOwned(e.Target)
				continue
			}
			b.RecordAccess(e.Source, e.Target)
		}
	}
}

func buildOne(target Target, log *logging.Logger) (*graphmodel.Graph, error) {
	extractors := []walk.Extractor{jsts.New(), python.New(), hcl.New()}
	events, err := walk.Repo(target.RepoPath, extractors, log)
	if err != nil {
		return nil, err
	}
	b := builder.New(target.Namespace)
	if err := b.FoldAll(events); err != nil {
		return nil, err
	}
	if err := b.InferImplicitCoupling(); err != nil {
		return nil, err
	}
	return b.Graph(), nil
}
