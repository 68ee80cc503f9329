// Package builder folds a discovery event stream into a typed knowledge
// graph: it resolves service and resource identity, synthesizes typed
// edges from access-pattern discoveries, and infers implicit coupling
// between services that share an unowned resource.
package builder

import (
	"sort"
	"strings"

	"github.com/forgekit-dev/forge/internal/discovery"
	"github.com/forgekit-dev/forge/internal/graphmodel"
)

// Builder folds discoveries from one repository into a graph. Create one
// Builder per repository and fold the resulting graphs into a master
// graph via Graph.UpsertNode/UpsertEdge, which is the documented safe
// parallelization boundary.
type Builder struct {
	namespace string
	graph     *graphmodel.Graph

	// serviceID is the id of the repo's seed service, used as the edge
	// source for every resource-access discovery folded after it.
	serviceID graphmodel.NodeId
	haveSeed  bool

	// resourceIDs maps a resolved (kind, canonical_name) key to the node
	// id already created for it, enabling cross-language dedup.
	resourceIDs map[string]graphmodel.NodeId
	// syntheticSeq counts per-detection-site synthetic ids for nameless
	// resources, which deliberately never merge.
	syntheticSeq int

	// resourceAccess tracks, for implicit-coupling inference, which
	// services accessed which resource without an owns edge.
	resourceAccess map[graphmodel.NodeId]map[graphmodel.NodeId]struct{}
	owned          map[graphmodel.NodeId]struct{}
}

// New starts a builder for the given namespace (typically the repo's
// "org/name" label, used as every node id's namespace segment).
func New(namespace string) *Builder {
	return &Builder{
		namespace:      namespace,
		graph:          graphmodel.NewGraph(),
		resourceIDs:    make(map[string]graphmodel.NodeId),
		resourceAccess: make(map[graphmodel.NodeId]map[graphmodel.NodeId]struct{}),
		owned:          make(map[graphmodel.NodeId]struct{}),
	}
}

// Fold accretes one discovery into the graph being built. Order matters
// only in that a Service discovery should be folded before the
// discoveries it's associated with rely on a resolved seed service;
// subsequent Service discoveries upsert rather than replace.
func (b *Builder) Fold(d discovery.Discovery) error {
	switch d.Kind {
	case discovery.KindService:
		return b.foldService(*d.Service, d.Source)
	case discovery.KindImport:
		return nil // imports feed dispatch decisions made at extraction time
	case discovery.KindApiCall:
		return b.foldApiCall(*d.ApiCall, d.Source)
	case discovery.KindDatabaseAccess:
		return b.foldDatabaseAccess(*d.DatabaseAccess, d.Source)
	case discovery.KindQueueOperation:
		return b.foldQueueOperation(*d.QueueOperation, d.Source)
	case discovery.KindCloudResourceUsage:
		return b.foldCloudResourceUsage(*d.CloudResourceUsage, d.Source)
	}
	return nil
}

// graphSource maps a discovery's extractor tag to the graph model's
// provenance taxonomy, defaulting to SourceManual for discoveries folded
// without a known extractor origin (synthetic seed services, tests).
func graphSource(s discovery.Source) graphmodel.DiscoverySource {
	switch s {
	case discovery.SourceJavaScriptParser:
		return graphmodel.SourceJavaScriptParser
	case discovery.SourcePythonParser:
		return graphmodel.SourcePythonParser
	case discovery.SourceTerraformParser:
		return graphmodel.SourceTerraformParser
	default:
		return graphmodel.SourceManual
	}
}

// FoldAll folds every discovery in order, stopping only on a graph
// structural error (subsequent per-file extraction failures are handled
// upstream by the walker, not here).
func (b *Builder) FoldAll(events []discovery.Discovery) error {
	for _, d := range events {
		if err := b.Fold(d); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) foldService(s discovery.Service, src discovery.Source) error {
	node, err := graphmodel.NewNodeBuilder(graphmodel.KindService, b.namespace, s.Name).
		Attribute("language", graphmodel.StringValue(s.Language)).
		Attribute("entry_point", graphmodel.StringValue(s.EntryPoint)).
		Source(graphSource(src)).
		SourceFile(s.SourceFile).
		SourceLine(s.SourceLine).
		Build()
	if err != nil {
		return err
	}
	if s.Framework != "" {
		node.Attributes["framework"] = graphmodel.StringValue(s.Framework)
	}
	b.graph.UpsertNode(node)
	if !b.haveSeed {
		b.serviceID = node.Id
		b.haveSeed = true
	}
	return nil
}

// ensureSeedService lazily creates a seed service node when discoveries
// arrive before any explicit Service discovery (a bare script directory
// with no manifest, for instance).
func (b *Builder) ensureSeedService() (graphmodel.NodeId, error) {
	if b.haveSeed {
		return b.serviceID, nil
	}
	node, err := graphmodel.NewNodeBuilder(graphmodel.KindService, b.namespace, b.namespace).Build()
	if err != nil {
		return graphmodel.NodeId{}, err
	}
	b.graph.UpsertNode(node)
	b.serviceID = node.Id
	b.haveSeed = true
	return b.serviceID, nil
}

// resolveResource returns the existing node id for (kind, canonicalName)
// if one exists, or creates one. An empty canonicalName always creates a
// fresh synthetic id scoped to this detection site, since nameless
// resources never merge across sites.
func (b *Builder) resolveResource(kind graphmodel.NodeKind, canonicalName string, attrs map[string]graphmodel.AttributeValue, src discovery.Source, sourceFile string, sourceLine int) (graphmodel.NodeId, bool, error) {
	if canonicalName != "" {
		key := string(kind) + ":" + canonicalName
		if id, ok := b.resourceIDs[key]; ok {
			if n, found := b.graph.GetNodeMut(id); found {
				for k, v := range attrs {
					n.Attributes[k] = v
				}
			}
			return id, false, nil
		}
		node, err := graphmodel.NewNodeBuilder(kind, b.namespace, canonicalName).
			Attributes(attrs).
			Source(graphSource(src)).
			SourceFile(sourceFile).
			SourceLine(sourceLine).
			Build()
		if err != nil {
			return graphmodel.NodeId{}, false, err
		}
		b.graph.UpsertNode(node)
		b.resourceIDs[key] = node.Id
		return node.Id, true, nil
	}

	b.syntheticSeq++
	syntheticName := "unnamed-" + strings.ToLower(string(kind)) + "-" + itoa(b.syntheticSeq)
	node, err := graphmodel.NewNodeBuilder(kind, b.namespace, syntheticName).
		Attributes(attrs).
		Source(graphSource(src)).
		SourceFile(sourceFile).
		SourceLine(sourceLine).
		Build()
	if err != nil {
		return graphmodel.NodeId{}, false, err
	}
	if err := b.graph.AddNode(node); err != nil {
		return graphmodel.NodeId{}, false, err
	}
	return node.Id, true, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func (b *Builder) recordAccess(service, resource graphmodel.NodeId) {
	if b.resourceAccess[resource] == nil {
		b.resourceAccess[resource] = make(map[graphmodel.NodeId]struct{})
	}
	b.resourceAccess[resource][service] = struct{}{}
}

func (b *Builder) foldDatabaseAccess(a discovery.DatabaseAccess, src discovery.Source) error {
	serviceID, err := b.ensureSeedService()
	if err != nil {
		return err
	}
	attrs := map[string]graphmodel.AttributeValue{"db_type": graphmodel.StringValue(a.DBType)}
	resourceID, _, err := b.resolveResource(graphmodel.KindDatabase, a.TableName, attrs, src, a.SourceFile, a.SourceLine)
	if err != nil {
		return err
	}
	b.recordAccess(serviceID, resourceID)

	kind := graphmodel.EdgeReads
	if a.Op == discovery.DBWrite {
		kind = graphmodel.EdgeWrites
	} else if a.Op == discovery.DBReadWrite {
		kind = graphmodel.EdgeWrites
	}
	meta := graphmodel.NewEdgeMetadata().WithReason(a.DetectionMethod)
	edge, err := graphmodel.NewEdge(serviceID, resourceID, kind, meta)
	if err != nil {
		return err
	}
	_, err = b.graph.UpsertEdge(edge)
	return err
}

func (b *Builder) foldQueueOperation(q discovery.QueueOperation, src discovery.Source) error {
	serviceID, err := b.ensureSeedService()
	if err != nil {
		return err
	}
	attrs := map[string]graphmodel.AttributeValue{"queue_type": graphmodel.StringValue(q.QueueType)}
	resourceID, _, err := b.resolveResource(graphmodel.KindQueue, q.QueueName, attrs, src, q.SourceFile, q.SourceLine)
	if err != nil {
		return err
	}
	b.recordAccess(serviceID, resourceID)

	kind := graphmodel.EdgePublishes
	if q.Op == discovery.QueueSubscribe {
		kind = graphmodel.EdgeSubscribes
	}
	edge, err := graphmodel.NewEdge(serviceID, resourceID, kind, graphmodel.NewEdgeMetadata())
	if err != nil {
		return err
	}
	_, err = b.graph.UpsertEdge(edge)
	return err
}

func (b *Builder) foldCloudResourceUsage(c discovery.CloudResourceUsage, src discovery.Source) error {
	serviceID, err := b.ensureSeedService()
	if err != nil {
		return err
	}
	attrs := map[string]graphmodel.AttributeValue{"resource_type": graphmodel.StringValue(c.ResourceType)}
	resourceID, _, err := b.resolveResource(graphmodel.KindCloudResource, c.ResourceName, attrs, src, c.SourceFile, c.SourceLine)
	if err != nil {
		return err
	}
	edge, err := graphmodel.NewEdge(serviceID, resourceID, graphmodel.EdgeUses, graphmodel.NewEdgeMetadata())
	if err != nil {
		return err
	}
	_, err = b.graph.UpsertEdge(edge)
	return err
}

// foldApiCall resolves an outbound call to either an existing service
// (host matches an already-known service's attributes) or a new api node
// keyed by host. Ambiguity (host matches nothing known) is not an error:
// the edge is still created against a freshly synthesized api node, with
// the ambiguity noted in evidence per the builder-warning policy.
func (b *Builder) foldApiCall(a discovery.ApiCall, src discovery.Source) error {
	serviceID, err := b.ensureSeedService()
	if err != nil {
		return err
	}
	host := hostOf(a.Target)
	if host == "" {
		host = "unresolved"
	}

	meta := graphmodel.NewEdgeMetadata().WithHTTP(a.Method, a.Target).WithReason(a.DetectionMethod)
	if host == "unresolved" {
		meta = meta.WithEvidence("target host could not be statically resolved")
	}

	targetID, matched := b.matchKnownService(host)
	if !matched {
		attrs := map[string]graphmodel.AttributeValue{"host": graphmodel.StringValue(host)}
		id, _, err := b.resolveResource(graphmodel.KindAPI, host, attrs, src, a.SourceFile, a.SourceLine)
		if err != nil {
			return err
		}
		targetID = id
	}

	edge, err := graphmodel.NewEdge(serviceID, targetID, graphmodel.EdgeCalls, meta)
	if err != nil {
		return err
	}
	_, err = b.graph.UpsertEdge(edge)
	return err
}

func (b *Builder) matchKnownService(host string) (graphmodel.NodeId, bool) {
	for _, n := range b.graph.NodesByKind(graphmodel.KindService) {
		if n.Id.Name() == host {
			return n.Id, true
		}
	}
	return graphmodel.NodeId{}, false
}

func hostOf(target string) string {
	t := strings.TrimPrefix(target, "https://")
	t = strings.TrimPrefix(t, "http://")
	if i := strings.IndexAny(t, "/?"); i >= 0 {
		t = t[:i]
	}
	if i := strings.Index(t, ":"); i >= 0 {
		t = t[:i]
	}
	return t
}

// MarkOwned records that resource has an incoming OWNS edge, excluding it
// from implicit-coupling inference. Callers wire this from discoveries or
// manual annotations outside the access-pattern discovery stream.
func (b *Builder) MarkOwned(resource graphmodel.NodeId) {
	b.owned[resource] = struct{}{}
}

// InferImplicitCoupling adds an IMPLICITLY_COUPLED edge between every pair
// of distinct services that access the same unowned resource, one edge
// per unordered pair, with evidence naming the shared resources. Safe to
// call repeatedly: re-running after a rebuild on unchanged input produces
// the same edge set (upsert on the (source, target, kind) triple), which
// is the idempotence testable property requires. Call this once after
// every Fold for this builder's repository; internal/survey calls it
// again after folding the master graph, since new resource sharing can
// only appear once all per-repo graphs are merged.
func (b *Builder) InferImplicitCoupling() error {
	pairEvidence := make(map[[2]graphmodel.NodeId][]string)
	for resource, services := range b.resourceAccess {
		if _, owned := b.owned[resource]; owned || len(services) < 2 {
			continue
		}
		ids := make([]graphmodel.NodeId, 0, len(services))
		for s := range services {
			ids = append(ids, s)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				key := [2]graphmodel.NodeId{ids[i], ids[j]}
				pairEvidence[key] = append(pairEvidence[key], resource.String())
			}
		}
	}

	for pair, resources := range pairEvidence {
		meta := graphmodel.NewEdgeMetadata().
			WithReason("implicit coupling via shared unowned resource").
			WithEvidence(resources...)
		edge, err := graphmodel.NewEdge(pair[0], pair[1], graphmodel.EdgeImplicitlyCoupled, meta)
		if err != nil {
			return err
		}
		if _, err := b.graph.UpsertEdge(edge); err != nil {
			return err
		}
	}
	return nil
}

// Graph returns the graph accumulated so far.
func (b *Builder) Graph() *graphmodel.Graph { return b.graph }

// AttachGraph points this builder at an already-built graph (typically a
// merged master graph) so a subsequent InferImplicitCoupling call can run
// over it after RecordAccess/MarkOwned re-derive its access index.
func (b *Builder) AttachGraph(g *graphmodel.Graph) { b.graph = g }

// RecordAccess exposes recordAccess for callers (internal/survey) that
// re-derive the access index from an already-merged graph's edges rather
// than by folding discoveries directly.
func (b *Builder) RecordAccess(service, resource graphmodel.NodeId) {
	b.recordAccess(service, resource)
}
