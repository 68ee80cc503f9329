package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forgekit-dev/forge/internal/graphmodel"
)

// DetailLevel controls how much per-node detail Markdown sections carry.
type DetailLevel int

const (
	DetailSummary DetailLevel = iota
	DetailStandard
	DetailFull
)

// Markdown renders in as one section per service, with its outgoing edges
// grouped by kind. When budget is non-nil, sections are emitted in the
// input's order until the next section would exceed it, followed by a
// visible truncation marker naming how many sections were omitted.
func Markdown(in Input, level DetailLevel, budget *Budget) string {
	var sb strings.Builder
	sb.WriteString("# Knowledge Graph\n\n")

	services := make([]ScoredEntry, 0)
	resources := make([]ScoredEntry, 0)
	for _, entry := range in.Nodes {
		if entry.Node.Id.Kind() == graphmodel.KindService {
			services = append(services, entry)
		} else {
			resources = append(resources, entry)
		}
	}

	omitted := 0
	for _, entry := range services {
		section := renderServiceSection(entry, in, level)
		if budget != nil {
			if !budget.TryAdd(section) {
				omitted++
				continue
			}
		}
		sb.WriteString(section)
	}

	if len(resources) > 0 {
		resSection := renderResourceList(resources)
		if budget == nil || budget.TryAdd(resSection) {
			sb.WriteString(resSection)
		} else {
			omitted++
		}
	}

	if budget != nil && (omitted > 0 || budget.Dropped() > 0) {
		fmt.Fprintf(&sb, "\n> truncated: %d section(s) omitted to fit the token budget\n", omitted)
	}

	return sb.String()
}

func renderServiceSection(entry ScoredEntry, in Input, level DetailLevel) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", entry.Node.Id.String())
	if entry.HasScore {
		fmt.Fprintf(&sb, "relevance: %.2f\n\n", entry.Relevance)
	}

	if level >= DetailStandard {
		if lang, ok := entry.Node.Attributes["language"]; ok {
			s, _ := lang.StringVal()
			fmt.Fprintf(&sb, "- language: %s\n", s)
		}
		if fw, ok := entry.Node.Attributes["framework"]; ok {
			s, _ := fw.StringVal()
			fmt.Fprintf(&sb, "- framework: %s\n", s)
		}
	}

	if level == DetailFull && entry.Node.BusinessContext != nil {
		bc := entry.Node.BusinessContext
		if bc.Purpose != "" {
			fmt.Fprintf(&sb, "- purpose: %s\n", bc.Purpose)
		}
		if bc.Owner != "" {
			fmt.Fprintf(&sb, "- owner: %s\n", bc.Owner)
		}
		for _, g := range bc.Gotchas {
			fmt.Fprintf(&sb, "- gotcha: %s\n", g)
		}
	}

	edges := in.EdgesForNode(entry.Node.Id)
	if len(edges) > 0 {
		sb.WriteString("\nedges:\n\n")
		byKind := make(map[graphmodel.EdgeKind][]graphmodel.Edge)
		for _, e := range edges {
			byKind[e.Kind] = append(byKind[e.Kind], e)
		}
		kinds := make([]graphmodel.EdgeKind, 0, len(byKind))
		for k := range byKind {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, k := range kinds {
			fmt.Fprintf(&sb, "- **%s**\n", k)
			for _, e := range byKind[k] {
				fmt.Fprintf(&sb, "  - %s", e.Target.String())
				if level == DetailFull && len(e.Metadata.Evidence) > 0 {
					fmt.Fprintf(&sb, " (%s)", strings.Join(e.Metadata.Evidence, "; "))
				}
				sb.WriteString("\n")
			}
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func renderResourceList(resources []ScoredEntry) string {
	var sb strings.Builder
	sb.WriteString("## Resources\n\n")
	for _, entry := range resources {
		fmt.Fprintf(&sb, "- %s\n", entry.Node.Id.String())
	}
	sb.WriteString("\n")
	return sb.String()
}
