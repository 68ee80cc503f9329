package render

import (
	"fmt"
	"strings"
)

// Direction is the diagram's layout direction, passed through to the
// rendered text form (Mermaid-style flowchart direction codes).
type Direction string

const (
	DirectionTopDown Direction = "TD"
	DirectionLeftRight Direction = "LR"
)

// Diagram emits a labeled node/edge text form. When budget is non-nil,
// node lines and then edge lines are emitted in the input's order until
// the first line that would exceed it, with a trailing truncation comment
// stating how many nodes and edges were omitted.
func Diagram(in Input, direction Direction, budget *Budget) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	kept := make(map[string]struct{})
	nodesOmitted := 0
	for _, entry := range in.Nodes {
		line := fmt.Sprintf("  %s[%q]\n", sanitizeID(entry.Node.Id.String()), entry.Node.Id.String())
		if budget != nil && !budget.TryAdd(line) {
			nodesOmitted++
			continue
		}
		sb.WriteString(line)
		kept[entry.Node.Id.String()] = struct{}{}
	}

	edgesOmitted := 0
	for _, e := range in.Edges {
		_, sourceKept := kept[e.Source.String()]
		_, targetKept := kept[e.Target.String()]
		if !sourceKept || !targetKept {
			edgesOmitted++
			continue
		}
		line := fmt.Sprintf("  %s -->|%s| %s\n", sanitizeID(e.Source.String()), e.Kind, sanitizeID(e.Target.String()))
		if budget != nil && !budget.TryAdd(line) {
			edgesOmitted++
			continue
		}
		sb.WriteString(line)
	}

	if budget != nil && (nodesOmitted > 0 || edgesOmitted > 0) {
		fmt.Fprintf(&sb, "  %%%% truncated: %d node(s) and %d edge(s) omitted to fit the token budget\n", nodesOmitted, edgesOmitted)
	}

	return sb.String()
}

// sanitizeID replaces characters a flowchart node id can't contain.
func sanitizeID(id string) string {
	r := strings.NewReplacer(":", "_", "/", "_", "-", "_", ".", "_")
	return r.Replace(id)
}
