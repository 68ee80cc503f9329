// Package interview drives internal/gapanalysis's highest-scoring nodes
// through an internal/llmadapter Provider and folds the answers back into
// the graph as BusinessContext — the only place an LLM call is allowed to
// mutate the graph, and only that field plus the node's provenance source
// (stamped as interview), never discovery data. This
// keeps "discovery is deterministic" true regardless of whether an
// interview ran.
package interview

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgekit-dev/forge/internal/gapanalysis"
	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/forgekit-dev/forge/internal/llmadapter"
)

const systemPrompt = `You are documenting the architecture of a software system on behalf of its
maintainers. You will be asked short, specific questions about one
component. Answer in one or two plain sentences, from what you know about
systems of this shape — do not ask clarifying questions back, and do not
hedge with "I don't have access to the code"; give your best inference.`

// Config parameterizes an interview run.
type Config struct {
	Provider llmadapter.Provider
	TopN     int // 0 defaults to 5
}

// Outcome records what happened when a node was interviewed.
type Outcome struct {
	NodeId graphmodel.NodeId
	Answer string
	Err    error
}

// Result is the full record of an interview run over a graph.
type Result struct {
	Outcomes []Outcome
}

// Run scores the graph with gapanalysis.Analyze, asks the Provider one
// question per node for each of the top N nodes (naming every
// question-worthy signal in it), and attaches the answer as that node's
// BusinessContext.Notes entry.
// A single node's provider failure doesn't abort the run — every other
// candidate still gets interviewed — mirroring the partial-success policy
// internal/survey applies across repositories.
func Run(ctx context.Context, g *graphmodel.Graph, cfg Config) (*Result, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("interview: no provider configured")
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = 5
	}

	scores := gapanalysis.Analyze(g)
	if len(scores) > topN {
		scores = scores[:topN]
	}

	result := &Result{}
	for _, score := range scores {
		answer, err := interviewOne(ctx, g, cfg.Provider, score)
		result.Outcomes = append(result.Outcomes, Outcome{NodeId: score.NodeId, Answer: answer, Err: err})
	}
	return result, nil
}

func interviewOne(ctx context.Context, g *graphmodel.Graph, provider llmadapter.Provider, score gapanalysis.Score) (string, error) {
	node, ok := g.GetNodeMut(score.NodeId)
	if !ok {
		return "", fmt.Errorf("interview: node %s vanished mid-run", score.NodeId)
	}

	question := questionFor(score)
	answer, err := provider.Ask(ctx, systemPrompt, question)
	if err != nil {
		return "", fmt.Errorf("interview: %s: %w", score.NodeId, err)
	}
	answer = strings.TrimSpace(answer)

	attach(node, score, answer)
	return answer, nil
}

// questionFor phrases one question per node, naming every contributing
// signal so the model addresses the whole gap rather than just the
// dominant one.
func questionFor(score gapanalysis.Score) string {
	var asks []string
	for _, c := range score.Contributions {
		switch c.Reason {
		case gapanalysis.ReasonMissingPurpose:
			asks = append(asks, "what this component's purpose is")
		case gapanalysis.ReasonMissingOwner:
			asks = append(asks, "which team most likely owns it")
		case gapanalysis.ReasonHighCentrality:
			asks = append(asks, "why it's as central to the system as it appears to be")
		case gapanalysis.ReasonImplicitCoupling:
			asks = append(asks, "what risk an implicit coupling to another service carries")
		case gapanalysis.ReasonComplexWithoutGotchas:
			asks = append(asks, "what gotchas a newcomer should know before touching it")
		case gapanalysis.ReasonSharedResourceNoOwner:
			asks = append(asks, "who should own this shared resource")
		}
	}
	if len(asks) == 0 {
		asks = []string{"what this component does"}
	}
	return fmt.Sprintf("For the component %q, briefly explain %s.", score.NodeId, strings.Join(asks, "; "))
}

// attach folds answer into node's BusinessContext, adding it as a Notes
// entry rather than overwriting Purpose/Owner — an interview answer is a
// human-reviewable hint, not a ground-truth replacement for fields a later,
// better-informed pass (or a human) might still set explicitly.
func attach(node *graphmodel.Node, score gapanalysis.Score, answer string) {
	if answer == "" {
		return
	}
	if node.BusinessContext == nil {
		node.BusinessContext = &graphmodel.BusinessContext{}
	}
	note := fmt.Sprintf("interview (score %.2f): %s", score.Value, answer)
	node.BusinessContext.Notes = append(node.BusinessContext.Notes, note)
	node.Metadata.Source = graphmodel.SourceInterview
}
