package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/forgekit-dev/forge/internal/gapanalysis"
	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/forgekit-dev/forge/internal/graphquery"
	"github.com/forgekit-dev/forge/internal/render"
)

// ExtractSubgraphTool implements forge.extract_subgraph: a relevance-decayed
// neighborhood expansion from one or more seed nodes, the MCP-facing wrapper
// around internal/graphquery.ExtractSubgraph.
type ExtractSubgraphTool struct {
	Graph *graphmodel.Graph
}

func (t *ExtractSubgraphTool) Execute(_ context.Context, args map[string]any) (any, error) {
	rawSeeds, ok := args["seeds"].([]any)
	if !ok || len(rawSeeds) == 0 {
		return nil, fmt.Errorf("'seeds' is required and must be a non-empty array of node ids")
	}

	seeds := make([]graphmodel.NodeId, 0, len(rawSeeds))
	seedStrs := make([]string, 0, len(rawSeeds))
	for _, raw := range rawSeeds {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("each seed must be a string node id")
		}
		id, err := graphmodel.ParseNodeId(s)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", s, err)
		}
		seeds = append(seeds, id)
		seedStrs = append(seedStrs, s)
	}

	maxDepth := 2
	if v, ok := asInt(args["max_depth"]); ok {
		maxDepth = v
	}
	minRelevance := 0.0
	if v, ok := args["min_relevance"].(float64); ok {
		minRelevance = v
	}
	includeCouplings := true
	if v, ok := args["include_implicit_couplings"].(bool); ok {
		includeCouplings = v
	}

	sub := graphquery.ExtractSubgraph(t.Graph, graphquery.SubgraphConfig{
		Seeds:                    seeds,
		MaxDepth:                 maxDepth,
		MinRelevance:             minRelevance,
		IncludeImplicitCouplings: includeCouplings,
	})

	in := render.FromSubgraph(sub, render.QueryInfo{Kind: render.QuerySubgraph, Seeds: seedStrs, MaxDepth: maxDepth})

	var budget *render.Budget
	if v, ok := asInt(args["token_budget"]); ok && v > 0 {
		budget = render.NewBudget(v)
	}

	raw, err := render.JSON(in, budget, time.Now())
	if err != nil {
		return nil, fmt.Errorf("render subgraph: %w", err)
	}
	return jsonRawMessage(raw), nil
}

func (t *ExtractSubgraphTool) Schema() map[string]any {
	return map[string]any{
		"description": "Extract a relevance-decayed neighborhood around one or more seed nodes",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"seeds":                      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"max_depth":                  map[string]any{"type": "integer"},
				"min_relevance":              map[string]any{"type": "number"},
				"include_implicit_couplings": map[string]any{"type": "boolean"},
				"token_budget":               map[string]any{"type": "integer"},
			},
			"required": []string{"seeds"},
		},
	}
}

// ListContextGapsTool implements forge.list_context_gaps, the MCP-facing
// wrapper around internal/gapanalysis.Analyze.
type ListContextGapsTool struct {
	Graph *graphmodel.Graph
}

func (t *ListContextGapsTool) Execute(_ context.Context, args map[string]any) (any, error) {
	scores := gapanalysis.Analyze(t.Graph)

	if n, ok := asInt(args["top_n"]); ok && n > 0 && n < len(scores) {
		scores = scores[:n]
	}

	out := make([]map[string]any, len(scores))
	for i, s := range scores {
		contributions := make([]map[string]any, len(s.Contributions))
		for j, c := range s.Contributions {
			contributions[j] = map[string]any{
				"reason": string(c.Reason),
				"amount": c.Amount,
				"detail": c.Detail,
			}
		}
		out[i] = map[string]any{
			"node_id":       s.NodeId.String(),
			"score":         s.Value,
			"contributions": contributions,
		}
	}

	return map[string]any{"gaps": out}, nil
}

func (t *ListContextGapsTool) Schema() map[string]any {
	return map[string]any{
		"description": "List graph nodes scored by missing business context, highest gap first",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"top_n": map[string]any{"type": "integer"},
			},
		},
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// jsonRawMessage lets Execute return already-marshaled JSON bytes without
// the outer response being re-escaped as a string by the stdio encoder.
type jsonRawMessage []byte

func (m jsonRawMessage) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return m, nil
}
