package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/forgekit-dev/forge/internal/graphquery"
	"github.com/forgekit-dev/forge/internal/render"
)

func newMapCommand() *cobra.Command {
	var (
		format       string
		seeds        []string
		maxDepth     int
		minRelevance float64
		budget       int
		outputPath   string
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Render the persisted graph as Markdown, JSON, or a diagram",
		Long: `map loads the saved graph snapshot and renders it for LLM consumption.
With --seed, it first extracts the relevance-decayed neighborhood around
the named nodes instead of rendering the whole graph.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, format, seeds, maxDepth, minRelevance, budget, outputPath)
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "output format: markdown, json, or diagram")
	cmd.Flags().StringArrayVar(&seeds, "seed", nil, "seed node id to extract a subgraph from (repeatable)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 2, "maximum hop distance from seeds")
	cmd.Flags().Float64Var(&minRelevance, "min-relevance", 0, "drop nodes below this relevance score")
	cmd.Flags().IntVar(&budget, "budget", 0, "token budget; 0 means unbounded")
	cmd.Flags().StringVar(&outputPath, "output", "", "destination file; empty means stdout")

	return cmd
}

func runMap(cmd *cobra.Command, format string, seedStrs []string, maxDepth int, minRelevance float64, budget int, outputPath string) error {
	data, err := os.ReadFile(cfg.Graph.SnapshotPath)
	if err != nil {
		return apperrors.Wrap(err, apperrors.TypePersistence, "SnapshotRead", apperrors.SeverityHigh, "failed to read graph snapshot; run 'forge survey' first")
	}
	snapshot, err := graphmodel.FromJSON(data)
	if err != nil {
		return err
	}
	g := graphmodel.NewGraph()
	for _, n := range snapshot.Nodes {
		if err := g.AddNode(n); err != nil {
			return err
		}
	}
	for _, e := range snapshot.Edges {
		if _, err := g.UpsertEdge(e); err != nil {
			return err
		}
	}

	var in render.Input
	if len(seedStrs) > 0 {
		seeds := make([]graphmodel.NodeId, 0, len(seedStrs))
		for _, s := range seedStrs {
			id, err := graphmodel.ParseNodeId(s)
			if err != nil {
				return apperrors.Wrap(err, apperrors.TypeIdentifier, "ParseSeed", apperrors.SeverityMedium, "invalid seed node id "+s)
			}
			seeds = append(seeds, id)
		}
		sub := graphquery.ExtractSubgraph(g, graphquery.SubgraphConfig{
			Seeds:                    seeds,
			MaxDepth:                 maxDepth,
			MinRelevance:             minRelevance,
			IncludeImplicitCouplings: true,
		})
		in = render.FromSubgraph(sub, render.QueryInfo{Kind: render.QuerySubgraph, Seeds: seedStrs, MaxDepth: maxDepth})
	} else {
		in = render.FromGraph(g, render.QueryInfo{Kind: render.QueryFull})
	}

	var tokenBudget *render.Budget
	if budget > 0 {
		tokenBudget = render.NewBudget(budget)
	}

	var rendered string
	switch format {
	case "markdown", "":
		rendered = render.Markdown(in, render.DetailStandard, tokenBudget)
	case "diagram":
		rendered = render.Diagram(in, render.DirectionTopDown, tokenBudget)
	case "json":
		out, err := render.JSON(in, tokenBudget, time.Now())
		if err != nil {
			return err
		}
		rendered = string(out)
	default:
		return apperrors.New(apperrors.TypeConfig, "InvalidFormat", apperrors.SeverityMedium, "unknown format: "+format)
	}

	if outputPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
		return apperrors.PersistenceIO(err, outputPath)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outputPath)
	return nil
}
