package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/forgekit-dev/forge/internal/mcpserver"
)

func newMCPServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Serve the persisted graph over JSON-RPC on stdio",
		Long: `mcp-serve loads the saved graph snapshot and serves it to an MCP
client over stdin/stdout, exposing subgraph extraction and context-gap
listing as callable tools.`,
		Args: cobra.NoArgs,
		RunE: runMCPServe,
	}
}

func runMCPServe(cmd *cobra.Command, args []string) error {
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

	handler := mcpserver.NewHandler()
	handler.RegisterTool("forge.extract_subgraph", &mcpserver.ExtractSubgraphTool{Graph: g})
	handler.RegisterTool("forge.list_context_gaps", &mcpserver.ListContextGapsTool{Graph: g})

	fmt.Fprintln(os.Stderr, "forge mcp-serve: listening on stdio")
	transport := mcpserver.NewStdioTransport(os.Stdin, os.Stdout, handler)
	return transport.Run(cmd.Context())
}
