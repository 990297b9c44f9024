package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/recall-dev/recall/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing
retrieval and indexing tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		// Keep the index warm while the server runs.
		b.pipeline.Start()

		if !b.registry.IsIndexed(b.projectID) {
			fmt.Fprintln(os.Stderr, "Warning: the project index is missing or stale; run `recall index` or the index_project tool")
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "recall MCP server started on stdio (project=%s, chunks=%d)\n",
			b.projectID, b.store.Count())

		srv := mcpserver.NewServer(mcpserver.Deps{
			Orchestrator: b.orchestrator(nil),
			Store:        b.store,
			Embedder:     b.embedder,
			Pipeline:     b.pipeline,
			Registry:     b.registry,
			WalkConfig:   b.walkCfg,
			ProjectID:    b.projectID,
			Logger:       b.logger,
		})
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
