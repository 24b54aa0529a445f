// ABOUTME: CLI command starting the MCP server over stdio.
// ABOUTME: Exposes read-only query and export tools to AI assistants.
package main

import (
	"fmt"

	"github.com/harperreed/healthhub/internal/chunkstore"
	"github.com/harperreed/healthhub/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI assistant integration",
	Long: `Start a Model Context Protocol server over stdio.

The server exposes read-only tools (time series, correlation, daily
metrics, events, search, summary, context export) over the reconciled
canonical view. Ingestion and canonicalization stay on the CLI side.

Add to your Claude Desktop configuration:

  {
    "mcpServers": {
      "healthhub": { "command": "healthhub", "args": ["mcp"] }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := chunkstore.Open(cfg.ChunkCacheDir())
		if err != nil {
			logger.Warn("chunk cache unavailable, exports will recompute", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}

		server, err := mcp.NewServer(repo, mcp.Options{
			DefaultUser:  currentUser(),
			MaxChunkSize: cfg.GetMaxChunkSize(),
			Cache:        cache,
		})
		if err != nil {
			return fmt.Errorf("create MCP server: %w", err)
		}

		logger.Info("MCP server listening on stdio")
		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
