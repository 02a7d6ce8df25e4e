package main

import (
	"context"
	"fmt"

	"github.com/aretw0/gamebook/internal/cli"
	"github.com/aretw0/gamebook/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the gamebook engine as MCP tools (add_path, get_graph, shortest_path,
reset_session) so AI agents can record and query routes.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()
		logger := env.Logger

		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		srv := mcp.NewServer(env.Engine, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Logs go to stderr; stdout carries JSON-RPC.
			logger.Info("Starting gamebook MCP Server (Stdio)")
			if err := srv.ServeStdio(); err != nil {
				fail(env, "running MCP server", err)
			}
		case "sse":
			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}
			logger.Info("Starting gamebook MCP Server (SSE)", "addr", addr, "base_url", baseURL)

			ctx, stop := cli.NotifyContext(context.Background())
			defer stop()

			if err := srv.ServeSSE(ctx, addr, baseURL); err != nil {
				fail(env, "running MCP server", err)
			}
			logger.Info("MCP Server stopped gracefully")
		default:
			fail(env, "starting MCP server", fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport))
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL of the SSE endpoint")
}
