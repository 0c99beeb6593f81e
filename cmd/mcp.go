package cmd

import (
	"fmt"

	"github.com/devnotmax/studify/internal/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server exposes tools to start, pause, resume, end and cancel sessions and
to read your streak, stats and history.`,
	Annotations: follows,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; status goes to stderr.
		fmt.Fprintln(cmd.ErrOrStderr(), "🚀 Starting MCP server on stdio (Ctrl+C to stop)")

		ctx, stop := setupSignalHandler(cmd.Context())
		defer stop()

		server := mcp.NewServer(app.controller, app.insights, Version)
		defer func() { _ = server.Stop() }()
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}
