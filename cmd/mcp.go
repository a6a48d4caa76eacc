package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xvierd/studyx/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server lets an assistant read subjects, sessions, stats and assignments,
log sessions and complete assignments. It communicates over stdio.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.config.MCP.Enabled {
			return fmt.Errorf("the MCP server is disabled (studyx config set mcp.enabled true)")
		}

		// stdout carries the protocol, so status goes to stderr.
		fmt.Fprintln(os.Stderr, "🚀 StudyX MCP server listening on stdio (Ctrl+C to stop)")

		ctx, stop := setupSignalHandler()
		defer stop()

		server := mcp.NewServer(app.state, app.log.Named("mcp"))
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}
