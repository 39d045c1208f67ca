// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for assistant integration.
package main

import (
	"github.com/spf13/cobra"

	"github.com/harperreed/wellness/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout. Logs go to stderr.

CONFIGURATION:

  {
    "mcpServers": {
      "wellness": {
        "command": "wellness",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  get_today_stats   Build today's report and upsert it into the ledger
  record_waist      Record today's waist measurement in inches
  list_ledger       List recent ledger rows
  ledger_status     Credential and storage readiness

AVAILABLE RESOURCES:

  wellness://ledger   The ledger as CSV
  wellness://latest   The most recent row as JSON`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(app.assembler, app.store)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
