package cmd

import (
	"github.com/huangsam/devscore/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the devscore MCP server",
	Long:  `Launch an MCP server that allows AI agents to query leaderboards and recompute scores via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Keep stdout clean for the protocol; setup logs go to stderr.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, engine, store)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
