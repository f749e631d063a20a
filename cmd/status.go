package cmd

import (
	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/internal/scorestore"
	"github.com/spf13/cobra"
)

// statusCmd shows score store status.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display score store connection details and table sizes",
	Long: `Show detailed information about the score store.

Displays:
- Backend type and connection status
- Row counts for every fact and score table

Use this to:
- Verify the store is reachable before scheduling computations
- Monitor data accumulation over time
- Estimate storage requirements

Examples:
  # Check store status
  devscore status`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := store.GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		scorestore.PrintStoreStatus(status)
	},
}
