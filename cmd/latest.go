package cmd

import (
	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
	"github.com/spf13/cobra"
)

// latestCmd recomputes the current and previous period for a granularity.
var latestCmd = &cobra.Command{
	Use:   "latest <period-type>",
	Short: "Compute scores for the current and previous period.",
	Long: `Compute contribution scores for the period containing today and the
period before it. Recomputing the previous period picks up facts that
arrived after it closed.

Examples:
  # Refresh this week and last week
  devscore latest weekly

  # Refresh today and yesterday
  devscore latest daily`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		granularity, err := schema.ParseGranularity(args[0])
		if err != nil {
			contract.LogFatal("Invalid period type", err)
		}
		if err := engine.ComputeLatest(rootCtx, granularity, cfg.RuleID); err != nil {
			contract.LogFatal("Cannot compute latest periods", err)
		}
	},
}
