package cmd

import (
	"github.com/huangsam/devscore/core"
	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
	"github.com/spf13/cobra"
)

// parsePeriodArgs validates the `<period-type> <period-key>` argument pair
// shared by several commands.
func parsePeriodArgs(args []string) (schema.Period, error) {
	granularity, err := schema.ParseGranularity(args[0])
	if err != nil {
		return schema.Period{}, err
	}
	return core.ResolvePeriod(granularity, args[1])
}

// computeCmd recomputes scores for one period.
var computeCmd = &cobra.Command{
	Use:   "compute <period-type> <period-key>",
	Short: "Compute contribution scores for one period.",
	Long: `Aggregate raw commit, session and agent usage facts for a period,
apply the scoring rule's weights and per-day caps, and persist per-project
rows, aggregate rows, dense ranks and the leaderboard snapshot.

Recomputing a period is idempotent: existing rows are replaced in one
transaction, so readers always see a complete period.

Period keys by granularity:
  daily    2026-02-18
  weekly   2026-W08 (ISO-8601 week)
  monthly  2026-02

Examples:
  # Score the current ISO week
  devscore compute weekly 2026-W08

  # Re-score a day with a specific rule
  devscore compute daily 2026-02-18 --rule-id 2`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		period, err := parsePeriodArgs(args)
		if err != nil {
			contract.LogFatal("Invalid period", err)
		}
		if err := engine.ComputePeriod(rootCtx, period.Granularity, period.Key, cfg.RuleID); err != nil {
			contract.LogFatal("Cannot compute period", err)
		}
	},
}
