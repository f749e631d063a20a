package cmd

import (
	"fmt"
	"time"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/internal/outwriter"
	"github.com/spf13/cobra"
)

// leaderboardCmd shows the ranked snapshot for one period.
var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <period-type> <period-key>",
	Short: "Show the ranked leaderboard for one period.",
	Long: `Display the persisted leaderboard snapshot for a period. Only users
who adopted the tracking hook are ranked; everyone else is scored but
excluded from the leaderboard.

Examples:
  # This week's standings
  devscore leaderboard weekly 2026-W08

  # Top 10 only, as JSON
  devscore leaderboard monthly 2026-02 --limit 10 --output json`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		period, err := parsePeriodArgs(args)
		if err != nil {
			contract.LogFatal("Invalid period", err)
		}

		start := time.Now()
		snapshot, err := store.GetSnapshot(rootCtx, period.Granularity, period.Key)
		if err != nil {
			contract.LogFatal("Cannot fetch leaderboard", err)
		}
		if snapshot == nil {
			contract.LogFatal("No leaderboard snapshot",
				fmt.Errorf("nothing computed yet for %s %s (run 'devscore compute' first)", period.Granularity, period.Key))
		}
		if len(snapshot.Entries) > cfg.ResultLimit {
			snapshot.Entries = snapshot.Entries[:cfg.ResultLimit]
		}

		writer := outwriter.NewOutWriter()
		if err := writer.WriteLeaderboard(snapshot, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write leaderboard", err)
		}
	},
}
