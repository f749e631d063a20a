package cmd

import (
	"fmt"
	"time"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/internal/outwriter"
	"github.com/huangsam/devscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scoresCmd shows persisted score rows for one period.
var scoresCmd = &cobra.Command{
	Use:   "scores <period-type> <period-key>",
	Short: "Show persisted score rows for one period.",
	Long: `Display the per-project and aggregate score rows persisted for a
period, including the raw capped metrics behind each score.

Examples:
  # Every row for a week
  devscore scores weekly 2026-W08

  # One user's rows, aggregate first
  devscore scores weekly 2026-W08 --user alice@example.com

  # Export rows as CSV with exact decimal strings
  devscore scores monthly 2026-02 --output csv --output-file scores.csv`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		period, err := parsePeriodArgs(args)
		if err != nil {
			contract.LogFatal("Invalid period", err)
		}

		start := time.Now()
		var rows []schema.ScoreRow
		if user := viper.GetString("user"); user != "" {
			rows, err = store.ListUserRows(rootCtx, user, period.Granularity, period.Key)
		} else {
			rows, err = store.ListPeriodRows(rootCtx, period.Granularity, period.Key)
		}
		if err != nil {
			contract.LogFatal("Cannot fetch score rows", err)
		}
		if len(rows) == 0 {
			contract.LogFatal("No score rows",
				fmt.Errorf("nothing computed yet for %s %s (run 'devscore compute' first)", period.Granularity, period.Key))
		}
		if len(rows) > cfg.ResultLimit {
			rows = rows[:cfg.ResultLimit]
		}

		writer := outwriter.NewOutWriter()
		if err := writer.WriteScoreRows(rows, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write score rows", err)
		}
	},
}
