package cmd

import (
	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/internal/scorestore"
	"github.com/spf13/cobra"
)

// exportCmd exports one period's score data to Parquet files.
var exportCmd = &cobra.Command{
	Use:   "export <period-type> <period-key>",
	Short: "Export a period's scores and leaderboard to Parquet",
	Long: `Export one period's persisted score rows and leaderboard snapshot to
Parquet format for use with analytics tools.

Exports two datasets:
- Score rows - per-project and aggregate rows with raw capped metrics
- Leaderboard - the ordered snapshot, one row per ranked user

Decimal columns are exported as exact strings so no precision is lost.

Parquet format enables:
- Fast querying with DuckDB, Apache Spark, pandas
- Efficient storage with columnar compression
- Direct import into BI tools (Tableau, Metabase, etc.)

Requires: --output-file parameter

Examples:
  # Export a week for analysis in pandas/DuckDB
  devscore export weekly 2026-W08 --output-file week08

  # Use with DuckDB
  duckdb -c "SELECT * FROM read_parquet('week08.scores.parquet') LIMIT 10"`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		period, err := parsePeriodArgs(args)
		if err != nil {
			contract.LogFatal("Invalid period", err)
		}
		if err := scorestore.ExecuteScoreExport(rootCtx, store, period.Granularity, period.Key, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export score data", err)
		}
	},
}
