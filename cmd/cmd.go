// Package cmd defines the command-line interface for devscore.
package cmd

import (
	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(ruleCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the rule subcommands to the parent rule command
	ruleCmd.AddCommand(ruleShowCmd)
	ruleCmd.AddCommand(ruleSetCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Database backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().Int64("rule-id", contract.DefaultRuleID, "Scoring rule id to compute with")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored ranks in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of scoresCmd to Viper
	scoresCmd.Flags().String("user", "", "Restrict output to one user's rows")
	if err := viper.BindPFlags(scoresCmd.Flags()); err != nil {
		contract.LogFatal("Error binding scores flags", err)
	}

	// Bind all flags of ruleSetCmd to Viper
	ruleSetCmd.Flags().String("name", "", "Human-readable rule name")
	ruleSetCmd.Flags().String("weights", "", `Weights as a JSON object (e.g. '{"commit_count":0.35}')`)
	ruleSetCmd.Flags().String("caps", "", `Per-day caps as a JSON object (e.g. '{"session_duration_hours_per_day":12}')`)
	ruleSetCmd.Flags().String("enabled", "yes", "Whether the rule is enabled (yes/no)")
	if err := viper.BindPFlags(ruleSetCmd.Flags()); err != nil {
		contract.LogFatal("Error binding rule set flags", err)
	}

	// Bind all flags of watchCmd to Viper
	watchCmd.Flags().String("interval", "", "Recompute interval (e.g. 15m, 1h); minimum 1m")
	watchCmd.Flags().String("metrics-addr", contract.DefaultMetricsAddr, "Listen address for /metrics and /healthz")
	if err := viper.BindPFlags(watchCmd.Flags()); err != nil {
		contract.LogFatal("Error binding watch flags", err)
	}

	// Bind all flags of migrateCmd to Viper
	migrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(migrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding migrate flags", err)
	}
}
