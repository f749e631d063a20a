package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ruleCmd groups the rule administration subcommands.
var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Inspect and manage scoring rules",
	Long: `Inspect and manage the weight and cap configuration used to score
contributions. Rules are plain configuration rows; changing one never
rewrites history until a period is recomputed.

Subcommands:
  show - Print a rule's weights, caps and enabled flag
  set  - Validate and upsert a rule

Examples:
  # Inspect the default rule
  devscore rule show

  # Disable a rule
  devscore rule set --rule-id 2 --enabled no`,
}

// ruleShowCmd prints one rule as JSON.
var ruleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a scoring rule's weights, caps and enabled flag",
	Long: `Print the configured rule as JSON with exact decimal weights.

Examples:
  # Show the default rule
  devscore rule show

  # Show a specific rule
  devscore rule show --rule-id 2`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		rule, err := store.GetAnyRule(rootCtx, cfg.RuleID)
		if err != nil {
			contract.LogFatal("Cannot load rule", err)
		}

		weights := make(map[string]json.Number, len(rule.Weights))
		for dim, w := range rule.Weights {
			weights[string(dim)] = json.Number(w.String())
		}
		out := struct {
			ID      int64                     `json:"id"`
			Name    string                    `json:"name"`
			Weights map[string]json.Number    `json:"weights"`
			Caps    map[schema.CapKey]float64 `json:"caps"`
			Enabled bool                      `json:"enabled"`
		}{rule.ID, rule.Name, weights, rule.Caps, rule.Enabled}

		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			contract.LogFatal("Cannot encode rule", err)
		}
		fmt.Println(string(jsonData))
	},
}

// ruleSetCmd validates and upserts a rule.
var ruleSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Validate and upsert a scoring rule",
	Long: `Create or replace a scoring rule. Weights and caps are JSON objects;
unknown dimension or cap names and negative weights are rejected before
anything is written.

Recognized weight dimensions: lines_added, lines_removed, commit_count,
files_changed, session_duration_hours, agent_requests.

Recognized caps: session_duration_hours_per_day, agent_requests_per_day.

Examples:
  # Create a rule weighing commits and session time
  devscore rule set --rule-id 1 --name default \
    --weights '{"commit_count":0.35,"session_duration_hours":2.5}' \
    --caps '{"session_duration_hours_per_day":12,"agent_requests_per_day":500}'

  # Disable rule 2 without touching its weights
  devscore rule set --rule-id 2 --enabled no`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		enabled, err := contract.ParseBoolString(viper.GetString("enabled"))
		if err != nil {
			contract.LogFatal("Invalid enabled flag", err)
		}

		rule := &schema.Rule{
			ID:      cfg.RuleID,
			Name:    viper.GetString("name"),
			Enabled: enabled,
		}

		// Start from the existing rule, if any, so partial updates work.
		if existing, err := store.GetAnyRule(rootCtx, cfg.RuleID); err == nil {
			rule.Weights = existing.Weights
			rule.Caps = existing.Caps
			if rule.Name == "" {
				rule.Name = existing.Name
			}
		} else if !errors.Is(err, contract.ErrRuleNotFound) {
			contract.LogFatal("Cannot load existing rule", err)
		}

		if raw := viper.GetString("weights"); raw != "" {
			weights, err := schema.ParseWeights([]byte(raw))
			if err != nil {
				contract.LogFatal("Invalid weights", err)
			}
			rule.Weights = weights
		}
		if raw := viper.GetString("caps"); raw != "" {
			caps, err := schema.ParseCaps([]byte(raw))
			if err != nil {
				contract.LogFatal("Invalid caps", err)
			}
			rule.Caps = caps
		}
		if len(rule.Weights) == 0 {
			contract.LogFatal("Invalid rule", errors.New("--weights is required for a new rule"))
		}

		if err := store.SaveRule(rootCtx, rule); err != nil {
			contract.LogFatal("Cannot save rule", err)
		}
		fmt.Printf("Saved rule %d (%s)\n", rule.ID, rule.Name)
	},
}
