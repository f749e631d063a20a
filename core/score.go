package core

import (
	"sort"

	"github.com/huangsam/devscore/schema"
	"github.com/shopspring/decimal"
)

// BuildScoreRows merges the three aggregator outputs into the full score row
// set for one period: one row per (user, project) pair seen in commits or
// sessions, plus exactly one aggregate row per user.
//
// Usage counts are attributed only to aggregate rows because they carry no
// project dimension. A user is hook-adopted when at least one of their
// project-scoped session facts falls in the period; usage alone never
// establishes eligibility.
//
// Rows come back in a deterministic order (per-project rows sorted by user
// then project, aggregate rows sorted by user). The persistence layer breaks
// ranking ties by insertion order, so a stable order here is what makes
// recomputation reproduce identical ranks.
func BuildScoreRows(
	period schema.Period,
	ruleID int64,
	commits map[Key]schema.RawMetrics,
	sessions map[Key]decimal.Decimal,
	usage map[string]int64,
	weights map[schema.Dimension]decimal.Decimal,
) []schema.ScoreRow {
	keys := make([]Key, 0, len(commits)+len(sessions))
	seen := make(map[Key]bool, len(commits)+len(sessions))
	for k := range commits {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range sessions {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].UserEmail != keys[j].UserEmail {
			return keys[i].UserEmail < keys[j].UserEmail
		}
		return keys[i].ProjectID < keys[j].ProjectID
	})

	perUser := make(map[string]*schema.ScoreRow)
	userOrder := make([]string, 0)

	rows := make([]schema.ScoreRow, 0, len(keys))
	for _, key := range keys {
		raw := commits[key] // zero value when the key only has sessions
		if hours, ok := sessions[key]; ok {
			raw.SessionHours = hours
		}
		_, hookAdopted := sessions[key]

		breakdown, total := scoreMetrics(raw, weights)
		rows = append(rows, schema.ScoreRow{
			UserEmail:   key.UserEmail,
			ProjectID:   key.ProjectID,
			Granularity: period.Granularity,
			PeriodKey:   period.Key,
			RuleID:      ruleID,
			Raw:         raw,
			Breakdown:   breakdown,
			TotalScore:  total,
			HookAdopted: hookAdopted,
		})

		agg, ok := perUser[key.UserEmail]
		if !ok {
			agg = &schema.ScoreRow{
				UserEmail:   key.UserEmail,
				ProjectID:   schema.AggregateProjectID,
				Granularity: period.Granularity,
				PeriodKey:   period.Key,
				RuleID:      ruleID,
			}
			perUser[key.UserEmail] = agg
			userOrder = append(userOrder, key.UserEmail)
		}
		agg.Raw.Add(raw)
		agg.HookAdopted = agg.HookAdopted || hookAdopted
	}

	// Usage counts join at the aggregate level only. Users with usage but no
	// commits or sessions still get an aggregate row; it stays ineligible
	// for ranking.
	for email, requests := range usage {
		agg, ok := perUser[email]
		if !ok {
			agg = &schema.ScoreRow{
				UserEmail:   email,
				ProjectID:   schema.AggregateProjectID,
				Granularity: period.Granularity,
				PeriodKey:   period.Key,
				RuleID:      ruleID,
			}
			perUser[email] = agg
			userOrder = append(userOrder, email)
		}
		agg.Raw.AgentRequests += requests
	}
	sort.Strings(userOrder)

	for _, email := range userOrder {
		agg := perUser[email]
		agg.Breakdown, agg.TotalScore = scoreMetrics(agg.Raw, weights)
		rows = append(rows, *agg)
	}
	return rows
}

// scoreMetrics applies the rule's weights to a raw record. Every weighted
// dimension contributes raw × weight to the breakdown; dimensions without a
// configured weight contribute nothing. All arithmetic stays in exact
// decimals so recomputing a period can never drift.
func scoreMetrics(raw schema.RawMetrics, weights map[schema.Dimension]decimal.Decimal) (map[schema.Dimension]decimal.Decimal, decimal.Decimal) {
	breakdown := make(map[schema.Dimension]decimal.Decimal, len(weights))
	total := decimal.Zero
	for _, dim := range schema.Dimensions {
		w, ok := weights[dim]
		if !ok {
			continue
		}
		contribution := raw.Value(dim).Mul(w)
		breakdown[dim] = contribution
		total = total.Add(contribution)
	}
	return breakdown, total
}
