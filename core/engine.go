package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
)

// Engine runs the full scoring pipeline for one period at a time: resolve the
// period, aggregate the three fact sources, merge and score, then hand the
// complete row set to the store for the transactional upsert + rank +
// snapshot pass.
//
// Recomputes of different period keys touch disjoint row sets and may run
// concurrently; recomputes of the same key must not interleave.
type Engine struct {
	facts  contract.FactStore
	scores contract.ScoreStore
	log    *slog.Logger
	now    func() time.Time
}

// NewEngine creates an engine on top of a fact reader and a score store.
func NewEngine(facts contract.FactStore, scores contract.ScoreStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{facts: facts, scores: scores, log: logger, now: time.Now}
}

// ComputePeriod recomputes all score rows, ranks and the snapshot for one
// (granularity, period key, rule id) tuple. A missing or disabled rule and a
// malformed period key are logged no-ops so schedulers can fire blindly;
// storage failures during the write phase are returned.
func (e *Engine) ComputePeriod(ctx context.Context, granularity schema.Granularity, periodKey string, ruleID int64) error {
	rule, err := e.facts.GetRule(ctx, ruleID)
	if err != nil {
		if errors.Is(err, contract.ErrRuleNotFound) {
			e.log.Warn("no enabled scoring rule, skipping period",
				"rule_id", ruleID, "granularity", string(granularity), "period_key", periodKey)
			return nil
		}
		return fmt.Errorf("failed to load scoring rule %d: %w", ruleID, err)
	}

	period, err := ResolvePeriod(granularity, periodKey)
	if err != nil {
		e.log.Warn("unresolvable period key, skipping",
			"granularity", string(granularity), "period_key", periodKey, "error", err)
		return nil
	}

	// The three sources aggregate independently. A failed read degrades to
	// an empty result for that source; the others still count.
	commitRows, err := e.facts.CommitTotals(ctx, period.Start, period.End)
	if err != nil {
		e.log.Warn("commit fact read failed, treating as empty", "period_key", periodKey, "error", err)
		commitRows = nil
	}
	sessionRows, err := e.facts.SessionDays(ctx, period.Start, period.End)
	if err != nil {
		e.log.Warn("session fact read failed, treating as empty", "period_key", periodKey, "error", err)
		sessionRows = nil
	}
	usageRows, err := e.facts.UsageDays(ctx, period.Start, period.End)
	if err != nil {
		e.log.Warn("usage fact read failed, treating as empty", "period_key", periodKey, "error", err)
		usageRows = nil
	}

	commits := AggregateCommits(commitRows)
	sessions := AggregateSessions(sessionRows, rule.SessionCapSeconds())
	usage := AggregateUsage(usageRows, rule.RequestCapPerDay())

	rows := BuildScoreRows(period, rule.ID, commits, sessions, usage, rule.Weights)
	if len(rows) == 0 {
		e.log.Info("no source data for period",
			"granularity", string(granularity), "period_key", periodKey)
		return nil
	}

	snapshot, err := e.scores.ReplacePeriod(ctx, period, rule.ID, rows)
	if err != nil {
		return fmt.Errorf("failed to persist period %s %s: %w", granularity, periodKey, err)
	}

	e.log.Info("computed period",
		"granularity", string(granularity), "period_key", periodKey,
		"rows", len(rows), "ranked", len(snapshot.Entries))
	return nil
}

// ComputeLatest recomputes both the most recently completed period and the
// current in-progress period for a granularity, so reports run mid-period
// show live-but-partial numbers while the closed period gets finalized.
func (e *Engine) ComputeLatest(ctx context.Context, granularity schema.Granularity, ruleID int64) error {
	keys, err := LatestPeriodKeys(granularity, e.now())
	if err != nil {
		e.log.Warn("cannot determine latest periods", "granularity", string(granularity), "error", err)
		return nil
	}
	for _, key := range keys {
		if err := e.ComputePeriod(ctx, granularity, key, ruleID); err != nil {
			return err
		}
	}
	return nil
}
