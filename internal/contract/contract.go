// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/devscore/schema"
)

// ErrRuleNotFound indicates the requested scoring rule does not exist or is
// disabled. The engine treats this as a logged no-op, never a crash.
var ErrRuleNotFound = errors.New("scoring rule not found or disabled")

// FactStore defines read-only access to the externally-owned raw fact tables
// and scoring rules. Implementations must return empty slices, not errors,
// when a range simply has no data.
type FactStore interface {
	// GetRule loads an enabled scoring rule by id. Returns ErrRuleNotFound
	// when the rule is missing or disabled.
	GetRule(ctx context.Context, ruleID int64) (*schema.Rule, error)

	// CommitTotals returns commit facts summed per (project, author) across
	// the inclusive [start, end] day range.
	CommitTotals(ctx context.Context, start, end time.Time) ([]schema.CommitTotal, error)

	// SessionDays returns per-day session second totals for project-scoped
	// sessions in the inclusive [start, end] day range. Sessions without a
	// project association are excluded entirely.
	SessionDays(ctx context.Context, start, end time.Time) ([]schema.SessionDay, error)

	// UsageDays returns per-day agent request counts in the inclusive
	// [start, end] day range.
	UsageDays(ctx context.Context, start, end time.Time) ([]schema.UsageDay, error)
}

// ScoreStore defines write access to contribution score rows and leaderboard
// snapshots, plus the read surface consumed by CLI and MCP callers.
type ScoreStore interface {
	// ReplacePeriod transactionally upserts all rows for one period, runs the
	// ranking pass over the persisted aggregate rows, and replaces the
	// period's snapshot. A concurrent reader sees the previous complete
	// period or the new one, never a mix.
	ReplacePeriod(ctx context.Context, period schema.Period, ruleID int64, rows []schema.ScoreRow) (*schema.LeaderboardSnapshot, error)

	// GetAggregate fetches a user's aggregate row for a period, or nil when
	// the user has no row.
	GetAggregate(ctx context.Context, userEmail string, granularity schema.Granularity, periodKey string) (*schema.ScoreRow, error)

	// GetSnapshot fetches the leaderboard snapshot for a period, or nil when
	// none has been generated.
	GetSnapshot(ctx context.Context, granularity schema.Granularity, periodKey string) (*schema.LeaderboardSnapshot, error)

	// ListUserRows returns all of a user's score rows for a period, ordered
	// aggregate first then by project id.
	ListUserRows(ctx context.Context, userEmail string, granularity schema.Granularity, periodKey string) ([]schema.ScoreRow, error)

	// ListPeriodRows returns every score row for a period ordered by user
	// then project, for exports.
	ListPeriodRows(ctx context.Context, granularity schema.Granularity, periodKey string) ([]schema.ScoreRow, error)

	// GetStatus returns status information about the score store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// RuleAdmin defines the rule administration surface. Rules are externally
// owned configuration; this exists for operators, not for the engine.
type RuleAdmin interface {
	// SaveRule validates and upserts a scoring rule.
	SaveRule(ctx context.Context, rule *schema.Rule) error

	// GetAnyRule loads a rule by id regardless of its enabled flag.
	GetAnyRule(ctx context.Context, ruleID int64) (*schema.Rule, error)
}
