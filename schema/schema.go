// Package schema has configs, models and shared constants for all parts of devscore.
package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is a resolved scoring period. Start and End are inclusive calendar
// days at UTC midnight.
type Period struct {
	Granularity Granularity // Period classification (daily, weekly, monthly)
	Key         string      // Human-readable period key (e.g. "2026-W08")
	Start       time.Time   // First day of the period
	End         time.Time   // Last day of the period
}

// Days returns the number of calendar days the period spans.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Rule holds the weights and caps used for one scoring computation.
// Rules are externally managed configuration; the engine reads them only.
type Rule struct {
	ID      int64
	Name    string
	Weights map[Dimension]decimal.Decimal // Dimension -> multiplicative weight
	Caps    map[CapKey]float64            // Cap name -> per-day upper bound
	Enabled bool
}

// SessionCapSeconds returns the per-day session cap in seconds, falling back
// to the default when the rule leaves it unset.
func (r *Rule) SessionCapSeconds() int64 {
	if v, ok := r.Caps[CapSessionHoursPerDay]; ok {
		return int64(v * 3600)
	}
	return DefaultSessionHoursPerDay * 3600
}

// RequestCapPerDay returns the per-day agent request cap, falling back to the
// default when the rule leaves it unset.
func (r *Rule) RequestCapPerDay() int64 {
	if v, ok := r.Caps[CapAgentRequestsPerDay]; ok {
		return int64(v)
	}
	return DefaultAgentRequestsPerDay
}

// RawMetrics holds the six raw dimension totals for one score row.
// SessionHours is kept as an exact decimal so repeated recomputation of the
// same period produces identical values.
type RawMetrics struct {
	LinesAdded    int64           `json:"lines_added"`
	LinesRemoved  int64           `json:"lines_removed"`
	CommitCount   int64           `json:"commit_count"`
	FilesChanged  int64           `json:"files_changed"`
	SessionHours  decimal.Decimal `json:"session_duration_hours"`
	AgentRequests int64           `json:"agent_requests"`
}

// Value returns the raw value for a dimension as an exact decimal.
func (m *RawMetrics) Value(dim Dimension) decimal.Decimal {
	switch dim {
	case DimLinesAdded:
		return decimal.NewFromInt(m.LinesAdded)
	case DimLinesRemoved:
		return decimal.NewFromInt(m.LinesRemoved)
	case DimCommitCount:
		return decimal.NewFromInt(m.CommitCount)
	case DimFilesChanged:
		return decimal.NewFromInt(m.FilesChanged)
	case DimSessionHours:
		return m.SessionHours
	case DimAgentRequests:
		return decimal.NewFromInt(m.AgentRequests)
	default:
		return decimal.Zero
	}
}

// Add accumulates other into m.
func (m *RawMetrics) Add(other RawMetrics) {
	m.LinesAdded += other.LinesAdded
	m.LinesRemoved += other.LinesRemoved
	m.CommitCount += other.CommitCount
	m.FilesChanged += other.FilesChanged
	m.SessionHours = m.SessionHours.Add(other.SessionHours)
	m.AgentRequests += other.AgentRequests
}

// AggregateProjectID is the project_id sentinel for aggregate (project-less)
// rows. The supported backends disagree on NULL semantics in unique indexes,
// so aggregate rows store 0 and the API surface treats 0 as "no project".
const AggregateProjectID int64 = 0

// ScoreRow is one persisted contribution score, uniquely identified by
// (UserEmail, ProjectID, Granularity, PeriodKey). Each recompute replaces the
// row wholesale; rows are never incrementally patched.
type ScoreRow struct {
	UserEmail   string                        `json:"user_email"`
	ProjectID   int64                         `json:"project_id"` // AggregateProjectID for aggregate rows
	Granularity Granularity                   `json:"period_type"`
	PeriodKey   string                        `json:"period_key"`
	RuleID      int64                         `json:"rule_id"`
	Raw         RawMetrics                    `json:"raw"`
	Breakdown   map[Dimension]decimal.Decimal `json:"score_breakdown"`
	TotalScore  decimal.Decimal               `json:"total_score"`
	Rank        *int                          `json:"rank"` // Populated only on eligible aggregate rows
	HookAdopted bool                          `json:"hook_adopted"`
}

// IsAggregate reports whether the row summarizes a user across all projects.
func (r *ScoreRow) IsAggregate() bool {
	return r.ProjectID == AggregateProjectID
}

// SnapshotEntry is one ordered leaderboard line.
type SnapshotEntry struct {
	Rank       int             `json:"rank"`
	UserEmail  string          `json:"user_email"`
	TotalScore decimal.Decimal `json:"total_score"`
}

// LeaderboardSnapshot is the persisted, ordered leaderboard for one period.
// One snapshot exists per (Granularity, PeriodKey); recompute replaces it.
type LeaderboardSnapshot struct {
	Granularity Granularity     `json:"period_type"`
	PeriodKey   string          `json:"period_key"`
	Entries     []SnapshotEntry `json:"entries"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// CommitTotal is a commit fact aggregate grouped by (ProjectID, UserEmail)
// over a date range. Commit facts always carry a project.
type CommitTotal struct {
	ProjectID    int64
	UserEmail    string
	CommitCount  int64
	LinesAdded   int64
	LinesRemoved int64
	FilesChanged int64
}

// SessionDay is one user's stored session seconds for one project on one day.
type SessionDay struct {
	UserEmail string
	ProjectID int64
	Day       time.Time
	Seconds   int64
}

// UsageDay is one user's stored agent request count for one day. Usage facts
// have no project dimension.
type UsageDay struct {
	UserEmail string
	Day       time.Time
	Requests  int64
}

// StoreStatus reports status information about the score store.
type StoreStatus struct {
	Backend    string
	Connected  bool
	TableSizes map[string]int64

	// LatestSnapshot is the most recently generated leaderboard snapshot,
	// as "<period-type> <period-key>", or empty when none exists.
	LatestSnapshot string
}
