package core

import (
	"time"

	"github.com/huangsam/devscore/schema"
	"github.com/shopspring/decimal"
)

// Key identifies one (user, project) pair during aggregation and merge.
type Key struct {
	UserEmail string
	ProjectID int64
}

var secondsPerHour = decimal.NewFromInt(3600)

// AggregateCommits sums commit facts grouped by (user, project). Commit facts
// always carry a project, so every key here has a real project id.
func AggregateCommits(rows []schema.CommitTotal) map[Key]schema.RawMetrics {
	out := make(map[Key]schema.RawMetrics, len(rows))
	for _, r := range rows {
		key := Key{UserEmail: r.UserEmail, ProjectID: r.ProjectID}
		m := out[key]
		m.CommitCount += r.CommitCount
		m.LinesAdded += r.LinesAdded
		m.LinesRemoved += r.LinesRemoved
		m.FilesChanged += r.FilesChanged
		out[key] = m
	}
	return out
}

// AggregateSessions turns per-day session seconds into per-key session hours.
// Each day's total is capped at capSeconds BEFORE summing across days, so a
// single outlier day cannot dominate the period. Hours are exact decimals
// rounded to 2 places.
func AggregateSessions(rows []schema.SessionDay, capSeconds int64) map[Key]decimal.Decimal {
	type dayKey struct {
		key Key
		day time.Time
	}
	perDay := make(map[dayKey]int64, len(rows))
	for _, r := range rows {
		k := dayKey{key: Key{UserEmail: r.UserEmail, ProjectID: r.ProjectID}, day: r.Day}
		perDay[k] += r.Seconds
	}

	totals := make(map[Key]int64)
	for k, sec := range perDay {
		totals[k.key] += min(sec, capSeconds)
	}

	out := make(map[Key]decimal.Decimal, len(totals))
	for key, sec := range totals {
		out[key] = decimal.NewFromInt(sec).Div(secondsPerHour).Round(2)
	}
	return out
}

// AggregateUsage sums per-day agent request counts per user, capping each day
// at capPerDay before summing. Usage has no project dimension.
func AggregateUsage(rows []schema.UsageDay, capPerDay int64) map[string]int64 {
	type dayKey struct {
		email string
		day   time.Time
	}
	perDay := make(map[dayKey]int64, len(rows))
	for _, r := range rows {
		perDay[dayKey{email: r.UserEmail, day: r.Day}] += r.Requests
	}

	out := make(map[string]int64)
	for k, reqs := range perDay {
		out[k.email] += min(reqs, capPerDay)
	}
	return out
}
