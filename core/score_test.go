package core

import (
	"testing"

	"github.com/huangsam/devscore/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightsFixture() map[schema.Dimension]decimal.Decimal {
	return map[schema.Dimension]decimal.Decimal{
		schema.DimLinesAdded:    decimal.RequireFromString("0.35"),
		schema.DimCommitCount:   decimal.RequireFromString("0.2"),
		schema.DimSessionHours:  decimal.RequireFromString("0.25"),
		schema.DimAgentRequests: decimal.RequireFromString("0.1"),
		schema.DimFilesChanged:  decimal.RequireFromString("0.1"),
	}
}

func testPeriod() schema.Period {
	return schema.Period{
		Granularity: schema.Weekly,
		Key:         "2026-W08",
		Start:       day("2026-02-16"),
		End:         day("2026-02-22"),
	}
}

// TestBuildScoreRowsWorkedExample follows one user with one commit fact and
// one hour of session time through the full merge and scoring math.
func TestBuildScoreRowsWorkedExample(t *testing.T) {
	commits := map[Key]schema.RawMetrics{
		{UserEmail: "alice@x.com", ProjectID: 1}: {LinesAdded: 100, CommitCount: 2, FilesChanged: 5},
	}
	sessions := map[Key]decimal.Decimal{
		{UserEmail: "alice@x.com", ProjectID: 1}: decimal.RequireFromString("1"),
	}

	rows := BuildScoreRows(testPeriod(), 1, commits, sessions, nil, weightsFixture())
	require.Len(t, rows, 2)

	project := rows[0]
	assert.Equal(t, "alice@x.com", project.UserEmail)
	assert.Equal(t, int64(1), project.ProjectID)
	assert.Equal(t, int64(100), project.Raw.LinesAdded)
	assert.Equal(t, int64(2), project.Raw.CommitCount)
	assert.Equal(t, int64(5), project.Raw.FilesChanged)
	assert.Equal(t, int64(0), project.Raw.AgentRequests)
	assert.Equal(t, "1", project.Raw.SessionHours.String())
	assert.True(t, project.HookAdopted)
	assert.Nil(t, project.Rank)

	assert.Equal(t, "35", project.Breakdown[schema.DimLinesAdded].String())
	assert.Equal(t, "0.4", project.Breakdown[schema.DimCommitCount].String())
	assert.Equal(t, "0.5", project.Breakdown[schema.DimFilesChanged].String())
	assert.Equal(t, "0.25", project.Breakdown[schema.DimSessionHours].String())
	assert.Equal(t, "0", project.Breakdown[schema.DimAgentRequests].String())
	assert.Equal(t, "36.15", project.TotalScore.String())

	aggregate := rows[1]
	assert.True(t, aggregate.IsAggregate())
	assert.Equal(t, project.Raw, aggregate.Raw)
	assert.Equal(t, "36.15", aggregate.TotalScore.String())
	assert.True(t, aggregate.HookAdopted)
}

// TestBuildScoreRowsUsageOnlyAggregate: usage counts attach only to the
// aggregate row and never establish eligibility on their own.
func TestBuildScoreRowsUsageOnlyAggregate(t *testing.T) {
	commits := map[Key]schema.RawMetrics{
		{UserEmail: "alice@x.com", ProjectID: 1}: {LinesAdded: 10, CommitCount: 1},
	}
	usage := map[string]int64{
		"alice@x.com": 40,
		"carol@x.com": 300, // no commits, no sessions
	}

	rows := BuildScoreRows(testPeriod(), 1, commits, nil, usage, weightsFixture())
	require.Len(t, rows, 3)

	project := rows[0]
	assert.Equal(t, int64(0), project.Raw.AgentRequests, "per-project rows exclude usage")
	assert.False(t, project.HookAdopted)

	// Aggregate rows sort by user email.
	aliceAgg := rows[1]
	require.Equal(t, "alice@x.com", aliceAgg.UserEmail)
	assert.True(t, aliceAgg.IsAggregate())
	assert.Equal(t, int64(40), aliceAgg.Raw.AgentRequests)
	assert.False(t, aliceAgg.HookAdopted)

	carolAgg := rows[2]
	require.Equal(t, "carol@x.com", carolAgg.UserEmail)
	assert.True(t, carolAgg.IsAggregate())
	assert.Equal(t, int64(300), carolAgg.Raw.AgentRequests)
	assert.False(t, carolAgg.HookAdopted, "usage alone never establishes eligibility")
	assert.Equal(t, "30", carolAgg.TotalScore.String())
}

// TestBuildScoreRowsMultiProjectAggregate verifies per-user sums across
// projects and the OR of per-project eligibility.
func TestBuildScoreRowsMultiProjectAggregate(t *testing.T) {
	commits := map[Key]schema.RawMetrics{
		{UserEmail: "alice@x.com", ProjectID: 1}: {LinesAdded: 100, CommitCount: 2, FilesChanged: 5},
		{UserEmail: "alice@x.com", ProjectID: 2}: {LinesAdded: 30, CommitCount: 1, FilesChanged: 2},
	}
	sessions := map[Key]decimal.Decimal{
		{UserEmail: "alice@x.com", ProjectID: 2}: decimal.RequireFromString("2.5"),
	}

	rows := BuildScoreRows(testPeriod(), 1, commits, sessions, nil, weightsFixture())
	require.Len(t, rows, 3)

	assert.Equal(t, int64(1), rows[0].ProjectID)
	assert.False(t, rows[0].HookAdopted)
	assert.Equal(t, int64(2), rows[1].ProjectID)
	assert.True(t, rows[1].HookAdopted)

	agg := rows[2]
	assert.True(t, agg.IsAggregate())
	assert.Equal(t, int64(130), agg.Raw.LinesAdded)
	assert.Equal(t, int64(3), agg.Raw.CommitCount)
	assert.Equal(t, int64(7), agg.Raw.FilesChanged)
	assert.Equal(t, "2.5", agg.Raw.SessionHours.String())
	assert.True(t, agg.HookAdopted, "one eligible project makes the user eligible")
}

// TestBuildScoreRowsUnweightedDimensions: dimensions with no configured
// weight contribute nothing to the breakdown or the total.
func TestBuildScoreRowsUnweightedDimensions(t *testing.T) {
	weights := map[schema.Dimension]decimal.Decimal{
		schema.DimCommitCount: decimal.RequireFromString("1"),
	}
	commits := map[Key]schema.RawMetrics{
		{UserEmail: "alice@x.com", ProjectID: 1}: {LinesAdded: 9999, CommitCount: 3, LinesRemoved: 500},
	}

	rows := BuildScoreRows(testPeriod(), 1, commits, nil, nil, weights)
	require.Len(t, rows, 2)

	assert.Len(t, rows[0].Breakdown, 1)
	assert.Equal(t, "3", rows[0].TotalScore.String())
}

// TestBuildScoreRowsDeterministicOrder: the row order is a function of the
// input data, not of map iteration, so reruns insert identically.
func TestBuildScoreRowsDeterministicOrder(t *testing.T) {
	commits := map[Key]schema.RawMetrics{
		{UserEmail: "carol@x.com", ProjectID: 2}: {CommitCount: 1},
		{UserEmail: "alice@x.com", ProjectID: 9}: {CommitCount: 1},
		{UserEmail: "alice@x.com", ProjectID: 1}: {CommitCount: 1},
		{UserEmail: "bob@x.com", ProjectID: 5}:   {CommitCount: 1},
	}

	var first []schema.ScoreRow
	for range 20 {
		rows := BuildScoreRows(testPeriod(), 1, commits, nil, nil, weightsFixture())
		if first == nil {
			first = rows
			continue
		}
		require.Equal(t, first, rows)
	}

	// Per-project rows ordered by (user, project), then aggregates by user.
	assert.Equal(t, int64(1), first[0].ProjectID)
	assert.Equal(t, "alice@x.com", first[0].UserEmail)
	assert.Equal(t, int64(9), first[1].ProjectID)
	assert.Equal(t, "bob@x.com", first[2].UserEmail)
	assert.Equal(t, "carol@x.com", first[3].UserEmail)
	assert.True(t, first[4].IsAggregate())
}

// TestBuildScoreRowsEmpty verifies an all-empty merge yields no rows.
func TestBuildScoreRowsEmpty(t *testing.T) {
	rows := BuildScoreRows(testPeriod(), 1, nil, nil, nil, weightsFixture())
	assert.Empty(t, rows)
}
