package parquet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/devscore/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreRowFixtures() []schema.ScoreRow {
	rank := 1
	return []schema.ScoreRow{
		{
			UserEmail:   "alice@example.com",
			ProjectID:   schema.AggregateProjectID,
			Granularity: schema.Weekly,
			PeriodKey:   "2026-W08",
			RuleID:      1,
			Raw: schema.RawMetrics{
				LinesAdded:    120,
				LinesRemoved:  30,
				CommitCount:   4,
				FilesChanged:  9,
				SessionHours:  decimal.RequireFromString("2.5"),
				AgentRequests: 17,
			},
			Breakdown: map[schema.Dimension]decimal.Decimal{
				schema.DimCommitCount: decimal.RequireFromString("1.4"),
			},
			TotalScore:  decimal.RequireFromString("36.15"),
			Rank:        &rank,
			HookAdopted: true,
		},
		{
			UserEmail:   "alice@example.com",
			ProjectID:   7,
			Granularity: schema.Weekly,
			PeriodKey:   "2026-W08",
			RuleID:      1,
			Raw: schema.RawMetrics{
				CommitCount:  4,
				SessionHours: decimal.Zero,
			},
			TotalScore:  decimal.RequireFromString("12.4"),
			HookAdopted: true,
		},
	}
}

func snapshotFixture() *schema.LeaderboardSnapshot {
	return &schema.LeaderboardSnapshot{
		Granularity: schema.Weekly,
		PeriodKey:   "2026-W08",
		Entries: []schema.SnapshotEntry{
			{Rank: 1, UserEmail: "bob@example.com", TotalScore: decimal.RequireFromString("50")},
			{Rank: 2, UserEmail: "alice@example.com", TotalScore: decimal.RequireFromString("36.15")},
		},
		GeneratedAt: time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestScoreRecordStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	pqSchema := parquet.SchemaOf(new(ScoreRecord))
	require.NotNil(t, pqSchema)

	// Check that all expected columns exist
	expectedColumns := []string{
		"user_email",
		"project_id",
		"period_type",
		"period_key",
		"rule_id",
		"hook_adopted",
		"commit_count",
		"lines_added",
		"lines_removed",
		"files_changed",
		"session_duration_hours",
		"agent_requests",
		"score_breakdown",
		"total_score",
		"rank",
	}

	for _, colName := range expectedColumns {
		col, ok := pqSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestSnapshotRecordStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	pqSchema := parquet.SchemaOf(new(SnapshotRecord))
	require.NotNil(t, pqSchema)

	// Check that all expected columns exist
	expectedColumns := []string{
		"period_type",
		"period_key",
		"rank",
		"user_email",
		"total_score",
		"generated_at",
	}

	for _, colName := range expectedColumns {
		col, ok := pqSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestConvertScoreRows(t *testing.T) {
	records := ConvertScoreRows(scoreRowFixtures())
	require.Len(t, records, 2)

	assert.Equal(t, "alice@example.com", records[0].UserEmail)
	assert.Equal(t, int64(0), records[0].ProjectID)
	assert.Equal(t, "weekly", records[0].PeriodType)
	assert.Equal(t, "2.5", records[0].SessionHours)
	assert.Equal(t, "36.15", records[0].TotalScore)
	assert.Contains(t, records[0].ScoreBreakdown, `"commit_count":1.4`)
	require.NotNil(t, records[0].Rank)
	assert.Equal(t, int32(1), *records[0].Rank)

	assert.Equal(t, int64(7), records[1].ProjectID)
	assert.Equal(t, "0", records[1].SessionHours)
	assert.Nil(t, records[1].Rank)
}

func TestConvertSnapshot(t *testing.T) {
	records := ConvertSnapshot(snapshotFixture())
	require.Len(t, records, 2)

	assert.Equal(t, "weekly", records[0].PeriodType)
	assert.Equal(t, "2026-W08", records[0].PeriodKey)
	assert.Equal(t, int32(1), records[0].Rank)
	assert.Equal(t, "bob@example.com", records[0].UserEmail)
	assert.Equal(t, "50", records[0].TotalScore)
	assert.Equal(t, int32(2), records[1].Rank)
}

func TestWriteScoreRecordsParquet(t *testing.T) {
	// Create temporary directory for test output
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "scores.parquet")

	data := ConvertScoreRows(scoreRowFixtures())
	require.NotEmpty(t, data)

	// Write data to Parquet file
	err := WriteScoreRecordsParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	// Verify file was created
	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	// Read back and verify data
	file, err := os.Open(outputPath)
	require.NoError(t, err, "Should be able to open output file")
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[ScoreRecord](file)
	defer func() { _ = reader.Close() }()

	readBack := make([]ScoreRecord, len(data))
	n, err := reader.Read(readBack)
	require.Equal(t, len(data), n)
	_ = err // io.EOF is expected once all rows are consumed

	assert.Equal(t, data[0].UserEmail, readBack[0].UserEmail)
	assert.Equal(t, data[0].TotalScore, readBack[0].TotalScore)
	require.NotNil(t, readBack[0].Rank)
	assert.Equal(t, int32(1), *readBack[0].Rank)
	assert.Nil(t, readBack[1].Rank)
}

func TestWriteSnapshotRecordsParquet(t *testing.T) {
	// Create temporary directory for test output
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "snapshot.parquet")

	data := ConvertSnapshot(snapshotFixture())
	require.NotEmpty(t, data)

	// Write data to Parquet file
	err := WriteSnapshotRecordsParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")
}
