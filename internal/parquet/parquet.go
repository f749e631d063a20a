// Package parquet provides data structures and functions for exporting
// contribution score data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/devscore/schema"
	"github.com/parquet-go/parquet-go"
)

// ScoreRecord represents a single persisted contribution score row.
// This struct maps to the contribution_scores database table. Decimal
// columns are exported as exact strings so no precision is lost.
type ScoreRecord struct {
	// UserEmail identifies the contributor
	UserEmail string `parquet:"user_email,snappy"`

	// ProjectID is the project the row belongs to (0 for the cross-project aggregate)
	ProjectID int64 `parquet:"project_id,snappy"`

	// PeriodType is the period granularity (daily, weekly, monthly)
	PeriodType string `parquet:"period_type,snappy"`

	// PeriodKey is the canonical period key (e.g. 2026-02-18, 2026-W08, 2026-02)
	PeriodKey string `parquet:"period_key,snappy"`

	// RuleID references the incentive rule the score was computed with
	RuleID int64 `parquet:"rule_id,snappy"`

	// HookAdopted reports whether the user had the tracking hook installed
	HookAdopted bool `parquet:"hook_adopted,snappy"`

	// CommitCount is the number of commits in the period
	CommitCount int64 `parquet:"commit_count,snappy"`

	// LinesAdded is the number of lines added in the period
	LinesAdded int64 `parquet:"lines_added,snappy"`

	// LinesRemoved is the number of lines removed in the period
	LinesRemoved int64 `parquet:"lines_removed,snappy"`

	// FilesChanged is the number of files touched in the period
	FilesChanged int64 `parquet:"files_changed,snappy"`

	// SessionHours is the capped session duration as an exact decimal string
	SessionHours string `parquet:"session_duration_hours,snappy"`

	// AgentRequests is the capped agent request count in the period
	AgentRequests int64 `parquet:"agent_requests,snappy"`

	// ScoreBreakdown is the JSON-encoded per-dimension weighted contributions
	ScoreBreakdown string `parquet:"score_breakdown,snappy"`

	// TotalScore is the weighted total as an exact decimal string
	TotalScore string `parquet:"total_score,snappy"`

	// Rank is the leaderboard rank (nullable, only set on eligible aggregate rows)
	Rank *int32 `parquet:"rank,optional,snappy"`
}

// SnapshotRecord represents one ordered leaderboard line from a snapshot.
// This struct maps to the leaderboard_snapshots database table, flattened
// to one row per entry.
type SnapshotRecord struct {
	// PeriodType is the period granularity (daily, weekly, monthly)
	PeriodType string `parquet:"period_type,snappy"`

	// PeriodKey is the canonical period key
	PeriodKey string `parquet:"period_key,snappy"`

	// Rank is the dense leaderboard rank, starting at 1
	Rank int32 `parquet:"rank,snappy"`

	// UserEmail identifies the ranked contributor
	UserEmail string `parquet:"user_email,snappy"`

	// TotalScore is the weighted total as an exact decimal string
	TotalScore string `parquet:"total_score,snappy"`

	// GeneratedAt is when the snapshot was computed (stored as TIMESTAMP with nanosecond precision)
	GeneratedAt time.Time `parquet:"generated_at,snappy"`
}

// WriteScoreRecordsParquet writes a slice of ScoreRecord structs to a Parquet file.
func WriteScoreRecordsParquet(data []ScoreRecord, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the ScoreRecord struct tags
	writer := parquet.NewGenericWriter[ScoreRecord](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteSnapshotRecordsParquet writes a slice of SnapshotRecord structs to a Parquet file.
func WriteSnapshotRecordsParquet(data []SnapshotRecord, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the SnapshotRecord struct tags
	writer := parquet.NewGenericWriter[SnapshotRecord](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// ConvertScoreRows converts schema.ScoreRow to ScoreRecord for Parquet export.
func ConvertScoreRows(rows []schema.ScoreRow) []ScoreRecord {
	result := make([]ScoreRecord, len(rows))
	for i := range rows {
		row := &rows[i]
		var rank *int32
		if row.Rank != nil {
			v := int32(*row.Rank)
			rank = &v
		}
		breakdown := make(map[string]json.Number, len(row.Breakdown))
		for dim, v := range row.Breakdown {
			breakdown[string(dim)] = json.Number(v.String())
		}
		breakdownJSON, err := json.Marshal(breakdown)
		if err != nil {
			breakdownJSON = []byte("{}")
		}
		result[i] = ScoreRecord{
			UserEmail:      row.UserEmail,
			ProjectID:      row.ProjectID,
			PeriodType:     string(row.Granularity),
			PeriodKey:      row.PeriodKey,
			RuleID:         row.RuleID,
			HookAdopted:    row.HookAdopted,
			CommitCount:    row.Raw.CommitCount,
			LinesAdded:     row.Raw.LinesAdded,
			LinesRemoved:   row.Raw.LinesRemoved,
			FilesChanged:   row.Raw.FilesChanged,
			SessionHours:   row.Raw.SessionHours.String(),
			AgentRequests:  row.Raw.AgentRequests,
			ScoreBreakdown: string(breakdownJSON),
			TotalScore:     row.TotalScore.String(),
			Rank:           rank,
		}
	}
	return result
}

// ConvertSnapshot converts a schema.LeaderboardSnapshot to SnapshotRecord rows for Parquet export.
func ConvertSnapshot(snapshot *schema.LeaderboardSnapshot) []SnapshotRecord {
	result := make([]SnapshotRecord, len(snapshot.Entries))
	for i, entry := range snapshot.Entries {
		result[i] = SnapshotRecord{
			PeriodType:  string(snapshot.Granularity),
			PeriodKey:   snapshot.PeriodKey,
			Rank:        int32(entry.Rank),
			UserEmail:   entry.UserEmail,
			TotalScore:  entry.TotalScore.String(),
			GeneratedAt: snapshot.GeneratedAt,
		}
	}
	return result
}
