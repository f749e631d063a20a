package scorestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/internal/parquet"
	"github.com/huangsam/devscore/schema"
)

// ExecuteScoreExport exports one period's score rows and leaderboard snapshot
// to Parquet files.
func ExecuteScoreExport(ctx context.Context, store contract.ScoreStore, granularity schema.Granularity, periodKey, outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	// Retrieve all score rows for the period
	rows, err := store.ListPeriodRows(ctx, granularity, periodKey)
	if err != nil {
		return fmt.Errorf("failed to retrieve score rows: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no score data found for %s %s", granularity, periodKey)
	}

	fmt.Printf("Exporting %s %s...\n", granularity, periodKey)
	fmt.Printf("Total score rows: %d\n", len(rows))

	// Write score rows to Parquet
	scoresFile := outputFile + ".scores.parquet"
	if err := parquet.WriteScoreRecordsParquet(parquet.ConvertScoreRows(rows), scoresFile); err != nil {
		return fmt.Errorf("failed to write score rows: %w", err)
	}
	fmt.Printf("Exported %d score rows to: %s\n", len(rows), scoresFile)

	// Write the leaderboard snapshot to Parquet when one exists
	snapshot, err := store.GetSnapshot(ctx, granularity, periodKey)
	if err != nil {
		return fmt.Errorf("failed to retrieve snapshot: %w", err)
	}
	if snapshot != nil {
		snapshotFile := outputFile + ".leaderboard.parquet"
		records := parquet.ConvertSnapshot(snapshot)
		if err := parquet.WriteSnapshotRecordsParquet(records, snapshotFile); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		fmt.Printf("Exported %d leaderboard entries to: %s\n", len(records), snapshotFile)
	}

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
