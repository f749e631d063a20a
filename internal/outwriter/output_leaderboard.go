package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/shopspring/decimal"
)

// PrintLeaderboardResults outputs a leaderboard snapshot, dispatching based on the output format configured.
func PrintLeaderboardResults(snapshot *schema.LeaderboardSnapshot, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtScore, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeLeaderboardJSONResults(snapshot, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeLeaderboardCSVResults(snapshot, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is handled by the export command")
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLeaderboardTable(snapshot, cfg, fmtScore, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeLeaderboardJSONResults handles opening the file and calling the JSON writer.
func writeLeaderboardJSONResults(snapshot *schema.LeaderboardSnapshot, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONResultsForLeaderboard(w, snapshot)
	}, "Wrote JSON")
}

// writeLeaderboardCSVResults handles opening the file and calling the CSV writer.
func writeLeaderboardCSVResults(snapshot *schema.LeaderboardSnapshot, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{"rank", "user_email", "total_score", "period_type", "period_key"}
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			return writeCSVResultsForLeaderboard(csvWriter, snapshot)
		})
	}, "Wrote CSV")
}

// writeLeaderboardTable generates and writes the human-readable table.
func writeLeaderboardTable(snapshot *schema.LeaderboardSnapshot, cfg *contract.Config, fmtScore func(decimal.Decimal) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"Rank", "User", "Score"}
	table.Header(headers)

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	maxEmailWidth := GetMaxEmailWidth(cfg, false)
	var data [][]string
	for _, e := range snapshot.Entries {
		row := []string{
			contract.GetColorRank(e.Rank),
			contract.TruncateEmail(e.UserEmail, maxEmailWidth),
			fmtScore(e.TotalScore),
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Showing %d ranked contributors for %s %s\n",
		len(snapshot.Entries), snapshot.Granularity, snapshot.PeriodKey); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Snapshot generated at %s. Fetched in %v from %s backend\n",
		snapshot.GeneratedAt.Format(time.RFC3339), duration, cfg.Backend); err != nil {
		return err
	}
	return nil
}

// writeCSVResultsForLeaderboard writes the leaderboard in CSV format.
// Scores carry the exact decimal string so values round-trip losslessly.
func writeCSVResultsForLeaderboard(w *csv.Writer, snapshot *schema.LeaderboardSnapshot) error {
	for _, e := range snapshot.Entries {
		rec := []string{
			contract.GetPlainRank(e.Rank),
			e.UserEmail,
			e.TotalScore.String(),
			string(snapshot.Granularity),
			snapshot.PeriodKey,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeJSONResultsForLeaderboard writes the leaderboard in JSON format.
func writeJSONResultsForLeaderboard(w io.Writer, snapshot *schema.LeaderboardSnapshot) error {
	// 1. Prepare the data structure for JSON with exact, unquoted score numbers
	type JSONSnapshotEntry struct {
		Rank       int         `json:"rank"`
		UserEmail  string      `json:"user_email"`
		TotalScore json.Number `json:"total_score"`
	}
	type JSONLeaderboard struct {
		PeriodType  string              `json:"period_type"`
		PeriodKey   string              `json:"period_key"`
		Entries     []JSONSnapshotEntry `json:"entries"`
		GeneratedAt time.Time           `json:"generated_at"`
	}

	output := JSONLeaderboard{
		PeriodType:  string(snapshot.Granularity),
		PeriodKey:   snapshot.PeriodKey,
		Entries:     make([]JSONSnapshotEntry, len(snapshot.Entries)),
		GeneratedAt: snapshot.GeneratedAt,
	}
	for i, e := range snapshot.Entries {
		output.Entries[i] = JSONSnapshotEntry{
			Rank:       e.Rank,
			UserEmail:  e.UserEmail,
			TotalScore: json.Number(e.TotalScore.String()),
		}
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}
