package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/shopspring/decimal"
)

// PrintScoreRowResults outputs score rows, dispatching based on the output format configured.
func PrintScoreRowResults(rows []schema.ScoreRow, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtScore, intFmt := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeScoreJSONResults(rows, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeScoreCSVResults(rows, cfg, intFmt); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is handled by the export command")
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoreTable(rows, cfg, fmtScore, intFmt, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeScoreJSONResults handles opening the file and calling the JSON writer.
func writeScoreJSONResults(rows []schema.ScoreRow, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONResultsForScores(w, rows)
	}, "Wrote JSON")
}

// writeScoreCSVResults handles opening the file and calling the CSV writer.
func writeScoreCSVResults(rows []schema.ScoreRow, cfg *contract.Config, intFmt string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeCSVResultsForScores(csvWriter, rows, intFmt)
	}, "Wrote CSV")
}

// formatProjectID renders the project column, using a readable label for the
// cross-project aggregate row.
func formatProjectID(projectID int64) string {
	if projectID == schema.AggregateProjectID {
		return "all"
	}
	return strconv.FormatInt(projectID, 10)
}

// formatRank renders an optional rank.
func formatRank(rank *int) string {
	if rank == nil {
		return "-"
	}
	return contract.GetPlainRank(*rank)
}

// writeScoreTable generates and writes the human-readable table.
func writeScoreTable(rows []schema.ScoreRow, cfg *contract.Config, fmtScore func(decimal.Decimal) string, intFmt string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"User", "Project", "Hook", "Commits", "Lines+", "Lines-", "Files", "Hours", "Reqs", "Score", "Rank"}
	table.Header(headers)

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	maxEmailWidth := GetMaxEmailWidth(cfg, true)
	var data [][]string
	for i := range rows {
		r := &rows[i]
		row := []string{
			contract.TruncateEmail(r.UserEmail, maxEmailWidth),
			formatProjectID(r.ProjectID),
			strconv.FormatBool(r.HookAdopted),
			fmt.Sprintf(intFmt, r.Raw.CommitCount),
			fmt.Sprintf(intFmt, r.Raw.LinesAdded),
			fmt.Sprintf(intFmt, r.Raw.LinesRemoved),
			fmt.Sprintf(intFmt, r.Raw.FilesChanged),
			fmtScore(r.Raw.SessionHours),
			fmt.Sprintf(intFmt, r.Raw.AgentRequests),
			fmtScore(r.TotalScore),
			formatRank(r.Rank),
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
	// Compute summary stats
	aggregates := 0
	for i := range rows {
		if rows[i].IsAggregate() {
			aggregates++
		}
	}
	if _, err := fmt.Fprintf(writer, "Showing %d score rows (%d aggregate, %d per-project)\n",
		len(rows), aggregates, len(rows)-aggregates); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Fetched in %v from %s backend\n", duration, cfg.Backend); err != nil {
		return err
	}
	return nil
}

// writeCSVResultsForScores writes score rows in CSV format.
// Decimal columns carry the exact string so values round-trip losslessly.
func writeCSVResultsForScores(w *csv.Writer, rows []schema.ScoreRow, intFmt string) error {
	// CSV header
	header := []string{
		"user_email",
		"project_id",
		"period_type",
		"period_key",
		"hook_adopted",
		"commit_count",
		"lines_added",
		"lines_removed",
		"files_changed",
		"session_hours",
		"agent_requests",
		"total_score",
		"rank",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		rank := ""
		if r.Rank != nil {
			rank = strconv.Itoa(*r.Rank)
		}
		rec := []string{
			r.UserEmail,
			strconv.FormatInt(r.ProjectID, 10),
			string(r.Granularity),
			r.PeriodKey,
			strconv.FormatBool(r.HookAdopted),
			fmt.Sprintf(intFmt, r.Raw.CommitCount),
			fmt.Sprintf(intFmt, r.Raw.LinesAdded),
			fmt.Sprintf(intFmt, r.Raw.LinesRemoved),
			fmt.Sprintf(intFmt, r.Raw.FilesChanged),
			r.Raw.SessionHours.String(),
			fmt.Sprintf(intFmt, r.Raw.AgentRequests),
			r.TotalScore.String(),
			rank,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// writeJSONResultsForScores writes score rows in JSON format.
func writeJSONResultsForScores(w io.Writer, rows []schema.ScoreRow) error {
	// 1. Prepare the data structure for JSON with exact, unquoted decimal numbers
	type JSONScoreRow struct {
		UserEmail     string                 `json:"user_email"`
		ProjectID     int64                  `json:"project_id"`
		PeriodType    string                 `json:"period_type"`
		PeriodKey     string                 `json:"period_key"`
		RuleID        int64                  `json:"rule_id"`
		HookAdopted   bool                   `json:"hook_adopted"`
		CommitCount   int64                  `json:"commit_count"`
		LinesAdded    int64                  `json:"lines_added"`
		LinesRemoved  int64                  `json:"lines_removed"`
		FilesChanged  int64                  `json:"files_changed"`
		SessionHours  json.Number            `json:"session_duration_hours"`
		AgentRequests int64                  `json:"agent_requests"`
		Breakdown     map[string]json.Number `json:"score_breakdown"`
		TotalScore    json.Number            `json:"total_score"`
		Rank          *int                   `json:"rank"`
	}

	output := make([]JSONScoreRow, len(rows))
	for i := range rows {
		r := &rows[i]
		breakdown := make(map[string]json.Number, len(r.Breakdown))
		for dim, v := range r.Breakdown {
			breakdown[string(dim)] = json.Number(v.String())
		}
		output[i] = JSONScoreRow{
			UserEmail:     r.UserEmail,
			ProjectID:     r.ProjectID,
			PeriodType:    string(r.Granularity),
			PeriodKey:     r.PeriodKey,
			RuleID:        r.RuleID,
			HookAdopted:   r.HookAdopted,
			CommitCount:   r.Raw.CommitCount,
			LinesAdded:    r.Raw.LinesAdded,
			LinesRemoved:  r.Raw.LinesRemoved,
			FilesChanged:  r.Raw.FilesChanged,
			SessionHours:  json.Number(r.Raw.SessionHours.String()),
			AgentRequests: r.Raw.AgentRequests,
			Breakdown:     breakdown,
			TotalScore:    json.Number(r.TotalScore.String()),
			Rank:          r.Rank,
		}
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}
