package scorestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/devscore/schema"
	"github.com/shopspring/decimal"
)

// scoreColumns is the column list shared by every score row read.
const scoreColumns = `user_email, project_id, period_type, period_key, rule_id,
	lines_added, lines_removed, commit_count, files_changed,
	session_duration_hours, agent_requests, score_breakdown, total_score, %s, hook_adopted`

// selectScoreColumns renders scoreColumns with the backend's rank quoting.
func (s *StoreImpl) selectScoreColumns() string {
	return fmt.Sprintf(scoreColumns, rankColumn(s.backend))
}

// scanScoreRow converts one database row into a ScoreRow.
func scanScoreRow(scanner interface{ Scan(dest ...any) error }) (*schema.ScoreRow, error) {
	var (
		row          schema.ScoreRow
		granularity  string
		sessionHours string
		breakdownRaw string
		totalScore   string
		rank         sql.NullInt64
	)
	err := scanner.Scan(
		&row.UserEmail, &row.ProjectID, &granularity, &row.PeriodKey, &row.RuleID,
		&row.Raw.LinesAdded, &row.Raw.LinesRemoved, &row.Raw.CommitCount, &row.Raw.FilesChanged,
		&sessionHours, &row.Raw.AgentRequests, &breakdownRaw, &totalScore, &rank, &row.HookAdopted)
	if err != nil {
		return nil, err
	}

	row.Granularity = schema.Granularity(granularity)
	if row.Raw.SessionHours, err = decimal.NewFromString(sessionHours); err != nil {
		return nil, fmt.Errorf("failed to parse session hours %q: %w", sessionHours, err)
	}
	if row.TotalScore, err = decimal.NewFromString(totalScore); err != nil {
		return nil, fmt.Errorf("failed to parse total score %q: %w", totalScore, err)
	}
	if row.Breakdown, err = schema.ParseWeights([]byte(breakdownRaw)); err != nil {
		return nil, fmt.Errorf("failed to parse score breakdown: %w", err)
	}
	if rank.Valid {
		r := int(rank.Int64)
		row.Rank = &r
	}
	return &row, nil
}

// GetAggregate fetches a user's aggregate row for a period, or nil when the
// user has no row.
func (s *StoreImpl) GetAggregate(ctx context.Context, userEmail string, granularity schema.Granularity, periodKey string) (*schema.ScoreRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE user_email = %s AND project_id = %s AND period_type = %s AND period_key = %s`,
		s.selectScoreColumns(), quoteTableName(scoresTable, s.backend),
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))

	row, err := scanScoreRow(s.db.QueryRowContext(ctx, query,
		userEmail, schema.AggregateProjectID, string(granularity), periodKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate row for %s: %w", userEmail, err)
	}
	return row, nil
}

// GetSnapshot fetches the leaderboard snapshot for a period, or nil when
// none has been generated.
func (s *StoreImpl) GetSnapshot(ctx context.Context, granularity schema.Granularity, periodKey string) (*schema.LeaderboardSnapshot, error) {
	query := fmt.Sprintf(`SELECT snapshot FROM %s WHERE period_type = %s AND period_key = %s`,
		quoteTableName(snapshotsTable, s.backend), s.placeholder(1), s.placeholder(2))

	var raw string
	err := s.db.QueryRowContext(ctx, query, string(granularity), periodKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for %s %s: %w", granularity, periodKey, err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot for %s %s: %w", granularity, periodKey, err)
	}
	return &schema.LeaderboardSnapshot{
		Granularity: granularity,
		PeriodKey:   periodKey,
		Entries:     doc.Entries,
		GeneratedAt: doc.GeneratedAt,
	}, nil
}

// ListUserRows returns all of a user's score rows for a period, aggregate
// first then by project id.
func (s *StoreImpl) ListUserRows(ctx context.Context, userEmail string, granularity schema.Granularity, periodKey string) ([]schema.ScoreRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE user_email = %s AND period_type = %s AND period_key = %s
		ORDER BY project_id`,
		s.selectScoreColumns(), quoteTableName(scoresTable, s.backend),
		s.placeholder(1), s.placeholder(2), s.placeholder(3))

	return s.queryScoreRows(ctx, query, userEmail, string(granularity), periodKey)
}

// ListPeriodRows returns every score row for a period ordered by user then
// project, for exports and leaderboard listings.
func (s *StoreImpl) ListPeriodRows(ctx context.Context, granularity schema.Granularity, periodKey string) ([]schema.ScoreRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE period_type = %s AND period_key = %s
		ORDER BY user_email, project_id`,
		s.selectScoreColumns(), quoteTableName(scoresTable, s.backend),
		s.placeholder(1), s.placeholder(2))

	return s.queryScoreRows(ctx, query, string(granularity), periodKey)
}

// queryScoreRows runs a score row query and scans all results.
func (s *StoreImpl) queryScoreRows(ctx context.Context, query string, args ...any) ([]schema.ScoreRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query score rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ScoreRow
	for rows.Next() {
		row, err := scanScoreRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		results = append(results, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score rows: %w", err)
	}
	return results, nil
}
