package scorestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/devscore/schema"
	"github.com/shopspring/decimal"
)

// snapshotDoc is the JSON document stored in the leaderboard_snapshots table.
type snapshotDoc struct {
	Entries     []schema.SnapshotEntry `json:"entries"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// ReplacePeriod transactionally replaces all score rows for one period, runs
// the ranking pass over the persisted aggregate rows, and replaces the
// period's leaderboard snapshot. Surviving rows keep their surrogate id, so
// ranking ties keep breaking the same way across recomputes.
func (s *StoreImpl) ReplacePeriod(ctx context.Context, period schema.Period, ruleID int64, rows []schema.ScoreRow) (*schema.LeaderboardSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range rows {
		if err := s.upsertScoreRow(ctx, tx, &rows[i]); err != nil {
			return nil, err
		}
	}

	if err := s.deleteStaleRows(ctx, tx, period, rows); err != nil {
		return nil, err
	}

	entries, err := s.assignRanks(ctx, tx, period)
	if err != nil {
		return nil, err
	}

	snapshot := &schema.LeaderboardSnapshot{
		Granularity: period.Granularity,
		PeriodKey:   period.Key,
		Entries:     entries,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.upsertSnapshot(ctx, tx, snapshot); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit period replace: %w", err)
	}
	return snapshot, nil
}

// upsertScoreRow inserts or fully replaces one score row. Rank always resets
// to NULL; the ranking pass reassigns it afterwards.
func (s *StoreImpl) upsertScoreRow(ctx context.Context, tx *sql.Tx, row *schema.ScoreRow) error {
	breakdownJSON, err := marshalBreakdown(row.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}

	quotedTableName := quoteTableName(scoresTable, s.backend)
	rankCol := rankColumn(s.backend)

	var query string
	switch s.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (
				user_email, project_id, period_type, period_key, rule_id,
				lines_added, lines_removed, commit_count, files_changed,
				session_duration_hours, agent_requests,
				score_breakdown, total_score, %s, hook_adopted
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?) AS new
			ON DUPLICATE KEY UPDATE
				rule_id = new.rule_id,
				lines_added = new.lines_added,
				lines_removed = new.lines_removed,
				commit_count = new.commit_count,
				files_changed = new.files_changed,
				session_duration_hours = new.session_duration_hours,
				agent_requests = new.agent_requests,
				score_breakdown = new.score_breakdown,
				total_score = new.total_score,
				%s = NULL,
				hook_adopted = new.hook_adopted`, quotedTableName, rankCol, rankCol)

	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (
				user_email, project_id, period_type, period_key, rule_id,
				lines_added, lines_removed, commit_count, files_changed,
				session_duration_hours, agent_requests,
				score_breakdown, total_score, rank, hook_adopted
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULL, $14)
			ON CONFLICT (user_email, project_id, period_type, period_key) DO UPDATE SET
				rule_id = EXCLUDED.rule_id,
				lines_added = EXCLUDED.lines_added,
				lines_removed = EXCLUDED.lines_removed,
				commit_count = EXCLUDED.commit_count,
				files_changed = EXCLUDED.files_changed,
				session_duration_hours = EXCLUDED.session_duration_hours,
				agent_requests = EXCLUDED.agent_requests,
				score_breakdown = EXCLUDED.score_breakdown,
				total_score = EXCLUDED.total_score,
				rank = NULL,
				hook_adopted = EXCLUDED.hook_adopted`, quotedTableName)

	default: // SQLite
		query = fmt.Sprintf(`INSERT INTO %s (
				user_email, project_id, period_type, period_key, rule_id,
				lines_added, lines_removed, commit_count, files_changed,
				session_duration_hours, agent_requests,
				score_breakdown, total_score, rank, hook_adopted
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
			ON CONFLICT (user_email, project_id, period_type, period_key) DO UPDATE SET
				rule_id = excluded.rule_id,
				lines_added = excluded.lines_added,
				lines_removed = excluded.lines_removed,
				commit_count = excluded.commit_count,
				files_changed = excluded.files_changed,
				session_duration_hours = excluded.session_duration_hours,
				agent_requests = excluded.agent_requests,
				score_breakdown = excluded.score_breakdown,
				total_score = excluded.total_score,
				rank = NULL,
				hook_adopted = excluded.hook_adopted`, quotedTableName)
	}

	_, err = tx.ExecContext(ctx, query,
		row.UserEmail, row.ProjectID, string(row.Granularity), row.PeriodKey, row.RuleID,
		row.Raw.LinesAdded, row.Raw.LinesRemoved, row.Raw.CommitCount, row.Raw.FilesChanged,
		row.Raw.SessionHours.String(), row.Raw.AgentRequests,
		breakdownJSON, row.TotalScore.String(), row.HookAdopted)
	if err != nil {
		return fmt.Errorf("failed to upsert score row for %s: %w", row.UserEmail, err)
	}
	return nil
}

// deleteStaleRows removes persisted rows of the period whose key no longer
// appears in the freshly computed row set. Without this a user who vanished
// from the facts would keep a stale score and could still hold a rank.
func (s *StoreImpl) deleteStaleRows(ctx context.Context, tx *sql.Tx, period schema.Period, rows []schema.ScoreRow) error {
	type rowKey struct {
		userEmail string
		projectID int64
	}
	fresh := make(map[rowKey]struct{}, len(rows))
	for i := range rows {
		fresh[rowKey{rows[i].UserEmail, rows[i].ProjectID}] = struct{}{}
	}

	quotedTableName := quoteTableName(scoresTable, s.backend)
	query := fmt.Sprintf(`SELECT id, user_email, project_id FROM %s WHERE period_type = %s AND period_key = %s`,
		quotedTableName, s.placeholder(1), s.placeholder(2))

	existing, err := tx.QueryContext(ctx, query, string(period.Granularity), period.Key)
	if err != nil {
		return fmt.Errorf("failed to query existing period rows: %w", err)
	}
	var staleIDs []int64
	for existing.Next() {
		var id int64
		var key rowKey
		if err := existing.Scan(&id, &key.userEmail, &key.projectID); err != nil {
			_ = existing.Close()
			return fmt.Errorf("failed to scan existing period row: %w", err)
		}
		if _, ok := fresh[key]; !ok {
			staleIDs = append(staleIDs, id)
		}
	}
	if err := existing.Err(); err != nil {
		_ = existing.Close()
		return fmt.Errorf("error iterating existing period rows: %w", err)
	}
	_ = existing.Close()

	if len(staleIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(staleIDs))
	args := make([]any, len(staleIDs))
	for i, id := range staleIDs {
		placeholders[i] = s.placeholder(i + 1)
		args[i] = id
	}
	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", quotedTableName, strings.Join(placeholders, ", "))
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		return fmt.Errorf("failed to delete stale period rows: %w", err)
	}
	return nil
}

// rankedRow is an eligible aggregate row loaded for the ranking pass.
type rankedRow struct {
	id         int64
	userEmail  string
	totalScore decimal.Decimal
}

// assignRanks orders the period's eligible aggregate rows by total score
// descending with ties broken by insertion order, writes dense ranks 1..N
// back, and returns the ordered snapshot entries. Scores live in storage as
// decimal strings, so the ordering happens here rather than in SQL.
func (s *StoreImpl) assignRanks(ctx context.Context, tx *sql.Tx, period schema.Period) ([]schema.SnapshotEntry, error) {
	quotedTableName := quoteTableName(scoresTable, s.backend)
	query := fmt.Sprintf(`SELECT id, user_email, total_score FROM %s
		WHERE period_type = %s AND period_key = %s AND project_id = %s AND hook_adopted = %s`,
		quotedTableName, s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))

	rows, err := tx.QueryContext(ctx, query,
		string(period.Granularity), period.Key, schema.AggregateProjectID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible rows: %w", err)
	}

	var ranked []rankedRow
	for rows.Next() {
		var r rankedRow
		var scoreStr string
		if err := rows.Scan(&r.id, &r.userEmail, &scoreStr); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan eligible row: %w", err)
		}
		r.totalScore, err = decimal.NewFromString(scoreStr)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to parse total score %q: %w", scoreStr, err)
		}
		ranked = append(ranked, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating eligible rows: %w", err)
	}
	_ = rows.Close()

	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].totalScore.Equal(ranked[j].totalScore) {
			return ranked[i].totalScore.GreaterThan(ranked[j].totalScore)
		}
		return ranked[i].id < ranked[j].id
	})

	updateQuery := fmt.Sprintf("UPDATE %s SET %s = %s WHERE id = %s",
		quotedTableName, rankColumn(s.backend), s.placeholder(1), s.placeholder(2))

	entries := make([]schema.SnapshotEntry, 0, len(ranked))
	for i, r := range ranked {
		rank := i + 1
		if _, err := tx.ExecContext(ctx, updateQuery, rank, r.id); err != nil {
			return nil, fmt.Errorf("failed to assign rank %d: %w", rank, err)
		}
		entries = append(entries, schema.SnapshotEntry{
			Rank:       rank,
			UserEmail:  r.userEmail,
			TotalScore: r.totalScore,
		})
	}
	return entries, nil
}

// upsertSnapshot replaces the period's snapshot document wholesale.
func (s *StoreImpl) upsertSnapshot(ctx context.Context, tx *sql.Tx, snapshot *schema.LeaderboardSnapshot) error {
	doc, err := json.Marshal(snapshotDoc{
		Entries:     snapshot.Entries,
		GeneratedAt: snapshot.GeneratedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	quotedTableName := quoteTableName(snapshotsTable, s.backend)
	createdAt := formatTime(snapshot.GeneratedAt, s.backend)

	var query string
	switch s.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (period_type, period_key, snapshot, created_at) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE snapshot = new.snapshot, created_at = new.created_at`, quotedTableName)

	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (period_type, period_key, snapshot, created_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (period_type, period_key) DO UPDATE SET snapshot = EXCLUDED.snapshot, created_at = EXCLUDED.created_at`, quotedTableName)

	default: // SQLite
		query = fmt.Sprintf(`INSERT INTO %s (period_type, period_key, snapshot, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (period_type, period_key) DO UPDATE SET snapshot = excluded.snapshot, created_at = excluded.created_at`, quotedTableName)
	}

	if _, err := tx.ExecContext(ctx, query, string(snapshot.Granularity), snapshot.PeriodKey, string(doc), createdAt); err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// marshalBreakdown serializes a score breakdown with exact decimal values as
// plain JSON numbers.
func marshalBreakdown(breakdown map[schema.Dimension]decimal.Decimal) (string, error) {
	numbers := make(map[string]json.Number, len(breakdown))
	for dim, v := range breakdown {
		numbers[string(dim)] = json.Number(v.String())
	}
	raw, err := json.Marshal(numbers)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
