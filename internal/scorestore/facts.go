package scorestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
)

// placeholder returns the nth parameter placeholder for the backend (1-based).
func (s *StoreImpl) placeholder(n int) string {
	if s.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// GetRule loads an enabled scoring rule by id.
func (s *StoreImpl) GetRule(ctx context.Context, ruleID int64) (*schema.Rule, error) {
	rule, err := s.GetAnyRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !rule.Enabled {
		return nil, fmt.Errorf("rule %d: %w", ruleID, contract.ErrRuleNotFound)
	}
	return rule, nil
}

// GetAnyRule loads a rule by id regardless of its enabled flag.
func (s *StoreImpl) GetAnyRule(ctx context.Context, ruleID int64) (*schema.Rule, error) {
	query := fmt.Sprintf(`SELECT id, name, weights, caps, enabled FROM %s WHERE id = %s`,
		quoteTableName(rulesTable, s.backend), s.placeholder(1))

	var (
		rule       schema.Rule
		weightsRaw string
		capsRaw    string
	)
	row := s.db.QueryRowContext(ctx, query, ruleID)
	if err := row.Scan(&rule.ID, &rule.Name, &weightsRaw, &capsRaw, &rule.Enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %d: %w", ruleID, contract.ErrRuleNotFound)
		}
		return nil, fmt.Errorf("failed to load rule %d: %w", ruleID, err)
	}

	weights, err := schema.ParseWeights([]byte(weightsRaw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse weights for rule %d: %w", ruleID, err)
	}
	caps, err := schema.ParseCaps([]byte(capsRaw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse caps for rule %d: %w", ruleID, err)
	}
	rule.Weights = weights
	rule.Caps = caps
	return &rule, nil
}

// SaveRule validates and upserts a scoring rule. Rules with unknown dimension
// or cap names, or negative values, are rejected before touching storage.
func (s *StoreImpl) SaveRule(ctx context.Context, rule *schema.Rule) error {
	// Weights serialize as plain JSON numbers so they survive a round trip
	// through ParseWeights with their exact decimal values intact.
	weightNumbers := make(map[string]json.Number, len(rule.Weights))
	for dim, w := range rule.Weights {
		weightNumbers[string(dim)] = json.Number(w.String())
	}
	weightsJSON, err := json.Marshal(weightNumbers)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	capsJSON, err := json.Marshal(rule.Caps)
	if err != nil {
		return fmt.Errorf("failed to marshal caps: %w", err)
	}
	if err := schema.ValidateRuleJSON(weightsJSON, capsJSON); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	quotedTableName := quoteTableName(rulesTable, s.backend)

	var query string
	switch s.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (id, name, weights, caps, enabled) VALUES (?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE name = new.name, weights = new.weights, caps = new.caps, enabled = new.enabled`, quotedTableName)

	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (id, name, weights, caps, enabled) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, weights = EXCLUDED.weights, caps = EXCLUDED.caps, enabled = EXCLUDED.enabled`, quotedTableName)

	default: // SQLite
		query = fmt.Sprintf(`INSERT INTO %s (id, name, weights, caps, enabled) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, weights = excluded.weights, caps = excluded.caps, enabled = excluded.enabled`, quotedTableName)
	}

	if _, err := s.db.ExecContext(ctx, query, rule.ID, rule.Name, string(weightsJSON), string(capsJSON), rule.Enabled); err != nil {
		return fmt.Errorf("failed to save rule %d: %w", rule.ID, err)
	}
	return nil
}

// CommitTotals returns commit facts summed per (project, author) across the
// inclusive [start, end] day range.
func (s *StoreImpl) CommitTotals(ctx context.Context, start, end time.Time) ([]schema.CommitTotal, error) {
	query := fmt.Sprintf(`
		SELECT project_id, author_email,
		       COALESCE(SUM(commit_count), 0),
		       COALESCE(SUM(lines_added), 0),
		       COALESCE(SUM(lines_removed), 0),
		       COALESCE(SUM(files_changed), 0)
		FROM %s
		WHERE commit_date >= %s AND commit_date <= %s
		GROUP BY project_id, author_email`,
		quoteTableName(commitsTable, s.backend), s.placeholder(1), s.placeholder(2))

	rows, err := s.db.QueryContext(ctx, query, formatDay(start, s.backend), formatDay(end, s.backend))
	if err != nil {
		return nil, fmt.Errorf("failed to query commit facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.CommitTotal
	for rows.Next() {
		var ct schema.CommitTotal
		if err := rows.Scan(&ct.ProjectID, &ct.UserEmail, &ct.CommitCount, &ct.LinesAdded, &ct.LinesRemoved, &ct.FilesChanged); err != nil {
			return nil, fmt.Errorf("failed to scan commit fact: %w", err)
		}
		results = append(results, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commit facts: %w", err)
	}
	return results, nil
}

// SessionDays returns per-day session second totals for project-scoped
// sessions in the inclusive [start, end] day range. Sessions without a
// project are excluded here so they never influence scores or eligibility.
func (s *StoreImpl) SessionDays(ctx context.Context, start, end time.Time) ([]schema.SessionDay, error) {
	query := fmt.Sprintf(`
		SELECT user_email, project_id, session_date,
		       COALESCE(SUM(duration_seconds), 0)
		FROM %s
		WHERE session_date >= %s AND session_date <= %s AND project_id IS NOT NULL
		GROUP BY user_email, project_id, session_date`,
		quoteTableName(sessionsTable, s.backend), s.placeholder(1), s.placeholder(2))

	rows, err := s.db.QueryContext(ctx, query, formatDay(start, s.backend), formatDay(end, s.backend))
	if err != nil {
		return nil, fmt.Errorf("failed to query session facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SessionDay
	for rows.Next() {
		var sd schema.SessionDay
		day, err := s.scanSessionRow(rows, &sd)
		if err != nil {
			return nil, err
		}
		sd.Day = day
		results = append(results, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session facts: %w", err)
	}
	return results, nil
}

// scanSessionRow scans one session row, handling per-backend day storage.
func (s *StoreImpl) scanSessionRow(rows *sql.Rows, sd *schema.SessionDay) (time.Time, error) {
	switch s.backend {
	case schema.SQLiteBackend:
		var dayStr string
		if err := rows.Scan(&sd.UserEmail, &sd.ProjectID, &dayStr, &sd.Seconds); err != nil {
			return time.Time{}, fmt.Errorf("failed to scan session fact: %w", err)
		}
		day, err := time.ParseInLocation("2006-01-02", dayStr, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse session_date: %w", err)
		}
		return day, nil
	default: // MySQL and PostgreSQL store as native DATE
		var day time.Time
		if err := rows.Scan(&sd.UserEmail, &sd.ProjectID, &day, &sd.Seconds); err != nil {
			return time.Time{}, fmt.Errorf("failed to scan session fact: %w", err)
		}
		return day, nil
	}
}

// UsageDays returns per-day agent request counts in the inclusive
// [start, end] day range.
func (s *StoreImpl) UsageDays(ctx context.Context, start, end time.Time) ([]schema.UsageDay, error) {
	query := fmt.Sprintf(`
		SELECT email, day, COALESCE(agent_requests, 0)
		FROM %s
		WHERE day >= %s AND day <= %s`,
		quoteTableName(usageTable, s.backend), s.placeholder(1), s.placeholder(2))

	rows, err := s.db.QueryContext(ctx, query, formatDay(start, s.backend), formatDay(end, s.backend))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.UsageDay
	for rows.Next() {
		var ud schema.UsageDay
		switch s.backend {
		case schema.SQLiteBackend:
			var dayStr string
			if err := rows.Scan(&ud.UserEmail, &dayStr, &ud.Requests); err != nil {
				return nil, fmt.Errorf("failed to scan usage fact: %w", err)
			}
			day, err := time.ParseInLocation("2006-01-02", dayStr, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("failed to parse usage day: %w", err)
			}
			ud.Day = day
		default: // MySQL and PostgreSQL store as native DATE
			if err := rows.Scan(&ud.UserEmail, &ud.Day, &ud.Requests); err != nil {
				return nil, fmt.Errorf("failed to scan usage fact: %w", err)
			}
		}
		results = append(results, ud)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage facts: %w", err)
	}
	return results, nil
}

// AddCommitDay inserts one day of commit facts for a (project, author) pair.
// Used by seeding and tests; production facts arrive from external collectors.
func (s *StoreImpl) AddCommitDay(ctx context.Context, ct schema.CommitTotal, day time.Time) error {
	query := fmt.Sprintf(`INSERT INTO %s (project_id, author_email, commit_date, lines_added, lines_removed, commit_count, files_changed)
		VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		quoteTableName(commitsTable, s.backend),
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
		s.placeholder(5), s.placeholder(6), s.placeholder(7))

	_, err := s.db.ExecContext(ctx, query,
		ct.ProjectID, ct.UserEmail, formatDay(day, s.backend),
		ct.LinesAdded, ct.LinesRemoved, ct.CommitCount, ct.FilesChanged)
	if err != nil {
		return fmt.Errorf("failed to insert commit fact: %w", err)
	}
	return nil
}

// AddSessionDay inserts one day of session seconds. A zero ProjectID stores
// NULL, modeling sessions with no project association.
func (s *StoreImpl) AddSessionDay(ctx context.Context, sd schema.SessionDay) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_email, project_id, session_date, duration_seconds)
		VALUES (%s, %s, %s, %s)`,
		quoteTableName(sessionsTable, s.backend),
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))

	var projectID any
	if sd.ProjectID != 0 {
		projectID = sd.ProjectID
	}
	_, err := s.db.ExecContext(ctx, query, sd.UserEmail, projectID, formatDay(sd.Day, s.backend), sd.Seconds)
	if err != nil {
		return fmt.Errorf("failed to insert session fact: %w", err)
	}
	return nil
}

// AddUsageDay inserts one day of agent request counts for a user.
func (s *StoreImpl) AddUsageDay(ctx context.Context, ud schema.UsageDay) error {
	query := fmt.Sprintf(`INSERT INTO %s (email, day, agent_requests) VALUES (%s, %s, %s)`,
		quoteTableName(usageTable, s.backend),
		s.placeholder(1), s.placeholder(2), s.placeholder(3))

	_, err := s.db.ExecContext(ctx, query, ud.UserEmail, formatDay(ud.Day, s.backend), ud.Requests)
	if err != nil {
		return fmt.Errorf("failed to insert usage fact: %w", err)
	}
	return nil
}
