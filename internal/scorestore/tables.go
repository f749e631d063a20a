package scorestore

import (
	"database/sql"
	"fmt"

	"github.com/huangsam/devscore/schema"
)

// createTables creates every table the store owns if they do not exist yet.
// Migrations manage the same schema for long-lived deployments; the bootstrap
// keeps zero-setup SQLite usage working. Statements run one at a time since
// the pgx driver rejects multi-statement strings.
func createTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name    string
		queries []string
	}{
		{rulesTable, getCreateRulesQueries(backend)},
		{commitsTable, getCreateCommitsQueries(backend)},
		{sessionsTable, getCreateSessionsQueries(backend)},
		{usageTable, getCreateUsageQueries(backend)},
		{scoresTable, getCreateScoresQueries(backend)},
		{snapshotsTable, getCreateSnapshotsQueries(backend)},
	}

	for _, table := range tables {
		for _, query := range table.queries {
			if _, err := db.Exec(query); err != nil {
				return fmt.Errorf("failed to create table %s: %w", table.name, err)
			}
		}
	}

	return nil
}

// getCreateRulesQueries returns the CREATE TABLE queries for incentive_rules.
func getCreateRulesQueries(backend schema.DatabaseBackend) []string {
	quotedTableName := quoteTableName(rulesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL DEFAULT '',
				weights TEXT NOT NULL,
				caps TEXT NOT NULL,
				enabled TINYINT(1) NOT NULL DEFAULT 1
			);
		`, quotedTableName)}

	case schema.PostgreSQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				weights TEXT NOT NULL,
				caps TEXT NOT NULL,
				enabled BOOLEAN NOT NULL DEFAULT TRUE
			)
		`, quotedTableName)}

	default: // SQLite
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL DEFAULT '',
				weights TEXT NOT NULL,
				caps TEXT NOT NULL,
				enabled INTEGER NOT NULL DEFAULT 1
			);
		`, quotedTableName)}
	}
}

// getCreateCommitsQueries returns the CREATE TABLE queries for git_contributions.
func getCreateCommitsQueries(backend schema.DatabaseBackend) []string {
	quotedTableName := quoteTableName(commitsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				project_id BIGINT NOT NULL,
				author_email VARCHAR(255) NOT NULL,
				commit_date DATE NOT NULL,
				lines_added INT NOT NULL DEFAULT 0,
				lines_removed INT NOT NULL DEFAULT 0,
				commit_count INT NOT NULL DEFAULT 0,
				files_changed INT NOT NULL DEFAULT 0,
				INDEX idx_git_contributions_date (commit_date)
			);
		`, quotedTableName)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				project_id BIGINT NOT NULL,
				author_email TEXT NOT NULL,
				commit_date DATE NOT NULL,
				lines_added INT NOT NULL DEFAULT 0,
				lines_removed INT NOT NULL DEFAULT 0,
				commit_count INT NOT NULL DEFAULT 0,
				files_changed INT NOT NULL DEFAULT 0
			)
		`, quotedTableName),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_git_contributions_date ON %s (commit_date)", quotedTableName),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id INTEGER NOT NULL,
				author_email TEXT NOT NULL,
				commit_date TEXT NOT NULL,
				lines_added INTEGER NOT NULL DEFAULT 0,
				lines_removed INTEGER NOT NULL DEFAULT 0,
				commit_count INTEGER NOT NULL DEFAULT 0,
				files_changed INTEGER NOT NULL DEFAULT 0
			);
		`, quotedTableName),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_git_contributions_date ON %s (commit_date);", quotedTableName),
		}
	}
}

// getCreateSessionsQueries returns the CREATE TABLE queries for agent_sessions.
// project_id is nullable: sessions without a project association exist but
// never count toward scores.
func getCreateSessionsQueries(backend schema.DatabaseBackend) []string {
	quotedTableName := quoteTableName(sessionsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_email VARCHAR(255) NOT NULL,
				project_id BIGINT,
				session_date DATE NOT NULL,
				duration_seconds BIGINT NOT NULL DEFAULT 0,
				INDEX idx_agent_sessions_date (session_date)
			);
		`, quotedTableName)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				user_email TEXT NOT NULL,
				project_id BIGINT,
				session_date DATE NOT NULL,
				duration_seconds BIGINT NOT NULL DEFAULT 0
			)
		`, quotedTableName),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_agent_sessions_date ON %s (session_date)", quotedTableName),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_email TEXT NOT NULL,
				project_id INTEGER,
				session_date TEXT NOT NULL,
				duration_seconds INTEGER NOT NULL DEFAULT 0
			);
		`, quotedTableName),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_agent_sessions_date ON %s (session_date);", quotedTableName),
		}
	}
}

// getCreateUsageQueries returns the CREATE TABLE queries for daily_usage.
func getCreateUsageQueries(backend schema.DatabaseBackend) []string {
	quotedTableName := quoteTableName(usageTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				email VARCHAR(255) NOT NULL,
				day DATE NOT NULL,
				agent_requests INT NOT NULL DEFAULT 0,
				INDEX idx_daily_usage_day (day)
			);
		`, quotedTableName)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				email TEXT NOT NULL,
				day DATE NOT NULL,
				agent_requests INT NOT NULL DEFAULT 0
			)
		`, quotedTableName),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_daily_usage_day ON %s (day)", quotedTableName),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				email TEXT NOT NULL,
				day TEXT NOT NULL,
				agent_requests INTEGER NOT NULL DEFAULT 0
			);
		`, quotedTableName),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_daily_usage_day ON %s (day);", quotedTableName),
		}
	}
}

// getCreateScoresQueries returns the CREATE TABLE queries for contribution_scores.
// Exact score values are stored as decimal strings so a recompute with
// identical facts reproduces identical rows on every backend. The surrogate
// id doubles as the insertion-order tiebreaker for ranking.
func getCreateScoresQueries(backend schema.DatabaseBackend) []string {
	quotedTableName := quoteTableName(scoresTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_email VARCHAR(255) NOT NULL,
				project_id BIGINT NOT NULL DEFAULT 0,
				period_type VARCHAR(16) NOT NULL,
				period_key VARCHAR(16) NOT NULL,
				rule_id BIGINT NOT NULL,
				lines_added INT NOT NULL DEFAULT 0,
				lines_removed INT NOT NULL DEFAULT 0,
				commit_count INT NOT NULL DEFAULT 0,
				files_changed INT NOT NULL DEFAULT 0,
				session_duration_hours VARCHAR(32) NOT NULL DEFAULT '0',
				agent_requests INT NOT NULL DEFAULT 0,
				score_breakdown TEXT NOT NULL,
				total_score VARCHAR(64) NOT NULL,
				`+"`rank`"+` INT,
				hook_adopted TINYINT(1) NOT NULL DEFAULT 0,
				UNIQUE KEY uq_contribution_scores (user_email, project_id, period_type, period_key)
			);
		`, quotedTableName)}

	case schema.PostgreSQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				user_email TEXT NOT NULL,
				project_id BIGINT NOT NULL DEFAULT 0,
				period_type TEXT NOT NULL,
				period_key TEXT NOT NULL,
				rule_id BIGINT NOT NULL,
				lines_added INT NOT NULL DEFAULT 0,
				lines_removed INT NOT NULL DEFAULT 0,
				commit_count INT NOT NULL DEFAULT 0,
				files_changed INT NOT NULL DEFAULT 0,
				session_duration_hours TEXT NOT NULL DEFAULT '0',
				agent_requests INT NOT NULL DEFAULT 0,
				score_breakdown TEXT NOT NULL,
				total_score TEXT NOT NULL,
				rank INT,
				hook_adopted BOOLEAN NOT NULL DEFAULT FALSE,
				UNIQUE (user_email, project_id, period_type, period_key)
			)
		`, quotedTableName)}

	default: // SQLite
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_email TEXT NOT NULL,
				project_id INTEGER NOT NULL DEFAULT 0,
				period_type TEXT NOT NULL,
				period_key TEXT NOT NULL,
				rule_id INTEGER NOT NULL,
				lines_added INTEGER NOT NULL DEFAULT 0,
				lines_removed INTEGER NOT NULL DEFAULT 0,
				commit_count INTEGER NOT NULL DEFAULT 0,
				files_changed INTEGER NOT NULL DEFAULT 0,
				session_duration_hours TEXT NOT NULL DEFAULT '0',
				agent_requests INTEGER NOT NULL DEFAULT 0,
				score_breakdown TEXT NOT NULL,
				total_score TEXT NOT NULL,
				rank INTEGER,
				hook_adopted INTEGER NOT NULL DEFAULT 0,
				UNIQUE (user_email, project_id, period_type, period_key)
			);
		`, quotedTableName)}
	}
}

// getCreateSnapshotsQueries returns the CREATE TABLE queries for leaderboard_snapshots.
func getCreateSnapshotsQueries(backend schema.DatabaseBackend) []string {
	quotedTableName := quoteTableName(snapshotsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				period_type VARCHAR(16) NOT NULL,
				period_key VARCHAR(16) NOT NULL,
				snapshot TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				UNIQUE KEY uq_leaderboard_snapshots (period_type, period_key)
			);
		`, quotedTableName)}

	case schema.PostgreSQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				period_type TEXT NOT NULL,
				period_key TEXT NOT NULL,
				snapshot TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				UNIQUE (period_type, period_key)
			)
		`, quotedTableName)}

	default: // SQLite
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				period_type TEXT NOT NULL,
				period_key TEXT NOT NULL,
				snapshot TEXT NOT NULL,
				created_at TEXT NOT NULL,
				UNIQUE (period_type, period_key)
			);
		`, quotedTableName)}
	}
}
