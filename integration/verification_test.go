//go:build integration

// Package integration contains integration tests for devscore.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
// Container-backed tests: go test -tags database ./integration
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/devscore/core"
	"github.com/huangsam/devscore/internal/scorestore"
	"github.com/huangsam/devscore/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDevscoreSQLiteEndToEnd seeds facts through the store API and verifies
// the compiled binary reads the same data back.
func TestDevscoreSQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "devscore.db")
	env := map[string]string{
		"DEVSCORE_BACKEND":    "sqlite",
		"DEVSCORE_DB_CONNECT": dbPath,
	}

	// Seed a rule and one week of facts directly through the store
	store, err := scorestore.NewStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)

	rule := &schema.Rule{
		ID:   1,
		Name: "default",
		Weights: map[schema.Dimension]decimal.Decimal{
			schema.DimCommitCount:  decimal.RequireFromString("10"),
			schema.DimSessionHours: decimal.RequireFromString("2.5"),
		},
		Caps:    map[schema.CapKey]float64{schema.CapSessionHoursPerDay: 12},
		Enabled: true,
	}
	require.NoError(t, store.SaveRule(ctx, rule))

	day := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddCommitDay(ctx, schema.CommitTotal{
		ProjectID:   7,
		UserEmail:   "alice@example.com",
		CommitCount: 3,
		LinesAdded:  100,
	}, day))
	require.NoError(t, store.AddSessionDay(ctx, schema.SessionDay{
		UserEmail: "alice@example.com",
		ProjectID: 7,
		Day:       day,
		Seconds:   7200,
	}))

	engine := core.NewEngine(store, store, nil)
	require.NoError(t, engine.ComputePeriod(ctx, schema.Weekly, "2026-W08", 1))
	require.NoError(t, store.Close())

	// Now drive the binary against the same database file
	out, err := runDevscoreCommand(t, env, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Store Backend: sqlite")
	assert.Contains(t, out, "Connected: true")

	out, err = runDevscoreCommand(t, env, "rule", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"commit_count": 10`)

	out, err = runDevscoreCommand(t, env, "leaderboard", "weekly", "2026-W08", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, `"total_score": 35`)

	out, err = runDevscoreCommand(t, env, "scores", "weekly", "2026-W08", "--output", "csv", "--user", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "35")

	// Export writes both Parquet datasets
	exportBase := filepath.Join(t.TempDir(), "week08")
	_, err = runDevscoreCommand(t, env, "export", "weekly", "2026-W08", "--output-file", exportBase)
	require.NoError(t, err)
	for _, suffix := range []string{".scores.parquet", ".leaderboard.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

// TestDevscoreCLIValidation checks that the binary rejects malformed input
// without touching the database.
func TestDevscoreCLIValidation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "devscore.db")
	env := map[string]string{
		"DEVSCORE_BACKEND":    "sqlite",
		"DEVSCORE_DB_CONNECT": dbPath,
	}

	_, err := runDevscoreCommand(t, env, "compute", "weekly", "not-a-week")
	assert.Error(t, err)

	_, err = runDevscoreCommand(t, env, "compute", "hourly", "2026-W08")
	assert.Error(t, err)

	_, err = runDevscoreCommand(t, env, "leaderboard", "weekly", "2026-W08")
	assert.Error(t, err, "no snapshot exists yet")

	out, err := runDevscoreCommand(t, env, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "devscore CLI")
}
