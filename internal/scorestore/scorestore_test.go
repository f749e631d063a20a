package scorestore

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *StoreImpl {
	t.Helper()
	store, err := NewStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testWeekPeriod() schema.Period {
	return schema.Period{
		Granularity: schema.Weekly,
		Key:         "2026-W08",
		Start:       time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC),
	}
}

func makeRow(user string, projectID int64, total string, hook bool) schema.ScoreRow {
	return schema.ScoreRow{
		UserEmail:   user,
		ProjectID:   projectID,
		Granularity: schema.Weekly,
		PeriodKey:   "2026-W08",
		RuleID:      1,
		Raw:         schema.RawMetrics{SessionHours: decimal.Zero},
		Breakdown: map[schema.Dimension]decimal.Decimal{
			schema.DimLinesAdded: decimal.RequireFromString(total),
		},
		TotalScore:  decimal.RequireFromString(total),
		HookAdopted: hook,
	}
}

func TestStoreRuleRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rule := &schema.Rule{
		ID:   1,
		Name: "default",
		Weights: map[schema.Dimension]decimal.Decimal{
			schema.DimLinesAdded:  decimal.RequireFromString("0.35"),
			schema.DimCommitCount: decimal.RequireFromString("0.2"),
		},
		Caps: map[schema.CapKey]float64{
			schema.CapSessionHoursPerDay: 10,
		},
		Enabled: true,
	}
	require.NoError(t, store.SaveRule(ctx, rule))

	got, err := store.GetRule(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name)
	assert.True(t, got.Enabled)
	assert.Equal(t, "0.35", got.Weights[schema.DimLinesAdded].String())
	assert.Equal(t, int64(36000), got.SessionCapSeconds())

	// Saving again with changed weights replaces the rule.
	rule.Weights[schema.DimLinesAdded] = decimal.RequireFromString("0.5")
	require.NoError(t, store.SaveRule(ctx, rule))
	got, err = store.GetRule(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.5", got.Weights[schema.DimLinesAdded].String())
}

func TestStoreRuleNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetRule(ctx, 42)
	assert.ErrorIs(t, err, contract.ErrRuleNotFound)

	// A disabled rule is invisible to the engine but loadable for admins.
	rule := &schema.Rule{
		ID:      2,
		Weights: map[schema.Dimension]decimal.Decimal{schema.DimLinesAdded: decimal.NewFromInt(1)},
		Caps:    map[schema.CapKey]float64{},
		Enabled: false,
	}
	require.NoError(t, store.SaveRule(ctx, rule))

	_, err = store.GetRule(ctx, 2)
	assert.ErrorIs(t, err, contract.ErrRuleNotFound)

	got, err := store.GetAnyRule(ctx, 2)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
}

func TestStoreSaveRuleValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bad := &schema.Rule{
		ID: 3,
		Weights: map[schema.Dimension]decimal.Decimal{
			schema.Dimension("made_up_dimension"): decimal.NewFromInt(1),
		},
		Caps:    map[schema.CapKey]float64{},
		Enabled: true,
	}
	assert.Error(t, store.SaveRule(ctx, bad))

	negative := &schema.Rule{
		ID: 3,
		Weights: map[schema.Dimension]decimal.Decimal{
			schema.DimLinesAdded: decimal.NewFromInt(-1),
		},
		Caps:    map[schema.CapKey]float64{},
		Enabled: true,
	}
	assert.Error(t, store.SaveRule(ctx, negative))
}

func TestStoreFactReads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day1 := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Commits across two days for the same (project, author) should sum.
	require.NoError(t, store.AddCommitDay(ctx, schema.CommitTotal{
		ProjectID: 1, UserEmail: "alice@x.com", CommitCount: 2, LinesAdded: 100, FilesChanged: 5,
	}, day1))
	require.NoError(t, store.AddCommitDay(ctx, schema.CommitTotal{
		ProjectID: 1, UserEmail: "alice@x.com", CommitCount: 1, LinesAdded: 40, LinesRemoved: 10, FilesChanged: 2,
	}, day2))
	require.NoError(t, store.AddCommitDay(ctx, schema.CommitTotal{
		ProjectID: 1, UserEmail: "alice@x.com", CommitCount: 9, LinesAdded: 999,
	}, outside))

	commits, err := store.CommitTotals(ctx, day1, time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, int64(3), commits[0].CommitCount)
	assert.Equal(t, int64(140), commits[0].LinesAdded)
	assert.Equal(t, int64(10), commits[0].LinesRemoved)
	assert.Equal(t, int64(7), commits[0].FilesChanged)

	// Sessions without a project are stored but never read back.
	require.NoError(t, store.AddSessionDay(ctx, schema.SessionDay{
		UserEmail: "alice@x.com", ProjectID: 1, Day: day1, Seconds: 3600,
	}))
	require.NoError(t, store.AddSessionDay(ctx, schema.SessionDay{
		UserEmail: "alice@x.com", ProjectID: 1, Day: day1, Seconds: 1800,
	}))
	require.NoError(t, store.AddSessionDay(ctx, schema.SessionDay{
		UserEmail: "alice@x.com", ProjectID: 0, Day: day1, Seconds: 99999,
	}))

	sessions, err := store.SessionDays(ctx, day1, day2)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(5400), sessions[0].Seconds)
	assert.True(t, sessions[0].Day.Equal(day1))

	require.NoError(t, store.AddUsageDay(ctx, schema.UsageDay{
		UserEmail: "alice@x.com", Day: day2, Requests: 320,
	}))
	usage, err := store.UsageDays(ctx, day1, day2)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, int64(320), usage[0].Requests)

	// An empty range returns empty results, not an error.
	empty, err := store.CommitTotals(ctx, outside.AddDate(1, 0, 0), outside.AddDate(1, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReplacePeriodRanking(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	period := testWeekPeriod()

	rows := []schema.ScoreRow{
		makeRow("alice@x.com", 1, "36.15", true),
		makeRow("alice@x.com", schema.AggregateProjectID, "36.15", true),
		makeRow("bob@x.com", 2, "50", true),
		makeRow("bob@x.com", schema.AggregateProjectID, "50", true),
		// High score but no hook adoption: never ranked.
		makeRow("carol@x.com", schema.AggregateProjectID, "999", false),
	}

	snapshot, err := store.ReplacePeriod(ctx, period, 1, rows)
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, 1, snapshot.Entries[0].Rank)
	assert.Equal(t, "bob@x.com", snapshot.Entries[0].UserEmail)
	assert.Equal(t, "50", snapshot.Entries[0].TotalScore.String())
	assert.Equal(t, 2, snapshot.Entries[1].Rank)
	assert.Equal(t, "alice@x.com", snapshot.Entries[1].UserEmail)

	// Per-project rows never carry a rank.
	aliceRows, err := store.ListUserRows(ctx, "alice@x.com", schema.Weekly, period.Key)
	require.NoError(t, err)
	require.Len(t, aliceRows, 2)
	assert.True(t, aliceRows[0].IsAggregate(), "aggregate row sorts first")
	require.NotNil(t, aliceRows[0].Rank)
	assert.Equal(t, 2, *aliceRows[0].Rank)
	assert.Nil(t, aliceRows[1].Rank)

	// Ineligible aggregate rows keep a NULL rank regardless of score.
	carol, err := store.GetAggregate(ctx, "carol@x.com", schema.Weekly, period.Key)
	require.NoError(t, err)
	require.NotNil(t, carol)
	assert.Nil(t, carol.Rank)
	assert.False(t, carol.HookAdopted)

	all, err := store.ListPeriodRows(ctx, schema.Weekly, period.Key)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestReplacePeriodIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	period := testWeekPeriod()

	// dave and erin tie; insertion order breaks the tie.
	rows := []schema.ScoreRow{
		makeRow("dave@x.com", schema.AggregateProjectID, "25", true),
		makeRow("erin@x.com", schema.AggregateProjectID, "25", true),
	}

	first, err := store.ReplacePeriod(ctx, period, 1, rows)
	require.NoError(t, err)
	firstRows, err := store.ListPeriodRows(ctx, schema.Weekly, period.Key)
	require.NoError(t, err)

	second, err := store.ReplacePeriod(ctx, period, 1, rows)
	require.NoError(t, err)
	secondRows, err := store.ListPeriodRows(ctx, schema.Weekly, period.Key)
	require.NoError(t, err)

	assert.Equal(t, firstRows, secondRows)
	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, "dave@x.com", first.Entries[0].UserEmail)
	assert.Equal(t, 1, first.Entries[0].Rank)
	assert.Equal(t, "erin@x.com", first.Entries[1].UserEmail)
	assert.Equal(t, 2, first.Entries[1].Rank)
}

func TestReplacePeriodRemovesStaleRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	period := testWeekPeriod()

	initial := []schema.ScoreRow{
		makeRow("alice@x.com", schema.AggregateProjectID, "10", true),
		makeRow("bob@x.com", schema.AggregateProjectID, "20", true),
	}
	_, err := store.ReplacePeriod(ctx, period, 1, initial)
	require.NoError(t, err)

	// bob disappears from the facts entirely.
	next := []schema.ScoreRow{
		makeRow("alice@x.com", schema.AggregateProjectID, "12", true),
	}
	snapshot, err := store.ReplacePeriod(ctx, period, 1, next)
	require.NoError(t, err)
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, "alice@x.com", snapshot.Entries[0].UserEmail)

	bob, err := store.GetAggregate(ctx, "bob@x.com", schema.Weekly, period.Key)
	require.NoError(t, err)
	assert.Nil(t, bob)

	all, err := store.ListPeriodRows(ctx, schema.Weekly, period.Key)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Other periods are untouched by a replace.
	other := testWeekPeriod()
	other.Key = "2026-W09"
	_, err = store.ReplacePeriod(ctx, other, 1, initial)
	require.NoError(t, err)
	all, err = store.ListPeriodRows(ctx, schema.Weekly, period.Key)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetSnapshotMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snapshot, err := store.GetSnapshot(ctx, schema.Weekly, "2026-W01")
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	row, err := store.GetAggregate(ctx, "nobody@x.com", schema.Weekly, "2026-W01")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	period := testWeekPeriod()

	rows := []schema.ScoreRow{
		makeRow("alice@x.com", schema.AggregateProjectID, "36.15", true),
	}
	written, err := store.ReplacePeriod(ctx, period, 1, rows)
	require.NoError(t, err)

	read, err := store.GetSnapshot(ctx, schema.Weekly, period.Key)
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.Equal(t, written.Entries[0].UserEmail, read.Entries[0].UserEmail)
	assert.True(t, written.Entries[0].TotalScore.Equal(read.Entries[0].TotalScore))
	assert.Equal(t, period.Key, read.PeriodKey)
}

func TestGetStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUsageDay(ctx, schema.UsageDay{
		UserEmail: "alice@x.com", Day: time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC), Requests: 10,
	}))

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, int64(1), status.TableSizes[usageTable])
	assert.Equal(t, int64(0), status.TableSizes[scoresTable])
	assert.Len(t, status.TableSizes, len(allTables))
	assert.Empty(t, status.LatestSnapshot)

	period := testWeekPeriod()
	_, err = store.ReplacePeriod(ctx, period, 1, []schema.ScoreRow{
		makeRow("alice@x.com", schema.AggregateProjectID, "10", true),
	})
	require.NoError(t, err)

	status, err = store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "weekly "+period.Key, status.LatestSnapshot)
}
