package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(id, label string, closeAt time.Time) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		Label:      label,
		Instrument: "NAS100_USD",
		Direction:  "long",
		MarginSize: 1500,
		EntryPrice: 2886.9,
		ExitPrice:  2935.2,
		StopLoss:   2870.8,
		Pips:       48.3,
		RealizedPL: 506.643356643,
		Fee:        3.146853147,
		Outcome:    "win",
		OpenTime:   closeAt.Add(-2 * time.Hour),
		CloseTime:  closeAt,
		Reason:     "target_hit",
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity','runs')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
	assert.True(t, found["runs"])
}

func TestSQLiteRecordEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 2, 3, 4, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, j.RecordEquity(EquitySnapshot{
			Time:            base.Add(time.Duration(i) * time.Hour),
			TotalMargin:     10000 + float64(i),
			AvailableMargin: 8500,
			UsedMargin:      1500 + float64(i),
			HighWater:       10002,
			LowWater:        10000,
		}))
	}

	got, err := j.ListEquityBetween(base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Time.Equal(base))
	assert.InDelta(t, 10001.0, got[1].TotalMargin, 1e-9)
	assert.InDelta(t, 1501.0, got[1].UsedMargin, 1e-9)
}

func TestSQLiteRecordRun(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	r := RunRecord{
		RunID:        "R1",
		Created:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Dataset:      "nas100_h1.csv",
		Bars:         500,
		StartBalance: 10000,
		EndBalance:   10503.5,
		Trades:       3,
		Wins:         2,
		Losses:       1,
		Pips:         61.2,
	}
	require.NoError(t, j.RecordRun(r))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		dataset string
		bars    int
		end     float64
	)
	err = db.QueryRow(`SELECT dataset, bars, end_balance FROM runs WHERE run_id = 'R1'`).Scan(&dataset, &bars, &end)
	require.NoError(t, err)
	assert.Equal(t, "nas100_h1.csv", dataset)
	assert.Equal(t, 500, bars)
	assert.InDelta(t, 10503.5, end, 1e-9)
	assert.InDelta(t, 5.035, r.ReturnPct(), 1e-9)
}

func TestSQLiteDuplicateTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	rec := sampleTrade("T1", "3", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, j.RecordTrade(rec))
	assert.Error(t, j.RecordTrade(rec))
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Discard.RecordTrade(TradeRecord{}))
	assert.NoError(t, Discard.RecordEquity(EquitySnapshot{}))
	assert.NoError(t, Discard.Close())
}
