package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.Equal(t, [][]string{tradeHeader}, readCSV(t, tradesPath))
	assert.Equal(t, [][]string{equityHeader}, readCSV(t, equityPath))
}

func TestCSVJournalRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	closeAt := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("T1", "3", closeAt)))
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Time:            closeAt,
		TotalMargin:     10503.496503,
		AvailableMargin: 10503.496503,
		HighWater:       10503.496503,
		LowWater:        10000,
	}))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	row := trades[1]
	assert.Equal(t, "T1", row[0])
	assert.Equal(t, "3", row[1])
	assert.Equal(t, "NAS100_USD", row[2])
	assert.Equal(t, "long", row[3])
	assert.Equal(t, "1500.000000", row[4])
	assert.Equal(t, "48.300000", row[8])
	assert.Equal(t, "win", row[11])
	assert.Equal(t, "2024-01-02T02:05:06Z", row[12])
	assert.Equal(t, "2024-01-02T04:05:06Z", row[13])
	assert.Equal(t, "target_hit", row[14])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, []string{"2024-01-02T04:05:06Z", "10503.496503", "10503.496503", "0.000000", "10503.496503", "10000.000000"}, equity[1])
}
