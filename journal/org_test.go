package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := sampleTrade("01HV3K9Z7Q8X", "3", time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC))

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Trade: NAS100_USD long WIN (01HV3K9Z)")
	assert.Contains(t, result, ":TRADE_ID: 01HV3K9Z7Q8X")
	assert.Contains(t, result, ":LABEL: 3")
	assert.Contains(t, result, ":MARGIN: 1500.00")
	assert.Contains(t, result, ":ENTRY_PRICE: 2886.90000")
	assert.Contains(t, result, ":PIPS: 48.30000")
	assert.Contains(t, result, ":OPEN_TIME: 2024-03-15T12:20:30Z")
	assert.Contains(t, result, ":CLOSE_TIME: 2024-03-15T14:20:30Z")
	assert.Contains(t, result, ":REALIZED_PL: 506.64")
	assert.Contains(t, result, ":FEE: 3.15")
	assert.True(t, strings.HasSuffix(result, ":END:\n"))
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	out := FormatTradesOrg([]TradeRecord{sampleTrade("A", "1", at), sampleTrade("B", "2", at)})
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))
	assert.Equal(t, "", FormatTradesOrg(nil))
}

func TestFormatRunOrg(t *testing.T) {
	t.Parallel()

	out, err := FormatRunOrg(RunRecord{
		RunID:        "R1",
		Created:      time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Dataset:      "nas100_h1.csv",
		StartBalance: 10000,
		EndBalance:   10503.4965,
		Trades:       1,
		Wins:         1,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "* BACKTEST: nas100_h1.csv")
	assert.Contains(t, out, ":END_BAL:     10503.50")
	assert.Contains(t, out, ":CREATED:     [2024-05-01 Wed 09:00]")
	assert.Contains(t, out, "| Wins    | 1 |")
}
