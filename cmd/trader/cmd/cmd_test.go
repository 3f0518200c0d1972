package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxsettle/config"
)

const bars = `time,bid_open,bid_high,bid_low,bid_close,ask_open,ask_high,ask_low,ask_close,1
2021-03-01T09:00:00Z,2880,2886.6,2875,2880,2880.3,2886.9,2875.3,2880.3,none
2021-03-01T10:00:00Z,2881,2890,2878,2884,2881.3,2890.3,2878.3,2884.3,long
2021-03-01T11:00:00Z,2936,2940,2930,2938,2936.3,2940.3,2930.3,2938.3,long
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), buf.String())
	return buf.String()
}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "trader version "+version)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bt.yaml")

	out := execute(t, "config", "init", "-o", path)
	assert.Contains(t, out, "Created default configuration")

	out = execute(t, "config", "validate", "-f", path)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Strategies: 1")
}

func TestBacktestAndJournal(t *testing.T) {
	dir := t.TempDir()
	barsPath := filepath.Join(dir, "bars.csv")
	require.NoError(t, os.WriteFile(barsPath, []byte(bars), 0644))

	c := config.Default()
	c.Backtest.BarsFile = barsPath
	c.Journal = config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(dir, "journal.sqlite")}
	c.Log.Level = "error"
	cfgPath := filepath.Join(dir, "bt.yaml")
	require.NoError(t, c.SaveToFile(cfgPath))

	out := execute(t, "backtest", "-c", cfgPath, "--org")
	assert.Contains(t, out, "final balance = 10,503.50 GBP")
	assert.Contains(t, out, "* BACKTEST:")

	out = execute(t, "journal", "trades", "-c", cfgPath, "--label", "1")
	assert.Contains(t, out, "NAS100_USD long WIN")
	assert.Contains(t, out, ":LABEL: 1")

	out = execute(t, "journal", "stats", "-c", cfgPath)
	assert.Contains(t, out, "label")
	assert.Regexp(t, `1\s+1\s+0\s+503\.50`, out)
}

func TestSize(t *testing.T) {
	out := execute(t, "size", "-c", "", "-i", "EUR_GBP",
		"--balance", "10000", "--available", "10000", "--price", "0.85", "--stop", "0.002")
	assert.Contains(t, out, "margin:      1500.00 GBP")
	assert.Contains(t, out, "units:")

	out = execute(t, "size", "-c", "", "-i", "EUR_GBP",
		"--balance", "10000", "--available", "1100", "--price", "0.85", "--stop", "0.002")
	assert.Contains(t, out, "no trade")
}
