package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxsettle/config"
	"github.com/rustyeddy/fxsettle/internal/logger"
	"github.com/rustyeddy/fxsettle/journal"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Position lifecycle and margin accounting for OANDA style FX accounts",
	Long: `Trader replays bar data through a margin accounting engine.

It provides tools for:
  - Backtesting signal driven breakout strategies on bid/ask bars
  - Trailing stops, staged partial closes and loss cuts
  - Sizing trades from account margin and a per-trade risk cap
  - Journaling closed trades and equity to CSV or SQLite`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var (
	cfgFile  string
	logLevel string

	cfg *config.Config
	log *logger.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		cfg = config.Default()
	} else {
		c, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log = logger.New(cfg.Log)
	return nil
}

func openJournal(c config.JournalConfig) (journal.Journal, error) {
	switch c.Type {
	case "csv":
		return journal.NewCSV(c.TradesFile, c.EquityFile)
	case "sqlite":
		return journal.NewSQLite(c.DBPath)
	case "none", "":
		return journal.Discard, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", c.Type)
}
