package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxsettle/backtest"
	"github.com/rustyeddy/fxsettle/journal"
	"github.com/rustyeddy/fxsettle/market"
	"github.com/rustyeddy/fxsettle/sim"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay bid/ask bars with signal columns through the engine",
	Long: `Backtest replays bars from a CSV file:

  time,bid_open,bid_high,bid_low,bid_close,ask_open,ask_high,ask_low,ask_close,<label>...

Every column after the prices holds the signal (long, short or none) of the
strategy with that label in the config.

Example:
  trader backtest -c backtest.yaml --bars data/nas100_h1.csv`,
	RunE: runBacktest,
}

var (
	btBarsPath string
	btFrom     string
	btTo       string
	btOrg      bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "bar CSV (defaults to backtest.bars_file)")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "first day to replay (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "day to stop before (YYYY-MM-DD)")
	backtestCmd.Flags().BoolVar(&btOrg, "org", false, "also print the run as an Org-mode block")
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	path := btBarsPath
	if path == "" {
		path = cfg.Backtest.BarsFile
	}
	from, err := parseDay(btFrom)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := parseDay(btTo)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	strategies, err := backtest.StrategiesFromConfig(cfg.Backtest.Strategies, market.DefaultCatalog())
	if err != nil {
		return err
	}
	if len(strategies) == 0 {
		return fmt.Errorf("no strategies configured")
	}

	feed, err := backtest.NewCSVFeed(path, from, to)
	if err != nil {
		return fmt.Errorf("open bars: %w", err)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		feed.Close()
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	acct, err := cfg.NewAccount()
	if err != nil {
		feed.Close()
		return err
	}

	runner, err := backtest.NewRunner(backtest.RunnerConfig{
		Strategies:     strategies,
		Schedule:       cfg.ScheduleFor(strategies[0].Instrument.Symbol),
		MonthlyDeposit: cfg.Backtest.MonthlyDeposit,
		Dataset:        path,
		Journal:        j,
		Log:            log.WithComponent("backtest"),
	}, acct, sim.WithPolicy(cfg.Policy()), sim.WithValuer(cfg.Valuer()))
	if err != nil {
		feed.Close()
		return err
	}

	res, err := runner.Run(cmd.Context(), feed)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	backtest.PrintResult(cmd.OutOrStdout(), res)
	if btOrg {
		org, err := journal.FormatRunOrg(journal.RunRecord{
			RunID:        res.RunID,
			Created:      res.End,
			Dataset:      res.Dataset,
			Bars:         res.Bars,
			StartBalance: res.Account.StartingCapital,
			EndBalance:   res.Account.TotalMargin,
			HighWater:    res.Account.HighWater,
			LowWater:     res.Account.LowWater,
			Trades:       res.Trades,
			Wins:         res.Account.Wins,
			Losses:       res.Account.Losses,
			Pips:         res.Account.Pips,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), org)
	}
	return nil
}
