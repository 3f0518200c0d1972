package backtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/fxsettle/internal/logger"
	"github.com/rustyeddy/fxsettle/journal"
	"github.com/rustyeddy/fxsettle/pkg/id"
	"github.com/rustyeddy/fxsettle/sim"
)

// RunnerConfig describes one replay. All strategies must trade the
// instrument the bars are quoted in.
type RunnerConfig struct {
	Strategies     []Strategy
	Schedule       sim.Schedule
	MonthlyDeposit float64
	Dataset        string
	Journal        journal.Journal
	Log            *logrus.Entry
}

type EquityPoint struct {
	Time    time.Time
	Balance float64
}

// Result is the outcome of a replay.
type Result struct {
	RunID   string
	Dataset string
	Start   time.Time
	End     time.Time
	Bars    int

	Account sim.Account
	Trades  int
	WinRate float64
	ByLabel map[string]sim.LabelResult
	Equity  []EquityPoint
	Summary string
}

// Runner replays bars through an engine it owns. On every bar it
//  1. deposits at the turn of a month when configured
//  2. discards and fills pending orders against the previous bar
//  3. places orders for fresh signals
//  4. settles and then adjusts active trades at each of the previous
//     high, the previous low and the current open
//
// A Runner is not safe for concurrent use.
type Runner struct {
	cfg    RunnerConfig
	engine *sim.Engine
	log    *logrus.Entry

	now        time.Time
	prev       *Bar
	lastSignal map[string]Signal
	start      time.Time
	bars       int
	equity     []EquityPoint
}

// NewRunner builds the engine for acct. The engine clock follows the bar
// being replayed and the journal from cfg is attached to it.
func NewRunner(cfg RunnerConfig, acct *sim.Account, opts ...sim.Option) (*Runner, error) {
	if len(cfg.Strategies) == 0 {
		return nil, errors.New("backtest: at least one strategy is required")
	}
	symbol := cfg.Strategies[0].Instrument.Symbol
	seen := make(map[string]bool, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		if s.Instrument.Symbol != symbol {
			return nil, fmt.Errorf("backtest: strategy %s trades %s, bars are %s", s.Label, s.Instrument.Symbol, symbol)
		}
		if s.Label == "" || strings.Contains(s.Label, "_") {
			return nil, fmt.Errorf("backtest: strategy label %q must be non-empty and free of '_'", s.Label)
		}
		if seen[s.Label] {
			return nil, fmt.Errorf("backtest: duplicate strategy label %q", s.Label)
		}
		seen[s.Label] = true
		if s.MaxOpen < 1 {
			return nil, fmt.Errorf("backtest: strategy %s: max open must be at least 1", s.Label)
		}
	}
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.Discard
	}
	if cfg.Log == nil {
		cfg.Log = logger.NopEntry()
	}

	r := &Runner{
		cfg:        cfg,
		log:        cfg.Log.WithFields(logrus.Fields{"component": "backtest", "instrument": symbol}),
		lastSignal: make(map[string]Signal, len(cfg.Strategies)),
	}
	opts = append(opts,
		sim.WithClock(func() time.Time { return r.now }),
		sim.WithJournal(cfg.Journal),
		sim.WithLogger(cfg.Log),
	)
	e, err := sim.NewEngine(acct, opts...)
	if err != nil {
		return nil, err
	}
	r.engine = e
	return r, nil
}

func (r *Runner) Engine() *sim.Engine { return r.engine }

// Step replays one bar. The first bar only seeds the previous bar and
// signals.
func (r *Runner) Step(b Bar) error {
	r.now = b.Time
	r.bars++
	defer func() {
		r.prev = &b
		for _, s := range r.cfg.Strategies {
			r.lastSignal[s.Label] = b.Signal(s.Label)
		}
		r.equity = append(r.equity, EquityPoint{Time: b.Time, Balance: r.engine.TotalMargin()})
	}()

	if r.prev == nil {
		r.start = b.Time
		return nil
	}
	prev := *r.prev

	if r.cfg.MonthlyDeposit > 0 && monthTurned(prev.Time, b.Time) {
		r.engine.Deposit(r.cfg.MonthlyDeposit)
	}

	long := []float64{prev.Bid.High, prev.Bid.Low, b.Bid.Open}
	short := []float64{prev.Ask.High, prev.Ask.Low, b.Ask.Open}

	var valid []string
	for _, s := range r.cfg.Strategies {
		if sig := b.Signal(s.Label); sig != None {
			valid = append(valid, s.OrderLabel(sig))
		}
	}
	r.engine.ProcessPending(sim.Ranges{Long: long, Short: short}, valid)

	for _, s := range r.cfg.Strategies {
		if err := r.place(s, prev, b); err != nil {
			return err
		}
	}

	if !r.engine.HasActiveTrades() {
		return nil
	}
	for i := range long {
		q := sim.Quote{Long: long[i], Short: short[i]}
		if err := r.engine.SettleActivePositions(b.Time, q); err != nil {
			return err
		}
		if err := r.cfg.Schedule.Apply(r.engine, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) place(s Strategy, prev, b Bar) error {
	sig := b.Signal(s.Label)
	dir, ok := sig.Direction()
	if !ok || sig == r.lastSignal[s.Label] {
		return nil
	}
	if !r.engine.HasMarginAvailable() || r.engine.CountByLabelPrefix(s.Label) >= s.MaxOpen {
		return nil
	}
	margin := r.engine.SizeTradeForLabel(s.Label)
	if margin <= 0 {
		return nil
	}

	orderID, err := r.engine.Open(s.spec(dir, prev, b.Time, margin))
	if err != nil {
		return fmt.Errorf("bar %s: strategy %s: %w", b.Time.Format(time.RFC3339), s.Label, err)
	}
	r.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"label":    s.Label,
		"signal":   sig.String(),
		"margin":   margin,
	}).Debug("order placed")
	return nil
}

func monthTurned(prev, cur time.Time) bool {
	return prev.Year() != cur.Year() || prev.Month() != cur.Month()
}

// Run replays feed to the end, closes it and summarises the run. A journal
// that keeps run summaries gets one.
func (r *Runner) Run(ctx context.Context, feed Feed) (Result, error) {
	if feed == nil {
		return Result{}, errors.New("backtest: feed is required")
	}
	defer feed.Close()

	r.log.WithField("dataset", r.cfg.Dataset).Info("backtest started")
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		b, ok, err := feed.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}
		if err := r.Step(b); err != nil {
			return Result{}, err
		}
	}

	res := r.Result()
	if rec, ok := r.cfg.Journal.(journal.RunRecorder); ok {
		if err := rec.RecordRun(runRecord(res)); err != nil {
			return res, fmt.Errorf("record run: %w", err)
		}
	}
	r.log.WithFields(logrus.Fields{
		"run_id":  res.RunID,
		"bars":    res.Bars,
		"trades":  res.Trades,
		"balance": res.Account.TotalMargin,
	}).Info("backtest finished")
	return res, nil
}

// Result summarises the bars replayed so far.
func (r *Runner) Result() Result {
	labels := make([]string, len(r.cfg.Strategies))
	for i, s := range r.cfg.Strategies {
		labels[i] = s.Label
	}
	return Result{
		RunID:   id.New(),
		Dataset: r.cfg.Dataset,
		Start:   r.start,
		End:     r.now,
		Bars:    r.bars,
		Account: r.engine.Account(),
		Trades:  r.engine.TradeCount(),
		WinRate: r.engine.WinRate(),
		ByLabel: r.engine.ResultsByLabel(labels...),
		Equity:  append([]EquityPoint(nil), r.equity...),
		Summary: r.engine.Summary(),
	}
}

func runRecord(res Result) journal.RunRecord {
	a := res.Account
	return journal.RunRecord{
		RunID:        res.RunID,
		Created:      res.End,
		Dataset:      res.Dataset,
		Bars:         res.Bars,
		StartBalance: a.StartingCapital,
		EndBalance:   a.TotalMargin,
		HighWater:    a.HighWater,
		LowWater:     a.LowWater,
		Trades:       res.Trades,
		Wins:         a.Wins,
		Losses:       a.Losses,
		Pips:         a.Pips,
	}
}
