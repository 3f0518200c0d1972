package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxsettle/internal/logger"
	"github.com/rustyeddy/fxsettle/market"
	"github.com/rustyeddy/fxsettle/order"
	"github.com/rustyeddy/fxsettle/risk"
	"github.com/rustyeddy/fxsettle/sim"
)

// EnvPrefix prefixes environment overrides, e.g.
// FXSETTLE_ACCOUNT_STARTING_CAPITAL.
const EnvPrefix = "FXSETTLE"

// LiveMinTradeMargin is the sizing floor used against a live broker
// account, where the backtest floor is too coarse.
const LiveMinTradeMargin = 200.0

// Config is everything a run needs, loaded once at start up.
type Config struct {
	Account     AccountConfig     `mapstructure:"account" json:"account" yaml:"account"`
	Sizing      SizingConfig      `mapstructure:"sizing" json:"sizing" yaml:"sizing"`
	Risk        RiskConfig        `mapstructure:"risk" json:"risk" yaml:"risk"`
	Valuation   ValuationConfig   `mapstructure:"valuation" json:"valuation" yaml:"valuation"`
	Adjustments AdjustmentsConfig `mapstructure:"adjustments" json:"adjustments" yaml:"adjustments"`
	Backtest    BacktestConfig    `mapstructure:"backtest" json:"backtest" yaml:"backtest"`
	Journal     JournalConfig     `mapstructure:"journal" json:"journal" yaml:"journal"`
	Log         logger.Config     `mapstructure:"log" json:"log" yaml:"log"`
}

type AccountConfig struct {
	ID              string  `mapstructure:"id" json:"id" yaml:"id"`
	Currency        string  `mapstructure:"currency" json:"currency" yaml:"currency"`
	StartingCapital float64 `mapstructure:"starting_capital" json:"starting_capital" yaml:"starting_capital"`
	EquitySplit     float64 `mapstructure:"equity_split" json:"equity_split" yaml:"equity_split"`
}

type SizingConfig struct {
	TradeableMarginCap float64 `mapstructure:"tradeable_margin_cap" json:"tradeable_margin_cap" yaml:"tradeable_margin_cap"`
	ReserveFraction    float64 `mapstructure:"reserve_fraction" json:"reserve_fraction" yaml:"reserve_fraction"`
	MinTradeMargin     float64 `mapstructure:"min_trade_margin" json:"min_trade_margin" yaml:"min_trade_margin"`
}

type RiskConfig struct {
	MaxRiskPct float64 `mapstructure:"max_risk_pct" json:"max_risk_pct" yaml:"max_risk_pct"`
}

// ValuationConfig holds the fixed margin-to-pip ratios used in backtests.
// A ratio of 0 leaves the class unvalued.
type ValuationConfig struct {
	CurrencyRatio  float64 `mapstructure:"currency_ratio" json:"currency_ratio" yaml:"currency_ratio"`
	IndexRatio     float64 `mapstructure:"index_ratio" json:"index_ratio" yaml:"index_ratio"`
	CommodityRatio float64 `mapstructure:"commodity_ratio" json:"commodity_ratio" yaml:"commodity_ratio"`
}

// AdjustmentsConfig is the default schedule plus per-instrument overrides
// keyed by symbol.
type AdjustmentsConfig struct {
	Default     sim.Schedule            `mapstructure:"default" json:"default" yaml:"default"`
	Instruments map[string]sim.Schedule `mapstructure:"instruments" json:"instruments,omitempty" yaml:"instruments,omitempty"`
}

type BacktestConfig struct {
	BarsFile       string           `mapstructure:"bars_file" json:"bars_file" yaml:"bars_file"`
	MonthlyDeposit float64          `mapstructure:"monthly_deposit" json:"monthly_deposit" yaml:"monthly_deposit"`
	Strategies     []StrategyConfig `mapstructure:"strategies" json:"strategies" yaml:"strategies"`
}

// StrategyConfig places orders for one externally produced signal column.
// Distances are in price units.
type StrategyConfig struct {
	Label          string  `mapstructure:"label" json:"label" yaml:"label"`
	Instrument     string  `mapstructure:"instrument" json:"instrument" yaml:"instrument"`
	Style          string  `mapstructure:"style" json:"style" yaml:"style"` // fixed | trailing
	TargetDistance float64 `mapstructure:"target_distance" json:"target_distance" yaml:"target_distance"`
	StopDistance   float64 `mapstructure:"stop_distance" json:"stop_distance" yaml:"stop_distance"`
	EntryOffset    float64 `mapstructure:"entry_offset" json:"entry_offset" yaml:"entry_offset"`
	Spread         float64 `mapstructure:"spread" json:"spread" yaml:"spread"`
	MaxOpen        int     `mapstructure:"max_open" json:"max_open" yaml:"max_open"`
}

type JournalConfig struct {
	Type       string `mapstructure:"type" json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `mapstructure:"trades_file" json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `mapstructure:"equity_file" json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `mapstructure:"db_path" json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile reads a YAML or JSON file and applies FXSETTLE_ environment
// overrides on top of it. Keys missing from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every scalar key so that environment overrides
// apply even when the file leaves the key out.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("account.id", d.Account.ID)
	v.SetDefault("account.currency", d.Account.Currency)
	v.SetDefault("account.starting_capital", d.Account.StartingCapital)
	v.SetDefault("account.equity_split", d.Account.EquitySplit)

	v.SetDefault("sizing.tradeable_margin_cap", d.Sizing.TradeableMarginCap)
	v.SetDefault("sizing.reserve_fraction", d.Sizing.ReserveFraction)
	v.SetDefault("sizing.min_trade_margin", d.Sizing.MinTradeMargin)

	v.SetDefault("risk.max_risk_pct", d.Risk.MaxRiskPct)

	v.SetDefault("valuation.currency_ratio", d.Valuation.CurrencyRatio)
	v.SetDefault("valuation.index_ratio", d.Valuation.IndexRatio)
	v.SetDefault("valuation.commodity_ratio", d.Valuation.CommodityRatio)

	v.SetDefault("adjustments.default", scheduleMap(d.Adjustments.Default))

	v.SetDefault("backtest.bars_file", d.Backtest.BarsFile)
	v.SetDefault("backtest.monthly_deposit", d.Backtest.MonthlyDeposit)

	v.SetDefault("journal.type", d.Journal.Type)
	v.SetDefault("journal.trades_file", d.Journal.TradesFile)
	v.SetDefault("journal.equity_file", d.Journal.EquityFile)
	v.SetDefault("journal.db_path", d.Journal.DBPath)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
}

func scheduleMap(s sim.Schedule) map[string]any {
	moves := make([]map[string]any, len(s.StopMoves))
	for i, m := range s.StopMoves {
		moves[i] = map[string]any{"check": m.Check, "move": m.Move}
	}
	closes := make([]map[string]any, len(s.PartialCloses))
	for i, p := range s.PartialCloses {
		closes[i] = map[string]any{"check": p.Check, "close": p.Close}
	}
	return map[string]any{"stop_moves": moves, "partial_closes": closes}
}

// normalize restores the case of instrument keys, which viper lowers.
func (c *Config) normalize() {
	if len(c.Adjustments.Instruments) == 0 {
		return
	}
	out := make(map[string]sim.Schedule, len(c.Adjustments.Instruments))
	for k, s := range c.Adjustments.Instruments {
		out[strings.ToUpper(k)] = s
	}
	c.Adjustments.Instruments = out
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return errors.New("account.currency is required")
	}
	if c.Account.StartingCapital <= 0 {
		return errors.New("account.starting_capital must be positive")
	}
	if c.Account.EquitySplit < 1 {
		return errors.New("account.equity_split must be at least 1")
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("sizing: %w", err)
	}
	if err := c.RiskPolicy().Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if c.Valuation.CurrencyRatio < 0 || c.Valuation.IndexRatio < 0 || c.Valuation.CommodityRatio < 0 {
		return errors.New("valuation ratios cannot be negative")
	}

	if err := c.Adjustments.Default.Validate(); err != nil {
		return fmt.Errorf("adjustments.default: %w", err)
	}
	for symbol, s := range c.Adjustments.Instruments {
		if !strings.Contains(symbol, "_") {
			return fmt.Errorf("adjustments.instruments: %q is not an instrument symbol", symbol)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("adjustments.instruments.%s: %w", symbol, err)
		}
	}

	if c.Backtest.MonthlyDeposit < 0 {
		return errors.New("backtest.monthly_deposit cannot be negative")
	}
	seen := make(map[string]bool, len(c.Backtest.Strategies))
	for i, s := range c.Backtest.Strategies {
		if err := s.validate(); err != nil {
			return fmt.Errorf("backtest.strategies[%d]: %w", i, err)
		}
		if seen[s.Label] {
			return fmt.Errorf("backtest.strategies[%d]: duplicate label %q", i, s.Label)
		}
		seen[s.Label] = true
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return errors.New("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return errors.New("journal db_path required for SQLite type")
		}
	default:
		return errors.New("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

func (s StrategyConfig) validate() error {
	switch {
	case s.Label == "":
		return errors.New("label is required")
	case strings.Contains(s.Label, "_"):
		return fmt.Errorf("label %q cannot contain '_'", s.Label)
	case s.TargetDistance <= 0 || s.StopDistance <= 0:
		return errors.New("target_distance and stop_distance must be positive")
	case s.Spread <= 0:
		return errors.New("spread must be positive")
	case s.EntryOffset < 0:
		return errors.New("entry_offset cannot be negative")
	case s.MaxOpen < 1:
		return errors.New("max_open must be at least 1")
	}
	if _, ok := market.Instruments[s.Instrument]; !ok {
		return fmt.Errorf("unknown instrument: %s", s.Instrument)
	}
	if _, err := order.ParseExitStyle(s.Style); err != nil {
		return err
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:              "BT-001",
			Currency:        "GBP",
			StartingCapital: 10000,
			EquitySplit:     6,
		},
		Sizing: SizingConfig{
			TradeableMarginCap: sim.DefaultTradeableMarginCap,
			ReserveFraction:    sim.DefaultReserveFraction,
			MinTradeMargin:     sim.DefaultMinTradeMargin,
		},
		Risk: RiskConfig{MaxRiskPct: risk.DefaultMaxRiskPct},
		Valuation: ValuationConfig{
			CurrencyRatio: sim.CurrencyMarginToPip,
			IndexRatio:    sim.IndexMarginToPip,
		},
		Adjustments: AdjustmentsConfig{Default: sim.DefaultSchedule()},
		Backtest: BacktestConfig{
			BarsFile: "./bars.csv",
			Strategies: []StrategyConfig{
				{
					Label:          "1",
					Instrument:     "NAS100_USD",
					Style:          "trailing",
					TargetDistance: 48.3,
					StopDistance:   16.1,
					EntryOffset:    0,
					Spread:         0.3,
					MaxOpen:        1,
				},
			},
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

func (c *Config) Policy() sim.SizingPolicy {
	return sim.SizingPolicy{
		TradeableMarginCap: c.Sizing.TradeableMarginCap,
		ReserveFraction:    c.Sizing.ReserveFraction,
		MinTradeMargin:     c.Sizing.MinTradeMargin,
	}
}

// LivePolicy is Policy with the live sizing floor.
func (c *Config) LivePolicy() sim.SizingPolicy {
	p := c.Policy()
	p.MinTradeMargin = LiveMinTradeMargin
	return p
}

func (c *Config) RiskPolicy() risk.Policy {
	return risk.Policy{MaxRiskPct: c.Risk.MaxRiskPct}
}

// Valuer builds the fixed-ratio valuer from the configured ratios.
func (c *Config) Valuer() sim.FixedRatioValuer {
	ratios := map[market.Class]float64{}
	for class, r := range map[market.Class]float64{
		market.Currency:  c.Valuation.CurrencyRatio,
		market.Index:     c.Valuation.IndexRatio,
		market.Commodity: c.Valuation.CommodityRatio,
	} {
		if r > 0 {
			ratios[class] = r
		}
	}
	return sim.FixedRatioValuer{Ratios: ratios}
}

// ScheduleFor returns the override for symbol, or the default schedule.
func (c *Config) ScheduleFor(symbol string) sim.Schedule {
	if s, ok := c.Adjustments.Instruments[symbol]; ok {
		return s
	}
	return c.Adjustments.Default
}

func (c *Config) NewAccount() (*sim.Account, error) {
	return sim.NewAccount(c.Account.Currency, c.Account.StartingCapital, c.Account.EquitySplit)
}
