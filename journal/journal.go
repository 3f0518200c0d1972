// journal/journal.go
package journal

import "time"

// TradeRecord is one settled position.
type TradeRecord struct {
	TradeID    string
	Label      string
	Instrument string
	Direction  string
	MarginSize float64 // margin still open at settlement
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64 // stop at the time of close
	Pips       float64 // signed price distance realized
	RealizedPL float64 // account currency, before fee
	Fee        float64
	Outcome    string // win | loss
	OpenTime   time.Time
	CloseTime  time.Time
	Reason     string // target_hit | stop_hit
}

// EquitySnapshot is the account after a settlement or partial close.
type EquitySnapshot struct {
	Time            time.Time
	TotalMargin     float64
	AvailableMargin float64
	UsedMargin      float64
	HighWater       float64
	LowWater        float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// RunRecorder is implemented by journals that also keep backtest run
// summaries.
type RunRecorder interface {
	RecordRun(RunRecord) error
}

// Discard drops everything.
var Discard Journal = discard{}

type discard struct{}

func (discard) RecordTrade(TradeRecord) error     { return nil }
func (discard) RecordEquity(EquitySnapshot) error { return nil }
func (discard) Close() error                      { return nil }
