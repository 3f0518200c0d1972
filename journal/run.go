package journal

import "time"

// RunRecord summarises one backtest replay.
type RunRecord struct {
	RunID   string
	Created time.Time
	Dataset string
	Bars    int

	StartBalance float64
	EndBalance   float64
	HighWater    float64
	LowWater     float64

	Trades int
	Wins   int
	Losses int
	Pips   float64
}

func (r RunRecord) NetPL() float64 {
	return r.EndBalance - r.StartBalance
}

// ReturnPct is the net result as a percentage of the starting balance.
func (r RunRecord) ReturnPct() float64 {
	if r.StartBalance == 0 {
		return 0
	}
	return 100 * r.NetPL() / r.StartBalance
}
