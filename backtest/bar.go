package backtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/fxsettle/order"
)

// Signal is the value of one strategy column on a bar. Signals are
// produced outside this package.
type Signal int

const (
	None Signal = 0
	Buy  Signal = 1
	Sell Signal = -1
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "long"
	case Sell:
		return "short"
	}
	return "none"
}

// Direction maps the signal onto an order direction. None has none.
func (s Signal) Direction() (order.Direction, bool) {
	switch s {
	case Buy:
		return order.Long, true
	case Sell:
		return order.Short, true
	}
	return 0, false
}

func ParseSignal(s string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "none":
		return None, nil
	case "1", "long", "buy":
		return Buy, nil
	case "-1", "short", "sell":
		return Sell, nil
	}
	return None, fmt.Errorf("unknown signal %q", s)
}

type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Bar is one period of bid and ask prices with the signal of every
// strategy label for that period.
type Bar struct {
	Time    time.Time
	Bid     OHLC
	Ask     OHLC
	Signals map[string]Signal
}

// Signal returns the signal for label, None when the bar has no column
// for it.
func (b Bar) Signal(label string) Signal {
	return b.Signals[label]
}
