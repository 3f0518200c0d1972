package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/fxsettle/config"
	"github.com/rustyeddy/fxsettle/market"
	"github.com/rustyeddy/fxsettle/order"
)

// pricePrecision is the rounding applied to entry, target and stop.
const pricePrecision = 5

// Strategy turns one signal column into orders. Distances are in price
// units.
type Strategy struct {
	Label          string
	Instrument     market.Instrument
	Style          order.ExitStyle
	TargetDistance float64
	StopDistance   float64
	EntryOffset    float64
	Spread         float64
	MaxOpen        int
}

func StrategiesFromConfig(list []config.StrategyConfig, cat *market.Catalog) ([]Strategy, error) {
	out := make([]Strategy, 0, len(list))
	for _, c := range list {
		inst, err := cat.Get(c.Instrument)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", c.Label, err)
		}
		style, err := order.ParseExitStyle(c.Style)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", c.Label, err)
		}
		out = append(out, Strategy{
			Label:          c.Label,
			Instrument:     inst,
			Style:          style,
			TargetDistance: c.TargetDistance,
			StopDistance:   c.StopDistance,
			EntryOffset:    c.EntryOffset,
			Spread:         c.Spread,
			MaxOpen:        c.MaxOpen,
		})
	}
	return out, nil
}

// OrderLabel is the label a pending order carries for sig.
func (s Strategy) OrderLabel(sig Signal) string {
	return s.Label + "_" + sig.String()
}

// spec builds the order placed on a breakout of the previous bar: longs
// enter above its ask high, shorts below its bid low.
func (s Strategy) spec(dir order.Direction, prev Bar, at time.Time, margin float64) order.Spec {
	spec := order.Spec{
		Direction:  dir,
		Style:      s.Style,
		Instrument: s.Instrument,
		MarginSize: margin,
		Spread:     s.Spread,
		OpenedAt:   at,
	}
	if dir == order.Long {
		spec.Entry = market.Round(prev.Ask.High, pricePrecision) + s.EntryOffset
		spec.TakeProfit = market.Round(spec.Entry+s.TargetDistance, pricePrecision)
		spec.StopLoss = market.Round(spec.Entry-s.StopDistance, pricePrecision)
		spec.Label = s.OrderLabel(Buy)
		return spec
	}
	spec.Entry = prev.Bid.Low - s.EntryOffset
	spec.TakeProfit = market.Round(spec.Entry-s.TargetDistance, pricePrecision)
	spec.StopLoss = market.Round(spec.Entry+s.StopDistance, pricePrecision)
	spec.Label = s.OrderLabel(Sell)
	return spec
}
