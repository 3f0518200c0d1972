package sim

import (
	"fmt"

	"github.com/rustyeddy/fxsettle/market"
)

const (
	DefaultTradeableMarginCap = 0.9
	DefaultReserveFraction    = 0.1
	DefaultMinTradeMargin     = 500.0
)

// SizingPolicy decides how much margin a new trade may take. Tradeable
// margin is TotalMargin*TradeableMarginCap; ReserveFraction of total is
// never handed out; trades below MinTradeMargin are not placed.
type SizingPolicy struct {
	TradeableMarginCap float64
	ReserveFraction    float64
	MinTradeMargin     float64
}

func DefaultSizingPolicy() SizingPolicy {
	return SizingPolicy{
		TradeableMarginCap: DefaultTradeableMarginCap,
		ReserveFraction:    DefaultReserveFraction,
		MinTradeMargin:     DefaultMinTradeMargin,
	}
}

func (p SizingPolicy) Validate() error {
	if p.TradeableMarginCap <= 0 || p.TradeableMarginCap > 1 {
		return fmt.Errorf("tradeable margin cap must be in (0, 1], got %v", p.TradeableMarginCap)
	}
	if p.ReserveFraction < 0 || p.ReserveFraction >= 1 {
		return fmt.Errorf("reserve fraction must be in [0, 1), got %v", p.ReserveFraction)
	}
	if p.MinTradeMargin < 0 {
		return fmt.Errorf("min trade margin cannot be negative, got %v", p.MinTradeMargin)
	}
	return nil
}

// clamp limits raw to the headroom left after the reserve. Headroom under
// the floor means no trade at all.
func (p SizingPolicy) clamp(raw, available, total float64) float64 {
	headroom := available - total*p.ReserveFraction
	if raw <= headroom {
		return raw
	}
	if headroom < p.MinTradeMargin {
		return 0
	}
	return headroom
}

// BrokerSnapshot is the part of a live account summary needed for sizing.
type BrokerSnapshot struct {
	Balance         float64
	MarginAvailable float64
	PendingUnits    float64 // absolute units across unfilled orders
}

// SizeFromSnapshot sizes a live trade from broker figures. Margin reserved
// by unfilled orders is taken out of the available margin first.
func SizeFromSnapshot(s BrokerSnapshot, equitySplit float64, p SizingPolicy, inst market.Instrument, f market.Factors) float64 {
	if equitySplit < 1 {
		return 0
	}
	raw := s.Balance * p.TradeableMarginCap / equitySplit
	available := s.MarginAvailable - market.UnitsToMargin(inst, s.PendingUnits, f)
	if available < 0 {
		available = 0
	}
	return p.clamp(raw, available, s.Balance)
}

// UnitsFromSnapshot converts SizeFromSnapshot into instrument units.
func UnitsFromSnapshot(s BrokerSnapshot, equitySplit float64, p SizingPolicy, inst market.Instrument, f market.Factors) float64 {
	return market.MarginToUnits(inst, SizeFromSnapshot(s, equitySplit, p, inst, f), f)
}
