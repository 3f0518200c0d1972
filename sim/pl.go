package sim

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/fxsettle/market"
	"github.com/rustyeddy/fxsettle/order"
	"github.com/rustyeddy/fxsettle/pricing"
)

var ErrNoValuation = errors.New("no valuation for instrument")

// Valuer prices a distance (in price units) on a slice of an order's
// margin in account currency.
type Valuer interface {
	Value(o *order.Order, margin, distance float64) (float64, error)
}

// Default margin-to-pip ratios for backtests: one pip on ratio units of
// margin is worth one unit of account currency.
const (
	CurrencyMarginToPip = 426
	IndexMarginToPip    = 143
)

// FixedRatioValuer values trades with a constant margin-to-pip ratio per
// instrument class, which is what the backtests use instead of live rates.
type FixedRatioValuer struct {
	Ratios map[market.Class]float64
}

func DefaultFixedRatioValuer() FixedRatioValuer {
	return FixedRatioValuer{Ratios: map[market.Class]float64{
		market.Currency: CurrencyMarginToPip,
		market.Index:    IndexMarginToPip,
	}}
}

func (v FixedRatioValuer) Value(o *order.Order, margin, distance float64) (float64, error) {
	ratio, ok := v.Ratios[o.Instrument.Class]
	if !ok || ratio <= 0 {
		return 0, fmt.Errorf("%w: %s (%s)", ErrNoValuation, o.Instrument.Symbol, o.Instrument.Class)
	}
	return (margin / ratio) * (distance * o.Instrument.DecimalRatio), nil
}

// ConverterValuer values trades with the unit converter and the latest
// conversion rates held in Rates.
type ConverterValuer struct {
	Converter market.Converter
	Rates     *pricing.TickStore
}

func (v ConverterValuer) Value(o *order.Order, margin, distance float64) (float64, error) {
	var rate float64
	if o.Instrument.Conversion != nil {
		if v.Rates == nil {
			return 0, fmt.Errorf("%w: %s", pricing.ErrExchangeRateUnavailable, o.Instrument.Conversion.Symbol)
		}
		t, err := v.Rates.Get(o.Instrument.Conversion.Symbol)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", pricing.ErrExchangeRateUnavailable, err)
		}
		rate = t.Ask
	}
	f, err := v.Converter.Factors(o.Instrument, o.Entry, rate)
	if err != nil {
		return 0, err
	}
	units := market.MarginToUnits(o.Instrument, margin, f)
	return market.PipValuePerUnit(o.Instrument, units, f) * distance * o.Instrument.DecimalRatio, nil
}
