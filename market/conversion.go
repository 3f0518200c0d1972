package market

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/fxsettle/pricing"
)

var (
	ErrNoConversionPath = errors.New("no conversion path to account currency")
	ErrInvalidRate      = errors.New("exchange rate must be positive")
)

// Factors turn instrument units into account currency. Units divides
// leveraged margin into units, Pip divides a pip count into account money.
type Factors struct {
	Units float64
	Pip   float64
}

type Converter struct {
	AccountCurrency string
}

func NewConverter(accountCurrency string) Converter {
	return Converter{AccountCurrency: accountCurrency}
}

// Factors resolves the conversion factors for inst at the given reference
// price. rate is the ask of the configured conversion pair and is ignored
// for instruments that convert directly.
func (c Converter) Factors(inst Instrument, price, rate float64) (Factors, error) {
	if inst.Conversion != nil {
		if rate <= 0 {
			return Factors{}, fmt.Errorf("%s via %s: %w", inst.Symbol, inst.Conversion.Symbol, ErrInvalidRate)
		}
		if inst.Conversion.Inverse {
			return Factors{Units: 1 / rate, Pip: 1 / rate}, nil
		}
		return Factors{Units: price / rate, Pip: rate}, nil
	}

	if price <= 0 {
		return Factors{}, fmt.Errorf("%s: reference price must be positive", inst.Symbol)
	}

	switch {
	case inst.Class == Currency && inst.BaseCurrency() == c.AccountCurrency:
		return Factors{Units: 1, Pip: price}, nil
	case inst.QuoteCurrency() == c.AccountCurrency:
		return Factors{Units: price, Pip: 1}, nil
	}
	return Factors{}, fmt.Errorf("%s -> %s: %w", inst.Symbol, c.AccountCurrency, ErrNoConversionPath)
}

// MarginToUnits is the whole number of units margin buys at the
// instrument's leverage.
func MarginToUnits(inst Instrument, margin float64, f Factors) float64 {
	if f.Units <= 0 {
		return 0
	}
	return math.Floor(margin * float64(inst.Leverage) / f.Units)
}

// UnitsToMargin is the account currency margin tied up by units.
func UnitsToMargin(inst Instrument, units float64, f Factors) float64 {
	return Round(units*f.Units/float64(inst.Leverage), 2)
}

// PipValuePerUnit is the account currency moved by one pip on a position
// of the given size.
func PipValuePerUnit(inst Instrument, units float64, f Factors) float64 {
	if f.Pip <= 0 {
		return 0
	}
	return Round((units/inst.DecimalRatio)/f.Pip, 2)
}

// ConversionRate fetches the ask of inst's conversion pair. Instruments
// without a path return 0 and no error.
func ConversionRate(ctx context.Context, src pricing.TickSource, inst Instrument) (float64, error) {
	if inst.Conversion == nil {
		return 0, nil
	}
	tick, err := src.GetTick(ctx, inst.Conversion.Symbol)
	if err != nil {
		return 0, fmt.Errorf("conversion rate %s: %w", inst.Conversion.Symbol, err)
	}
	return tick.Ask, nil
}
