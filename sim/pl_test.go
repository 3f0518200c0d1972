package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxsettle/market"
	"github.com/rustyeddy/fxsettle/order"
	"github.com/rustyeddy/fxsettle/pricing"
)

func eurgbp(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.New(order.Spec{
		Direction:  order.Long,
		Style:      order.FixedTarget,
		Instrument: market.Instruments["EUR_GBP"],
		Entry:      0.85,
		TakeProfit: 0.852,
		StopLoss:   0.849,
		MarginSize: 1000,
		Spread:     0.0002,
		Label:      "1_long",
	})
	require.NoError(t, err)
	return o
}

func nas(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.New(nasSpec(order.Long, order.TrailingStop, 1500, "1_long"))
	require.NoError(t, err)
	return o
}

func TestFixedRatioValuer(t *testing.T) {
	t.Parallel()

	v := DefaultFixedRatioValuer()

	got, err := v.Value(nas(t), 1500, 48.3)
	require.NoError(t, err)
	assert.InDelta(t, 1500.0/143*48.3, got, 1e-9)

	got, err = v.Value(eurgbp(t), 1000, 0.002)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0/426*20, got, 1e-9)

	oil := nas(t)
	oil.Instrument = market.Instruments["BCO_USD"]
	_, err = v.Value(oil, 1000, 1)
	assert.True(t, errors.Is(err, ErrNoValuation))
}

func TestConverterValuer(t *testing.T) {
	t.Parallel()

	rates := pricing.NewTickStore()
	rates.Set(pricing.Tick{Instrument: "GBP_USD", Bid: 1.2498, Ask: 1.25})
	v := ConverterValuer{Converter: market.NewConverter("GBP"), Rates: rates}

	// 2886.9/1.25 per unit, 12 units, 9.6 a point
	got, err := v.Value(nas(t), 1500, 48.3)
	require.NoError(t, err)
	assert.InDelta(t, 9.6*48.3, got, 1e-9)

	// 35294 units, 3.53 a pip, 20 pips
	got, err = v.Value(eurgbp(t), 1000, 0.002)
	require.NoError(t, err)
	assert.InDelta(t, 3.53*0.002*1e4, got, 1e-9)
}

func TestConverterValuer_MissingRate(t *testing.T) {
	t.Parallel()

	v := ConverterValuer{Converter: market.NewConverter("GBP"), Rates: pricing.NewTickStore()}
	_, err := v.Value(nas(t), 1500, 10)
	assert.True(t, errors.Is(err, pricing.ErrExchangeRateUnavailable))

	v.Rates = nil
	_, err = v.Value(nas(t), 1500, 10)
	assert.True(t, errors.Is(err, pricing.ErrExchangeRateUnavailable))
}

func TestEngine_WithConverterValuer(t *testing.T) {
	t.Parallel()

	rates := pricing.NewTickStore()
	rates.Set(pricing.Tick{Instrument: "GBP_USD", Bid: 1.2498, Ask: 1.25})
	e, _ := newEngine(t, WithValuer(ConverterValuer{Converter: market.NewConverter("GBP"), Rates: rates}))
	openFilled(t, e)

	require.NoError(t, e.SettleActivePositions(t0, Quote{Long: entry + 48.3}))
	assert.InDelta(t, 10000+9.6*48.3-9.6*0.3, e.TotalMargin(), 1e-9)
}
