package market

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	assert.Equal(t, []string{"BCO_USD", "EUR_GBP", "GBP_USD", "NAS100_USD", "SPX500_USD", "US30_USD"}, c.Symbols())

	nas, err := c.Get("NAS100_USD")
	require.NoError(t, err)
	assert.Equal(t, Index, nas.Class)
	assert.Equal(t, 20, nas.Leverage)
	assert.Equal(t, 1.0, nas.DecimalRatio)
	assert.Equal(t, 1, nas.PricePrecision)
	require.NotNil(t, nas.Conversion)
	assert.Equal(t, "GBP_USD", nas.Conversion.Symbol)
	assert.False(t, nas.Conversion.Inverse)

	eg, err := c.Get("EUR_GBP")
	require.NoError(t, err)
	assert.Equal(t, "EUR", eg.BaseCurrency())
	assert.Equal(t, "GBP", eg.QuoteCurrency())
	assert.Nil(t, eg.Conversion)
}

func TestCatalog_Unknown(t *testing.T) {
	t.Parallel()

	_, err := DefaultCatalog().Get("XAU_EUR")
	assert.True(t, errors.Is(err, ErrUnknownInstrument))
}

func TestNewCatalog_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		list []Instrument
	}{
		{"missing symbol", []Instrument{{Leverage: 1, DecimalRatio: 1}}},
		{"zero leverage", []Instrument{{Symbol: "A_B", DecimalRatio: 1}}},
		{"zero ratio", []Instrument{{Symbol: "A_B", Leverage: 1}}},
		{"empty path", []Instrument{{Symbol: "A_B", Leverage: 1, DecimalRatio: 1, Conversion: &ConversionPath{}}}},
		{"duplicate", []Instrument{currencyPair("A_B"), currencyPair("A_B")}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCatalog(tt.list...)
			assert.Error(t, err)
		})
	}
}

func TestRound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 48.3, Round(2935.2-2886.9, 5))
	assert.Equal(t, 1.01, Round(1.005, 2))
	assert.Equal(t, -1.01, Round(-1.005, 2))
	assert.Equal(t, 2887.4, Round(2887.383, 1))
}
