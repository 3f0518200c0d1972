// market/instruments.go
package market

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownInstrument = errors.New("unknown instrument")

// Class groups instruments that share leverage and pip scale defaults.
type Class string

const (
	Currency  Class = "currency"
	Commodity Class = "commodity"
	Index     Class = "index"
)

const (
	CurrencyLeverage  = 30
	CommodityLeverage = 10
	IndexLeverage     = 20

	CurrencyDecimalRatio  = 1e4
	CommodityDecimalRatio = 1e2
	IndexDecimalRatio     = 1
)

// ConversionPath names the pair quoted to turn instrument margin into the
// account currency. Inverse means the pair is quoted the other way round.
type ConversionPath struct {
	Symbol  string `json:"symbol" yaml:"symbol"`
	Inverse bool   `json:"inverse" yaml:"inverse"`
}

type Instrument struct {
	Symbol         string
	Class          Class
	Leverage       int
	DecimalRatio   float64 // pips per unit of price, 1e4 for 5 digit FX
	PricePrecision int
	Conversion     *ConversionPath
}

// BaseCurrency is the first leg of the symbol (EUR in EUR_GBP).
func (i Instrument) BaseCurrency() string {
	parts := strings.Split(i.Symbol, "_")
	return parts[0]
}

// QuoteCurrency is the last leg of the symbol (GBP in EUR_GBP).
func (i Instrument) QuoteCurrency() string {
	parts := strings.Split(i.Symbol, "_")
	return parts[len(parts)-1]
}

func (i Instrument) validate() error {
	switch {
	case i.Symbol == "":
		return errors.New("instrument symbol is required")
	case i.Leverage <= 0:
		return fmt.Errorf("%s: leverage must be positive", i.Symbol)
	case i.DecimalRatio <= 0:
		return fmt.Errorf("%s: decimal ratio must be positive", i.Symbol)
	case i.PricePrecision < 0:
		return fmt.Errorf("%s: price precision cannot be negative", i.Symbol)
	case i.Conversion != nil && i.Conversion.Symbol == "":
		return fmt.Errorf("%s: conversion path needs a symbol", i.Symbol)
	}
	return nil
}

func currencyPair(symbol string) Instrument {
	return Instrument{
		Symbol:         symbol,
		Class:          Currency,
		Leverage:       CurrencyLeverage,
		DecimalRatio:   CurrencyDecimalRatio,
		PricePrecision: 5,
	}
}

func commodity(symbol string, precision int, via *ConversionPath) Instrument {
	return Instrument{
		Symbol:         symbol,
		Class:          Commodity,
		Leverage:       CommodityLeverage,
		DecimalRatio:   CommodityDecimalRatio,
		PricePrecision: precision,
		Conversion:     via,
	}
}

func index(symbol string, via *ConversionPath) Instrument {
	return Instrument{
		Symbol:         symbol,
		Class:          Index,
		Leverage:       IndexLeverage,
		DecimalRatio:   IndexDecimalRatio,
		PricePrecision: 1,
		Conversion:     via,
	}
}

var viaGBPUSD = &ConversionPath{Symbol: "GBP_USD"}

// Instruments is the static table the default catalog is built from.
var Instruments = map[string]Instrument{
	"EUR_GBP":    currencyPair("EUR_GBP"),
	"GBP_USD":    currencyPair("GBP_USD"),
	"BCO_USD":    commodity("BCO_USD", 3, viaGBPUSD),
	"NAS100_USD": index("NAS100_USD", viaGBPUSD),
	"SPX500_USD": index("SPX500_USD", viaGBPUSD),
	"US30_USD":   index("US30_USD", viaGBPUSD),
}

// Catalog is a read-only lookup of instruments by symbol.
type Catalog struct {
	instruments map[string]Instrument
}

func NewCatalog(list ...Instrument) (*Catalog, error) {
	c := &Catalog{instruments: make(map[string]Instrument, len(list))}
	for _, inst := range list {
		if err := inst.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.instruments[inst.Symbol]; dup {
			return nil, fmt.Errorf("duplicate instrument %s", inst.Symbol)
		}
		c.instruments[inst.Symbol] = inst
	}
	return c, nil
}

// DefaultCatalog returns a catalog holding every entry of Instruments.
func DefaultCatalog() *Catalog {
	list := make([]Instrument, 0, len(Instruments))
	for _, inst := range Instruments {
		list = append(list, inst)
	}
	c, err := NewCatalog(list...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Get(symbol string) (Instrument, error) {
	inst, ok := c.instruments[symbol]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	return inst, nil
}

func (c *Catalog) Symbols() []string {
	out := make([]string, 0, len(c.instruments))
	for s := range c.instruments {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
