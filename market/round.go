package market

import "github.com/shopspring/decimal"

// Round rounds x to places decimal digits, half away from zero, working on
// the shortest decimal representation of x rather than its binary value.
func Round(x float64, places int) float64 {
	return decimal.NewFromFloat(x).Round(int32(places)).InexactFloat64()
}
