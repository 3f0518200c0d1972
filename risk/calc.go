package risk

import (
	"math"

	"github.com/rustyeddy/fxsettle/market"
)

// PlannedRisk is the account currency lost if a position of units is
// stopped out stopDistance (price units) away from entry.
func PlannedRisk(inst market.Instrument, units, stopDistance float64, f market.Factors) float64 {
	pips := math.Abs(stopDistance) * inst.DecimalRatio
	return market.PipValuePerUnit(inst, units, f) * pips
}

// CapUnits scales units down linearly so that risk lands on maxRisk.
// Units are returned unchanged when risk is already within the limit.
func CapUnits(units, risk, maxRisk float64) float64 {
	if risk <= maxRisk || maxRisk <= 0 {
		return units
	}
	return units / (risk / maxRisk)
}

func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

func RiskPct(plannedRisk, balance float64) float64 {
	if balance <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / balance
}
