package risk

import (
	"fmt"

	"github.com/rustyeddy/fxsettle/market"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	ProposedUnits float64
	Units         float64
	PlannedRisk   float64
	MaxRisk       float64
	Capped        bool
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Manager caps trade sizes for one instrument. Rate is the ask of the
// instrument's conversion pair, zero when it converts directly.
type Manager struct {
	Policy     Policy
	Instrument market.Instrument
	Converter  market.Converter
	Rate       float64
}

func NewManager(p Policy, inst market.Instrument, conv market.Converter, rate float64) *Manager {
	return &Manager{Policy: p, Instrument: inst, Converter: conv, Rate: rate}
}

// Evaluate sizes a proposed trade against the policy. Inputs that cannot
// be sized produce violations rather than errors; only a missing
// conversion path is an error.
func (m *Manager) Evaluate(balance, units, entry, stopDistance float64) (Decision, error) {
	d := Decision{Allowed: true, ProposedUnits: units}

	if units <= 0 {
		d.add("NO_UNITS", "units must be positive")
	}
	if stopDistance <= 0 {
		d.add("NO_STOP", "stop distance must be positive")
	}
	if balance <= 0 {
		d.add("NO_BALANCE", "balance must be positive")
	}
	if !d.Allowed {
		return d, nil
	}

	f, err := m.Converter.Factors(m.Instrument, entry, m.Rate)
	if err != nil {
		return d, fmt.Errorf("risk %s: %w", m.Instrument.Symbol, err)
	}

	d.PlannedRisk = PlannedRisk(m.Instrument, units, stopDistance, f)
	d.MaxRisk = m.Policy.MaxRisk(balance)
	d.Units = CapUnits(units, d.PlannedRisk, d.MaxRisk)
	d.Capped = d.Units != units
	return d, nil
}

// CapUnitsToMaxRisk returns the proposed units, reduced if needed so the
// loss at the stop does not exceed the policy's share of balance.
func (m *Manager) CapUnitsToMaxRisk(balance, units, entry, stopDistance float64) (float64, error) {
	d, err := m.Evaluate(balance, units, entry, stopDistance)
	if err != nil {
		return 0, err
	}
	if !d.Allowed {
		return units, nil
	}
	return d.Units, nil
}
