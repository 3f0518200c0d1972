package risk

import "fmt"

// DefaultMaxRiskPct is the share of balance a single stop-out may cost.
const DefaultMaxRiskPct = 0.15

type Policy struct {
	MaxRiskPct float64 // 0.15; 0.05 and 0.1 are common tighter settings
}

func DefaultPolicy() Policy {
	return Policy{MaxRiskPct: DefaultMaxRiskPct}
}

func (p Policy) Validate() error {
	if p.MaxRiskPct <= 0 || p.MaxRiskPct > 1 {
		return fmt.Errorf("max risk pct must be in (0, 1], got %v", p.MaxRiskPct)
	}
	return nil
}

// MaxRisk is the most account currency a trade may lose.
func (p Policy) MaxRisk(balance float64) float64 {
	return balance * p.MaxRiskPct
}
