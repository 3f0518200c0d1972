package sim

import (
	"errors"
	"fmt"
)

// Account is the ledger the engine settles into. AvailableMargin always
// equals TotalMargin minus the margin of pending and active orders.
type Account struct {
	Currency        string
	StartingCapital float64
	EquitySplit     float64
	TotalMargin     float64
	AvailableMargin float64
	Wins            int
	Losses          int
	Pips            float64
	HighWater       float64
	LowWater        float64
}

func NewAccount(currency string, startingCapital, equitySplit float64) (*Account, error) {
	if startingCapital <= 0 {
		return nil, fmt.Errorf("starting capital must be greater than 0, got %v", startingCapital)
	}
	if equitySplit < 1 {
		return nil, fmt.Errorf("equity split must be at least 1, got %v", equitySplit)
	}
	if currency == "" {
		return nil, errors.New("account currency is required")
	}
	return &Account{
		Currency:        currency,
		StartingCapital: startingCapital,
		EquitySplit:     equitySplit,
		TotalMargin:     startingCapital,
		AvailableMargin: startingCapital,
		HighWater:       startingCapital,
		LowWater:        startingCapital,
	}, nil
}

// commit moves margin from available to an order.
func (a *Account) commit(margin float64) {
	a.AvailableMargin -= margin
}

// release returns margin from an order together with its realized outcome.
func (a *Account) release(margin, outcome float64) {
	a.TotalMargin += outcome
	a.AvailableMargin += margin + outcome
}

func (a *Account) charge(fee float64) {
	a.TotalMargin -= fee
	a.AvailableMargin -= fee
}

func (a *Account) updateWatermarks() {
	if a.TotalMargin > a.HighWater {
		a.HighWater = a.TotalMargin
	}
	if a.TotalMargin < a.LowWater {
		a.LowWater = a.TotalMargin
	}
}

func (a *Account) UsedMargin() float64 {
	return a.TotalMargin - a.AvailableMargin
}
