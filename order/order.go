package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rustyeddy/fxsettle/market"
)

var (
	ErrInvalidOrderParameters = errors.New("invalid order parameters")
	ErrInvalidStopAdjustment  = errors.New("invalid stop adjustment")
)

// distancePrecision is the rounding applied to target and stop distances.
const distancePrecision = 5

// Spec carries everything needed to create an order.
type Spec struct {
	Direction  Direction
	Style      ExitStyle
	Instrument market.Instrument
	Entry      float64
	TakeProfit float64
	StopLoss   float64
	MarginSize float64
	Spread     float64
	OpenedAt   time.Time
	Label      string
}

// Order is one position from placement to close. Only the stop (trailing
// orders), the margin (partial closes) and the lifecycle fields change
// after creation.
type Order struct {
	ID         string
	Direction  Direction
	Style      ExitStyle
	Instrument market.Instrument
	Entry      float64
	TakeProfit float64
	Spread     float64
	OpenedAt   time.Time
	ClosedAt   time.Time
	Label      string
	State      State
	Outcome    Outcome

	stopLoss float64
	margin   float64
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrderParameters, fmt.Sprintf(format, args...))
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// New validates spec and returns a pending order. Take profit and stop
// loss are rounded to distancePrecision places before they are checked.
func New(spec Spec) (*Order, error) {
	if !finite(spec.Entry, spec.TakeProfit, spec.StopLoss, spec.MarginSize, spec.Spread) {
		return nil, invalid("prices, margin and spread must be finite numbers")
	}
	spec.TakeProfit = market.Round(spec.TakeProfit, distancePrecision)
	spec.StopLoss = market.Round(spec.StopLoss, distancePrecision)

	switch {
	case !spec.Direction.Valid():
		return nil, invalid("direction %v", spec.Direction)
	case spec.Style != FixedTarget && spec.Style != TrailingStop:
		return nil, invalid("exit style %v", spec.Style)
	case spec.MarginSize <= 0:
		return nil, invalid("margin size must be greater than 0, got %v", spec.MarginSize)
	case spec.Spread <= 0:
		return nil, invalid("spread must be greater than 0, got %v", spec.Spread)
	case spec.Entry < 0:
		return nil, invalid("entry price cannot be negative, got %v", spec.Entry)
	case strings.TrimSpace(spec.Label) == "":
		return nil, invalid("label is required")
	case spec.Instrument.DecimalRatio <= 0:
		return nil, invalid("instrument %q has no decimal ratio", spec.Instrument.Symbol)
	}

	s := spec.Direction.Sign()
	if s*(spec.TakeProfit-spec.Entry) <= 0 {
		return nil, invalid("%s take profit %v must be beyond entry %v", spec.Direction, spec.TakeProfit, spec.Entry)
	}
	if s*(spec.Entry-spec.StopLoss) <= 0 {
		return nil, invalid("%s stop loss %v must be behind entry %v", spec.Direction, spec.StopLoss, spec.Entry)
	}

	return &Order{
		Direction:  spec.Direction,
		Style:      spec.Style,
		Instrument: spec.Instrument,
		Entry:      spec.Entry,
		TakeProfit: spec.TakeProfit,
		Spread:     spec.Spread,
		OpenedAt:   spec.OpenedAt,
		Label:      spec.Label,
		State:      Pending,
		stopLoss:   spec.StopLoss,
		margin:     spec.MarginSize,
	}, nil
}

func (o *Order) StopLoss() float64 { return o.stopLoss }

// MarginSize is the margin still committed to the order.
func (o *Order) MarginSize() float64 { return o.margin }

// ReduceMargin takes fraction of the remaining margin off the order and
// returns the amount removed.
func (o *Order) ReduceMargin(fraction float64) float64 {
	closed := o.margin * fraction
	o.margin -= closed
	return closed
}

// StrategyID is the label up to the first underscore.
func (o *Order) StrategyID() string {
	id, _, _ := strings.Cut(o.Label, "_")
	return id
}

// Fill activates a pending order and drops the signal suffix from its
// label.
func (o *Order) Fill() {
	o.State = Active
	o.Label = o.StrategyID()
}

func (o *Order) Discard() {
	o.State = Discarded
}

func (o *Order) Close(at time.Time, outcome Outcome) {
	o.State = Closed
	o.ClosedAt = at
	o.Outcome = outcome
}

// ProfitTargetDistance is the price distance from entry to take profit.
func (o *Order) ProfitTargetDistance() float64 {
	return market.Round(o.Direction.Sign()*(o.TakeProfit-o.Entry), distancePrecision)
}

// LossTargetDistance is the price distance from entry back to the stop.
// It goes negative once a trailing stop has been moved past entry.
func (o *Order) LossTargetDistance() float64 {
	return market.Round(o.Direction.Sign()*(o.Entry-o.stopLoss), distancePrecision)
}

func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s entry=%v tp=%v sl=%v margin=%.2f label=%s state=%s",
		o.Instrument.Symbol, o.Direction, o.Style, o.Entry, o.TakeProfit, o.stopLoss, o.margin, o.Label, o.State)
}
