package order

import (
	"fmt"

	"github.com/rustyeddy/fxsettle/market"
)

func (o *Order) hitTakeProfit(price float64) bool {
	if o.Direction == Long {
		return price >= o.TakeProfit
	}
	return price <= o.TakeProfit
}

func (o *Order) hitStopLoss(price float64) bool {
	if o.Direction == Long {
		return price <= o.stopLoss
	}
	return price >= o.stopLoss
}

// StatusAt checks a single reference price against the target, then the
// stop.
func (o *Order) StatusAt(price float64) Status {
	switch {
	case o.hitTakeProfit(price):
		return TargetHit
	case o.hitStopLoss(price):
		return StopHit
	}
	return None
}

// Exit describes how an order leaves the market at a given price.
// Pips is a signed price distance: positive is profit.
type Exit struct {
	Status  Status
	Pips    float64
	Outcome Outcome
}

// Evaluate reports whether price closes the order. A stop hit on a
// trailing order that sits in profit is a win with positive pips. A stop
// resting exactly at entry is a zero pip loss.
func (o *Order) Evaluate(price float64) (Exit, bool) {
	switch o.StatusAt(price) {
	case TargetHit:
		return Exit{Status: TargetHit, Pips: o.ProfitTargetDistance(), Outcome: Win}, true
	case StopHit:
		pips := market.Round(o.Direction.Sign()*(o.stopLoss-o.Entry), distancePrecision)
		outcome := Loss
		if pips > 0 {
			outcome = Win
		}
		return Exit{Status: StopHit, Pips: pips, Outcome: outcome}, true
	}
	return Exit{}, false
}

// TargetReached reports whether price has covered fraction of the
// distance to take profit.
func (o *Order) TargetReached(price, fraction float64) bool {
	d := o.ProfitTargetDistance() * fraction
	if o.Direction == Long {
		return price >= o.Entry+d
	}
	return price <= o.Entry-d
}

// StopReached reports whether price has covered fraction of the distance
// to the stop.
func (o *Order) StopReached(price, fraction float64) bool {
	d := o.LossTargetDistance() * fraction
	if o.Direction == Long {
		return price <= o.Entry-d
	}
	return price >= o.Entry+d
}

// MoveStopToFractionOfTarget ratchets a trailing stop to entry plus
// fraction of the profit distance. The new stop must stay short of both
// the take profit and the current price and may not loosen the stop.
func (o *Order) MoveStopToFractionOfTarget(current, fraction float64) error {
	if o.Style != TrailingStop {
		return fmt.Errorf("%w: %s order has a fixed stop", ErrInvalidStopAdjustment, o.Style)
	}
	if fraction <= 0 {
		return fmt.Errorf("%w: fraction must be greater than 0, got %v", ErrInvalidStopAdjustment, fraction)
	}

	next := market.Round(o.Entry+o.Direction.Sign()*o.ProfitTargetDistance()*fraction, distancePrecision)

	s := o.Direction.Sign()
	switch {
	case s*(next-o.TakeProfit) >= 0:
		return fmt.Errorf("%w: stop %v at or beyond take profit %v", ErrInvalidStopAdjustment, next, o.TakeProfit)
	case s*(next-current) >= 0:
		return fmt.Errorf("%w: stop %v at or beyond current price %v", ErrInvalidStopAdjustment, next, current)
	case s*(next-o.stopLoss) < 0:
		return fmt.Errorf("%w: stop %v would loosen %v", ErrInvalidStopAdjustment, next, o.stopLoss)
	}
	o.stopLoss = next
	return nil
}
