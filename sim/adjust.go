package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/fxsettle/order"
)

func checkFraction(name string, v float64) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be greater than 0, got %v", ErrInvalidFraction, name, v)
	}
	return nil
}

func checkCloseFraction(v float64) error {
	if v <= 0 || v >= 1 {
		return fmt.Errorf("%w: close fraction must be in (0, 1), got %v", ErrInvalidFraction, v)
	}
	return nil
}

// AdjustTrailingStops ratchets the stop of every active trailing order
// that has covered check of its profit distance to move of that distance.
// Moves that are not valid yet are skipped. Callers run ascending checks.
func (e *Engine) AdjustTrailingStops(check, move float64, q Quote) error {
	if err := checkFraction("check", check); err != nil {
		return err
	}
	if err := checkFraction("move", move); err != nil {
		return err
	}

	for _, o := range e.active {
		if o.Style != order.TrailingStop {
			continue
		}
		price := q.For(o.Direction)
		if !o.TargetReached(price, check) {
			continue
		}
		before := o.StopLoss()
		if err := o.MoveStopToFractionOfTarget(price, move); err != nil {
			if errors.Is(err, order.ErrInvalidStopAdjustment) {
				e.orderLog(o).WithError(err).Debug("stop move skipped")
				continue
			}
			return err
		}
		if o.StopLoss() != before {
			e.orderLog(o).WithFields(logrus.Fields{
				"from": before,
				"to":   o.StopLoss(),
			}).Debug("stop moved")
		}
	}
	return nil
}

// PartiallyClose realizes portion of the remaining margin of every active
// order that has covered check of its profit distance, once per stage.
// The fee is left for final settlement.
func (e *Engine) PartiallyClose(check, portion float64, stage int, q Quote) error {
	reg, ok := e.partials[stage]
	if !ok {
		return fmt.Errorf("%w: %d (want %d or %d)", ErrInvalidStage, stage, FirstStage, SecondStage)
	}
	if err := checkFraction("check", check); err != nil {
		return err
	}
	if err := checkCloseFraction(portion); err != nil {
		return err
	}

	changed := false
	for _, o := range e.active {
		if _, done := reg[o.ID]; done {
			continue
		}
		if !o.TargetReached(q.For(o.Direction), check) {
			continue
		}

		pips := o.ProfitTargetDistance() * check
		closing := o.MarginSize() * portion
		profit, err := e.valuer.Value(o, closing, pips)
		if err != nil {
			return fmt.Errorf("partial close %s: %w", o.ID, err)
		}
		o.ReduceMargin(portion)
		e.acct.release(closing, profit)
		e.acct.Pips += pips
		reg[o.ID] = struct{}{}
		changed = true

		e.orderLog(o).WithFields(logrus.Fields{
			"stage":  stage,
			"closed": closing,
			"profit": profit,
			"left":   o.MarginSize(),
		}).Debug("position partially closed")
	}
	if changed {
		return e.recordEquity(e.clock())
	}
	return nil
}

// CutLosses realizes portion of the remaining margin as a loss on every
// active order that has covered check of its stop distance. Each order is
// cut at most once. Orders whose stop already sits at or past entry have
// no loss left to cut.
func (e *Engine) CutLosses(check, portion float64, q Quote) error {
	if err := checkFraction("check", check); err != nil {
		return err
	}
	if err := checkCloseFraction(portion); err != nil {
		return err
	}

	changed := false
	for _, o := range e.active {
		if _, done := e.lossesCut[o.ID]; done {
			continue
		}
		if o.LossTargetDistance() <= 0 || !o.StopReached(q.For(o.Direction), check) {
			continue
		}

		pips := o.LossTargetDistance() * check
		closing := o.MarginSize() * portion
		loss, err := e.valuer.Value(o, closing, pips)
		if err != nil {
			return fmt.Errorf("cut losses %s: %w", o.ID, err)
		}
		o.ReduceMargin(portion)
		e.acct.release(closing, -loss)
		e.acct.Pips -= pips
		e.lossesCut[o.ID] = struct{}{}
		changed = true

		e.orderLog(o).WithFields(logrus.Fields{
			"closed": closing,
			"loss":   loss,
			"left":   o.MarginSize(),
		}).Debug("losses cut")
	}
	if changed {
		return e.recordEquity(e.clock())
	}
	return nil
}
