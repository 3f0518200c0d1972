package sim

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/fxsettle/internal/logger"
	"github.com/rustyeddy/fxsettle/journal"
	"github.com/rustyeddy/fxsettle/order"
	"github.com/rustyeddy/fxsettle/pkg/id"
)

var (
	ErrInvalidStage    = errors.New("invalid partial close stage")
	ErrInvalidFraction = errors.New("invalid fraction")
	ErrOrderNotFound   = errors.New("order not found")
)

// Stages that partial closes may be registered under.
const (
	FirstStage  = 1
	SecondStage = 2
)

// Engine runs the order lifecycle against one Account. It holds no lock:
// callers must serialise every call for a given engine.
type Engine struct {
	acct    *Account
	policy  SizingPolicy
	valuer  Valuer
	journal journal.Journal
	log     *logrus.Entry
	ids     *id.Generator
	clock   func() time.Time

	pending []*order.Order
	active  []*order.Order
	closed  []*order.Order

	partials  map[int]map[string]struct{}
	lossesCut map[string]struct{}
}

type Option func(*Engine)

func WithPolicy(p SizingPolicy) Option { return func(e *Engine) { e.policy = p } }

func WithValuer(v Valuer) Option { return func(e *Engine) { e.valuer = v } }

func WithJournal(j journal.Journal) Option { return func(e *Engine) { e.journal = j } }

func WithLogger(l *logrus.Entry) Option { return func(e *Engine) { e.log = l } }

func WithIDs(g *id.Generator) Option { return func(e *Engine) { e.ids = g } }

// WithClock sets the time stamped on equity snapshots taken outside
// settlement.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.clock = now } }

func NewEngine(acct *Account, opts ...Option) (*Engine, error) {
	if acct == nil {
		return nil, errors.New("engine needs an account")
	}
	e := &Engine{
		acct:      acct,
		policy:    DefaultSizingPolicy(),
		valuer:    DefaultFixedRatioValuer(),
		journal:   journal.Discard,
		clock:     time.Now,
		partials:  map[int]map[string]struct{}{FirstStage: {}, SecondStage: {}},
		lossesCut: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.policy.Validate(); err != nil {
		return nil, err
	}
	if e.log == nil {
		e.log = logger.NopEntry()
	}
	if e.ids == nil {
		e.ids = id.NewGenerator(e.clock)
	}
	e.log = e.log.WithField("component", "engine")
	return e, nil
}

func (e *Engine) orderLog(o *order.Order) *logrus.Entry {
	return e.log.WithFields(logrus.Fields{
		"order_id":   o.ID,
		"label":      o.Label,
		"instrument": o.Instrument.Symbol,
	})
}

// Open places a pending order and commits its margin.
func (e *Engine) Open(spec order.Spec) (string, error) {
	o, err := order.New(spec)
	if err != nil {
		return "", err
	}
	// fail now rather than at settlement if the order cannot be valued
	if _, err := e.valuer.Value(o, o.MarginSize(), o.Spread); err != nil {
		return "", fmt.Errorf("open %s: %w", spec.Instrument.Symbol, err)
	}

	o.ID = e.ids.New()
	e.acct.commit(o.MarginSize())
	e.pending = append(e.pending, o)

	e.orderLog(o).WithFields(logrus.Fields{
		"direction": o.Direction.String(),
		"entry":     o.Entry,
		"margin":    o.MarginSize(),
	}).Debug("order opened")
	return o.ID, nil
}

// SizeTradeForLabel returns the margin for the next trade, or 0 when the
// headroom left after the reserve is below the policy floor.
func (e *Engine) SizeTradeForLabel(label string) float64 {
	raw := e.TradeableMargin() / e.acct.EquitySplit
	size := e.policy.clamp(raw, e.acct.AvailableMargin, e.acct.TotalMargin)
	if size == 0 {
		e.log.WithFields(logrus.Fields{
			"label":     label,
			"available": e.acct.AvailableMargin,
		}).Debug("no headroom for trade")
	}
	return size
}

// ProcessPending discards pending orders whose label is not in
// validLabels, then fills those the ranges have crossed. Discards happen
// first, so an order can never be both discarded and filled in one call.
func (e *Engine) ProcessPending(r Ranges, validLabels []string) {
	kept := e.pending[:0]
	for _, o := range e.pending {
		if slices.Contains(validLabels, o.Label) {
			kept = append(kept, o)
			continue
		}
		e.acct.release(o.MarginSize(), 0)
		o.Discard()
		e.orderLog(o).Debug("stale order discarded")
	}
	clear(e.pending[len(kept):])
	e.pending = kept

	kept = e.pending[:0]
	for _, o := range e.pending {
		if !crossed(o, r) {
			kept = append(kept, o)
			continue
		}
		o.Fill()
		e.active = append(e.active, o)
		e.orderLog(o).Debug("order filled")
	}
	clear(e.pending[len(kept):])
	e.pending = kept
}

// CountByLabelPrefix counts pending and active orders belonging to a
// strategy: labels equal to prefix or starting with prefix + "_".
func (e *Engine) CountByLabelPrefix(prefix string) int {
	match := func(label string) bool {
		return label == prefix || strings.HasPrefix(label, prefix+"_")
	}
	n := 0
	for _, o := range e.pending {
		if match(o.Label) {
			n++
		}
	}
	for _, o := range e.active {
		if match(o.Label) {
			n++
		}
	}
	return n
}

// SettleActivePositions closes every active order whose target or stop is
// touched by q. The remaining margin is returned with the realized result,
// the spread fee is charged and the order moves to the closed ledger.
// Orders that cannot be valued stay active and their errors are returned.
func (e *Engine) SettleActivePositions(now time.Time, q Quote) error {
	var errs []error
	settled := false

	kept := e.active[:0]
	for _, o := range e.active {
		exit, ok := o.Evaluate(q.For(o.Direction))
		if !ok {
			kept = append(kept, o)
			continue
		}

		margin := o.MarginSize()
		pips := exit.Pips
		if pips < 0 {
			pips = -pips
		}
		value, err := e.valuer.Value(o, margin, pips)
		if err != nil {
			errs = append(errs, fmt.Errorf("settle %s: %w", o.ID, err))
			kept = append(kept, o)
			continue
		}
		fee, err := e.valuer.Value(o, margin, o.Spread)
		if err != nil {
			errs = append(errs, fmt.Errorf("settle %s fee: %w", o.ID, err))
			kept = append(kept, o)
			continue
		}

		realized := value
		if exit.Outcome == order.Win {
			e.acct.Wins++
			e.acct.Pips += pips
		} else {
			e.acct.Losses++
			e.acct.Pips -= pips
			realized = -value
		}
		e.acct.release(margin, realized)
		e.acct.charge(fee)
		e.acct.updateWatermarks()

		o.Close(now, exit.Outcome)
		e.closed = append(e.closed, o)
		e.forget(o.ID)
		settled = true

		e.orderLog(o).WithFields(logrus.Fields{
			"outcome": exit.Outcome,
			"pips":    exit.Pips,
			"pl":      realized,
			"fee":     fee,
		}).Debug("position settled")

		if err := e.journal.RecordTrade(journal.TradeRecord{
			TradeID:    o.ID,
			Label:      o.Label,
			Instrument: o.Instrument.Symbol,
			Direction:  o.Direction.String(),
			MarginSize: margin,
			EntryPrice: o.Entry,
			ExitPrice:  q.For(o.Direction),
			StopLoss:   o.StopLoss(),
			Pips:       exit.Pips,
			RealizedPL: realized,
			Fee:        fee,
			Outcome:    string(exit.Outcome),
			OpenTime:   o.OpenedAt,
			CloseTime:  now,
			Reason:     exit.Status.String(),
		}); err != nil {
			errs = append(errs, fmt.Errorf("journal trade %s: %w", o.ID, err))
		}
	}
	clear(e.active[len(kept):])
	e.active = kept

	if settled {
		if err := e.recordEquity(now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// forget drops a closed order from the adjustment registries.
func (e *Engine) forget(orderID string) {
	for _, reg := range e.partials {
		delete(reg, orderID)
	}
	delete(e.lossesCut, orderID)
}

func (e *Engine) recordEquity(at time.Time) error {
	if err := e.journal.RecordEquity(journal.EquitySnapshot{
		Time:            at,
		TotalMargin:     e.acct.TotalMargin,
		AvailableMargin: e.acct.AvailableMargin,
		UsedMargin:      e.acct.UsedMargin(),
		HighWater:       e.acct.HighWater,
		LowWater:        e.acct.LowWater,
	}); err != nil {
		return fmt.Errorf("journal equity: %w", err)
	}
	return nil
}

// Deposit adds funds to both total and available margin.
func (e *Engine) Deposit(amount float64) {
	e.acct.TotalMargin += amount
	e.acct.AvailableMargin += amount
	e.log.WithField("amount", amount).Debug("funds deposited")
}

// Order returns a copy of the pending, active or closed order with id.
func (e *Engine) Order(orderID string) (order.Order, error) {
	for _, set := range [][]*order.Order{e.pending, e.active, e.closed} {
		for _, o := range set {
			if o.ID == orderID {
				return *o, nil
			}
		}
	}
	return order.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
}
