package sim

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rustyeddy/fxsettle/order"
)

func (e *Engine) Account() Account { return *e.acct }

func (e *Engine) TotalMargin() float64 { return e.acct.TotalMargin }

func (e *Engine) AvailableMargin() float64 { return e.acct.AvailableMargin }

func (e *Engine) UsedMargin() float64 { return e.acct.UsedMargin() }

func (e *Engine) TradeableMargin() float64 {
	return e.acct.TotalMargin * e.policy.TradeableMarginCap
}

func (e *Engine) HasMarginAvailable() bool { return e.acct.AvailableMargin > 0 }

func (e *Engine) HasActiveTrades() bool { return len(e.active) > 0 }

// TradeCount is the number of filled trades, open or closed.
func (e *Engine) TradeCount() int { return len(e.active) + len(e.closed) }

// WinRate is the percentage of filled trades closed as wins.
func (e *Engine) WinRate() float64 {
	n := e.TradeCount()
	if n == 0 {
		return 0
	}
	return float64(e.acct.Wins) / float64(n) * 100
}

func snapshot(set []*order.Order) []order.Order {
	out := make([]order.Order, len(set))
	for i, o := range set {
		out[i] = *o
	}
	return out
}

func (e *Engine) Pending() []order.Order { return snapshot(e.pending) }

func (e *Engine) Active() []order.Order { return snapshot(e.active) }

func (e *Engine) Closed() []order.Order { return snapshot(e.closed) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PartiallyClosed lists the open orders already closed down at stage.
func (e *Engine) PartiallyClosed(stage int) ([]string, error) {
	reg, ok := e.partials[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, stage)
	}
	return sortedKeys(reg), nil
}

// LossesCut lists the open orders that have had losses cut.
func (e *Engine) LossesCut() []string { return sortedKeys(e.lossesCut) }

type LabelResult struct {
	Wins   int
	Losses int
}

// ResultsByLabel tallies closed trades per strategy label. With no labels
// given every label seen is reported.
func (e *Engine) ResultsByLabel(labels ...string) map[string]LabelResult {
	out := make(map[string]LabelResult, len(labels))
	for _, l := range labels {
		out[l] = LabelResult{}
	}
	for _, o := range e.closed {
		r, ok := out[o.Label]
		if !ok && len(labels) > 0 {
			continue
		}
		if o.Outcome == order.Win {
			r.Wins++
		} else {
			r.Losses++
		}
		out[o.Label] = r
	}
	return out
}

// Summary is a human readable report of the run so far.
func (e *Engine) Summary() string {
	a := e.acct
	var b strings.Builder
	fmt.Fprintf(&b, "trades executed = %d\n", e.TradeCount())
	fmt.Fprintf(&b, "win rate = %s%%\n", money(e.WinRate()))
	fmt.Fprintf(&b, "pips accumulated = %s\n", money(a.Pips))
	fmt.Fprintf(&b, "final balance = %s %s\n", money(a.TotalMargin), a.Currency)
	fmt.Fprintf(&b, "highest balance = %s %s\n", money(a.HighWater), a.Currency)
	fmt.Fprintf(&b, "lowest balance = %s %s", money(a.LowWater), a.Currency)
	return b.String()
}

var printer = message.NewPrinter(language.English)

// money renders x to 2 decimal places with thousands separators.
func money(x float64) string {
	return printer.Sprintf("%.2f", x)
}
