// sim/triggers.go
package sim

import "github.com/rustyeddy/fxsettle/order"

// Quote is one reference price per side: longs are checked against Long,
// shorts against Short.
type Quote struct {
	Long  float64
	Short float64
}

func (q Quote) For(d order.Direction) float64 {
	if d == order.Long {
		return q.Long
	}
	return q.Short
}

// Ranges are the prices a pending order is checked against for a fill.
// An empty side never fills.
type Ranges struct {
	Long  []float64
	Short []float64
}

// crossed reports whether the relevant extreme of r has reached the
// order's entry: the highest long price for longs, the lowest short price
// for shorts.
func crossed(o *order.Order, r Ranges) bool {
	if o.Direction == order.Long {
		if len(r.Long) == 0 {
			return false
		}
		hi := r.Long[0]
		for _, p := range r.Long[1:] {
			hi = max(hi, p)
		}
		return hi >= o.Entry
	}
	if len(r.Short) == 0 {
		return false
	}
	lo := r.Short[0]
	for _, p := range r.Short[1:] {
		lo = min(lo, p)
	}
	return lo <= o.Entry
}
