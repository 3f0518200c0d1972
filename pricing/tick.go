package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrPriceNotFound = errors.New("price not found")

// TickSource supplies the latest quote for a named pair. Implementations
// may block on the network.
type TickSource interface {
	GetTick(ctx context.Context, instrument string) (Tick, error)
}

type Tick struct {
	Instrument string
	Time       time.Time
	Bid        float64
	Ask        float64
}

func (t Tick) Mid() float64 {
	if t.Bid == 0 && t.Ask == 0 {
		return 0
	}
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// Empty reports a quote with no prices, which some feeds return instead
// of an error.
func (t Tick) Empty() bool {
	return t.Bid == 0 && t.Ask == 0
}

// TickStore keeps the last tick seen per instrument. It is safe for
// concurrent use and doubles as a TickSource.
type TickStore struct {
	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]Tick)}
}

func (ts *TickStore) Set(t Tick) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.ticks[t.Instrument] = t
}

func (ts *TickStore) Get(instr string) (Tick, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.ticks[instr]
	if !ok {
		return Tick{}, fmt.Errorf("%w: %s", ErrPriceNotFound, instr)
	}
	return t, nil
}

func (ts *TickStore) GetTick(_ context.Context, instr string) (Tick, error) {
	return ts.Get(instr)
}
