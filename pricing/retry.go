package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/fxsettle/internal/logger"
)

var ErrExchangeRateUnavailable = errors.New("exchange rate unavailable")

const (
	DefaultAttempts = 5
	DefaultBackoff  = time.Second
	DefaultMaxWait  = 30 * time.Second
)

// Retrying wraps a TickSource with a bounded retry loop. Successful quotes
// are cached so callers can fall back to the last known value once the
// source is exhausted.
type Retrying struct {
	Source   TickSource
	Attempts int
	Backoff  time.Duration
	MaxWait  time.Duration
	Log      *logrus.Entry

	store *TickStore
	wait  func(ctx context.Context, d time.Duration) error
}

func NewRetrying(src TickSource, log *logrus.Entry) *Retrying {
	if log == nil {
		log = logger.NopEntry()
	}
	return &Retrying{
		Source:   src,
		Attempts: DefaultAttempts,
		Backoff:  DefaultBackoff,
		MaxWait:  DefaultMaxWait,
		Log:      log,
		store:    NewTickStore(),
		wait:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// GetTick asks the wrapped source up to Attempts times. Errors and empty
// quotes both count as failures. The wait doubles after each failure and
// never exceeds MaxWait.
func (r *Retrying) GetTick(ctx context.Context, instrument string) (Tick, error) {
	var lastErr error
	backoff := r.Backoff
	for i := 0; i < r.Attempts; i++ {
		tick, err := r.Source.GetTick(ctx, instrument)
		if err == nil && !tick.Empty() {
			if tick.Instrument == "" {
				tick.Instrument = instrument
			}
			r.store.Set(tick)
			return tick, nil
		}
		if err == nil {
			err = fmt.Errorf("empty quote for %s", instrument)
		}
		lastErr = err

		if i == r.Attempts-1 {
			break
		}
		wait := backoff
		if r.MaxWait > 0 && wait > r.MaxWait {
			wait = r.MaxWait
		}
		r.Log.WithError(err).WithFields(logrus.Fields{
			"instrument": instrument,
			"attempt":    i + 1,
			"wait":       wait,
		}).Warn("price lookup failed, retrying")
		if err := r.wait(ctx, wait); err != nil {
			return Tick{}, err
		}
		backoff *= 2
	}
	return Tick{}, fmt.Errorf("%w: %s after %d attempts: %v", ErrExchangeRateUnavailable, instrument, r.Attempts, lastErr)
}

// LastKnown returns the most recent successful quote for instrument.
func (r *Retrying) LastKnown(instrument string) (Tick, bool) {
	t, err := r.store.Get(instrument)
	return t, err == nil
}
