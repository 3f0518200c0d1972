package order

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/fxsettle/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entry = 2886.9

func nasSpec(dir Direction, style ExitStyle) Spec {
	s := Spec{
		Direction:  dir,
		Style:      style,
		Instrument: market.Instruments["NAS100_USD"],
		Entry:      entry,
		MarginSize: 1500,
		Spread:     0.3,
		OpenedAt:   time.Date(2021, 1, 4, 9, 0, 0, 0, time.UTC),
		Label:      "3_long",
	}
	if dir == Long {
		s.TakeProfit = entry + 48.3
		s.StopLoss = entry - 16.1
	} else {
		s.TakeProfit = entry - 48.3
		s.StopLoss = entry + 16.1
	}
	return s
}

func TestNew_DirectionalInvariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mut  func(*Spec)
	}{
		{"tp at entry", func(s *Spec) { s.TakeProfit = s.Entry }},
		{"sl at entry", func(s *Spec) { s.StopLoss = s.Entry }},
		{"tp and sl swapped", func(s *Spec) { s.TakeProfit, s.StopLoss = s.StopLoss, s.TakeProfit }},
		{"zero margin", func(s *Spec) { s.MarginSize = 0 }},
		{"negative spread", func(s *Spec) { s.Spread = -0.1 }},
		{"zero spread", func(s *Spec) { s.Spread = 0 }},
		{"negative entry", func(s *Spec) { s.Entry = -1 }},
		{"empty label", func(s *Spec) { s.Label = " " }},
		{"bad direction", func(s *Spec) { s.Direction = 0 }},
		{"no instrument", func(s *Spec) { s.Instrument = market.Instrument{} }},
		{"nan margin", func(s *Spec) { s.MarginSize = math.NaN() }},
		{"inf margin", func(s *Spec) { s.MarginSize = math.Inf(1) }},
		{"nan entry", func(s *Spec) { s.Entry = math.NaN() }},
		{"inf entry", func(s *Spec) { s.Entry = math.Inf(1) }},
		{"nan take profit", func(s *Spec) { s.TakeProfit = math.NaN() }},
		{"inf stop loss", func(s *Spec) { s.StopLoss = math.Inf(-1) }},
		{"nan spread", func(s *Spec) { s.Spread = math.NaN() }},
		{"inf spread", func(s *Spec) { s.Spread = math.Inf(1) }},
	}

	for _, dir := range []Direction{Long, Short} {
		for _, style := range []ExitStyle{FixedTarget, TrailingStop} {
			for _, tt := range tests {
				tt, dir, style := tt, dir, style
				t.Run(dir.String()+"/"+style.String()+"/"+tt.name, func(t *testing.T) {
					t.Parallel()
					spec := nasSpec(dir, style)
					tt.mut(&spec)
					o, err := New(spec)
					assert.Nil(t, o)
					assert.True(t, errors.Is(err, ErrInvalidOrderParameters), "got %v", err)
				})
			}
		}
	}
}

func TestNew_Valid(t *testing.T) {
	t.Parallel()

	o, err := New(nasSpec(Long, TrailingStop))
	require.NoError(t, err)
	assert.Equal(t, Pending, o.State)
	assert.Equal(t, 1500.0, o.MarginSize())
	assert.Equal(t, entry-16.1, o.StopLoss())
	assert.Equal(t, 48.3, o.ProfitTargetDistance())
	assert.Equal(t, 16.1, o.LossTargetDistance())
}

func TestNew_RoundsTargetAndStop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir    Direction
		tp, sl float64
	}{
		{Long, 2935.2, 2870.8},
		{Short, 2838.6, 2903},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.dir.String(), func(t *testing.T) {
			t.Parallel()
			o, err := New(nasSpec(tt.dir, FixedTarget))
			require.NoError(t, err)
			assert.Equal(t, tt.tp, o.TakeProfit)
			assert.Equal(t, tt.sl, o.StopLoss())
			assert.Equal(t, TargetHit, o.StatusAt(tt.tp))
			assert.Equal(t, StopHit, o.StatusAt(tt.sl))
		})
	}
}

func TestStringFallbacks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "state(9)", State(9).String())
	assert.Equal(t, "stop_hit", StopHit.String())
	assert.Equal(t, "status(-1)", Status(-1).String())
}

func TestFill_TruncatesLabel(t *testing.T) {
	t.Parallel()

	o, err := New(nasSpec(Long, FixedTarget))
	require.NoError(t, err)
	assert.Equal(t, "3", o.StrategyID())

	o.Fill()
	assert.Equal(t, Active, o.State)
	assert.Equal(t, "3", o.Label)
}

func TestStatusAt(t *testing.T) {
	t.Parallel()

	long, err := New(nasSpec(Long, FixedTarget))
	require.NoError(t, err)
	short, err := New(nasSpec(Short, FixedTarget))
	require.NoError(t, err)

	tests := []struct {
		name  string
		o     *Order
		price float64
		want  Status
	}{
		{"long target", long, entry + 48.3, TargetHit},
		{"long beyond target", long, entry + 60, TargetHit},
		{"long stop", long, entry - 16.1, StopHit},
		{"long inside", long, entry + 10, None},
		{"short target", short, entry - 48.3, TargetHit},
		{"short stop", short, entry + 20, StopHit},
		{"short inside", short, entry - 10, None},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.o.StatusAt(tt.price))
		})
	}
}

func TestEvaluate_FixedStopIsLoss(t *testing.T) {
	t.Parallel()

	o, err := New(nasSpec(Short, FixedTarget))
	require.NoError(t, err)

	exit, ok := o.Evaluate(entry + 16.1)
	require.True(t, ok)
	assert.Equal(t, StopHit, exit.Status)
	assert.Equal(t, Loss, exit.Outcome)
	assert.InDelta(t, -16.1, exit.Pips, 1e-9)

	_, ok = o.Evaluate(entry)
	assert.False(t, ok)
}

// A trailing stop that has been ratcheted into profit and is then touched
// counts as a win for the locked-in distance.
func TestEvaluate_TrailingStopInProfitIsWin(t *testing.T) {
	t.Parallel()

	for _, dir := range []Direction{Long, Short} {
		dir := dir
		t.Run(dir.String(), func(t *testing.T) {
			t.Parallel()
			o, err := New(nasSpec(dir, TrailingStop))
			require.NoError(t, err)

			price := entry + dir.Sign()*32.2
			require.NoError(t, o.MoveStopToFractionOfTarget(price, 0.33))

			exit, ok := o.Evaluate(o.StopLoss())
			require.True(t, ok)
			assert.Equal(t, StopHit, exit.Status)
			assert.Equal(t, Win, exit.Outcome)
			assert.InDelta(t, 15.939, exit.Pips, 1e-9)
		})
	}
}

func TestMoveStopToFractionOfTarget_Ratchet(t *testing.T) {
	t.Parallel()

	o, err := New(nasSpec(Long, TrailingStop))
	require.NoError(t, err)

	require.True(t, o.TargetReached(entry+16.1, 0.33))
	require.NoError(t, o.MoveStopToFractionOfTarget(entry+16.1, 0.01))
	assert.InDelta(t, 2887.3830000000003, o.StopLoss(), 1e-9)

	require.True(t, o.TargetReached(entry+32.2, 0.66))
	require.NoError(t, o.MoveStopToFractionOfTarget(entry+32.2, 0.33))
	assert.InDelta(t, 2902.839, o.StopLoss(), 1e-9)

	// same level again is accepted and changes nothing
	require.NoError(t, o.MoveStopToFractionOfTarget(entry+32.2, 0.33))
	assert.InDelta(t, 2902.839, o.StopLoss(), 1e-9)
}

func TestMoveStopToFractionOfTarget_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		style    ExitStyle
		dir      Direction
		current  float64
		fraction float64
	}{
		{"fixed order", FixedTarget, Long, entry + 30, 0.1},
		{"zero fraction", TrailingStop, Long, entry + 30, 0},
		{"at take profit", TrailingStop, Long, entry + 60, 1},
		{"beyond current long", TrailingStop, Long, entry + 10, 0.5},
		{"beyond current short", TrailingStop, Short, entry - 10, 0.5},
		{"at current", TrailingStop, Long, entry + 24.15, 0.5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o, err := New(nasSpec(tt.dir, tt.style))
			require.NoError(t, err)
			before := o.StopLoss()

			err = o.MoveStopToFractionOfTarget(tt.current, tt.fraction)
			assert.True(t, errors.Is(err, ErrInvalidStopAdjustment), "got %v", err)
			assert.Equal(t, before, o.StopLoss())
		})
	}
}

func TestMoveStopToFractionOfTarget_NeverLoosens(t *testing.T) {
	t.Parallel()

	o, err := New(nasSpec(Short, TrailingStop))
	require.NoError(t, err)

	require.NoError(t, o.MoveStopToFractionOfTarget(entry-40, 0.5))
	tight := o.StopLoss()

	err = o.MoveStopToFractionOfTarget(entry-40, 0.1)
	assert.True(t, errors.Is(err, ErrInvalidStopAdjustment))
	assert.Equal(t, tight, o.StopLoss())
}

func TestStopReached(t *testing.T) {
	t.Parallel()

	long, err := New(nasSpec(Long, FixedTarget))
	require.NoError(t, err)
	assert.True(t, long.StopReached(entry-8.05, 0.5))
	assert.False(t, long.StopReached(entry-8, 0.5))

	short, err := New(nasSpec(Short, FixedTarget))
	require.NoError(t, err)
	assert.True(t, short.StopReached(entry+9, 0.5))
	assert.False(t, short.StopReached(entry+8, 0.5))
}

func TestReduceMargin(t *testing.T) {
	t.Parallel()

	o, err := New(nasSpec(Long, FixedTarget))
	require.NoError(t, err)

	assert.Equal(t, 375.0, o.ReduceMargin(0.25))
	assert.Equal(t, 1125.0, o.MarginSize())
	assert.Equal(t, 281.25, o.ReduceMargin(0.25))
	assert.Equal(t, 843.75, o.MarginSize())
}

func TestParse(t *testing.T) {
	t.Parallel()

	d, err := ParseDirection("SHORT")
	require.NoError(t, err)
	assert.Equal(t, Short, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)

	s, err := ParseExitStyle("dynamic")
	require.NoError(t, err)
	assert.Equal(t, TrailingStop, s)
	_, err = ParseExitStyle("bracket")
	assert.Error(t, err)
}
