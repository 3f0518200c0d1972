package sim

import (
	"errors"
	"fmt"
)

type StopMove struct {
	Check float64 `mapstructure:"check" yaml:"check" json:"check"`
	Move  float64 `mapstructure:"move" yaml:"move" json:"move"`
}

type PartialClose struct {
	Check float64 `mapstructure:"check" yaml:"check" json:"check"`
	Close float64 `mapstructure:"close" yaml:"close" json:"close"`
}

type LossCut struct {
	Check float64 `mapstructure:"check" yaml:"check" json:"check"`
	Close float64 `mapstructure:"close" yaml:"close" json:"close"`
}

// Schedule is the per-price adjustment plan for active trades. Partial
// close i runs as stage i+1.
type Schedule struct {
	StopMoves     []StopMove     `mapstructure:"stop_moves" yaml:"stop_moves" json:"stop_moves"`
	PartialCloses []PartialClose `mapstructure:"partial_closes" yaml:"partial_closes" json:"partial_closes"`
	LossCut       *LossCut       `mapstructure:"loss_cut" yaml:"loss_cut,omitempty" json:"loss_cut,omitempty"`
}

// DefaultSchedule ratchets at 35% and 65% of target and banks half then
// 70% of what is left at the same checkpoints.
func DefaultSchedule() Schedule {
	return Schedule{
		StopMoves: []StopMove{
			{Check: 0.35, Move: 0.01},
			{Check: 0.65, Move: 0.35},
		},
		PartialCloses: []PartialClose{
			{Check: 0.35, Close: 0.5},
			{Check: 0.65, Close: 0.7},
		},
	}
}

// Validate requires checks to ascend within stop moves and within
// partial closes.
func (s Schedule) Validate() error {
	prev := 0.0
	for i, m := range s.StopMoves {
		if m.Check <= 0 || m.Move <= 0 {
			return fmt.Errorf("stop move %d: check and move must be greater than 0", i+1)
		}
		if m.Move >= 1 {
			return fmt.Errorf("stop move %d: move must be below 1 to stay short of take profit", i+1)
		}
		if m.Check <= prev {
			return fmt.Errorf("stop move %d: checks must ascend", i+1)
		}
		prev = m.Check
	}

	if len(s.PartialCloses) > SecondStage {
		return fmt.Errorf("at most %d partial closes, got %d", SecondStage, len(s.PartialCloses))
	}
	prev = 0
	for i, p := range s.PartialCloses {
		if p.Check <= 0 {
			return fmt.Errorf("partial close %d: check must be greater than 0", i+1)
		}
		if p.Close <= 0 || p.Close >= 1 {
			return fmt.Errorf("partial close %d: close must be in (0, 1)", i+1)
		}
		if p.Check <= prev {
			return fmt.Errorf("partial close %d: checks must ascend", i+1)
		}
		prev = p.Check
	}

	if c := s.LossCut; c != nil {
		if c.Check <= 0 || c.Close <= 0 || c.Close >= 1 {
			return errors.New("loss cut: check must be greater than 0 and close in (0, 1)")
		}
	}
	return nil
}

// Apply runs stop moves, then partial closes, then the loss cut against
// one quote.
func (s Schedule) Apply(e *Engine, q Quote) error {
	for _, m := range s.StopMoves {
		if err := e.AdjustTrailingStops(m.Check, m.Move, q); err != nil {
			return err
		}
	}
	for i, p := range s.PartialCloses {
		if err := e.PartiallyClose(p.Check, p.Close, i+1, q); err != nil {
			return err
		}
	}
	if s.LossCut != nil {
		return e.CutLosses(s.LossCut.Check, s.LossCut.Close, q)
	}
	return nil
}
