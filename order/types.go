package order

import (
	"fmt"
	"strings"
)

// Direction doubles as a price sign: profit for a long grows with price,
// for a short it shrinks.
type Direction int

const (
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) Sign() float64 { return float64(d) }

func (d Direction) Valid() bool { return d == Long || d == Short }

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

type ExitStyle int

const (
	FixedTarget ExitStyle = iota
	TrailingStop
)

func (s ExitStyle) String() string {
	switch s {
	case FixedTarget:
		return "fixed"
	case TrailingStop:
		return "trailing"
	}
	return fmt.Sprintf("exit_style(%d)", int(s))
}

func ParseExitStyle(s string) (ExitStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "":
		return FixedTarget, nil
	case "trailing", "dynamic":
		return TrailingStop, nil
	}
	return 0, fmt.Errorf("unknown exit style %q", s)
}

type State int

const (
	Pending State = iota
	Active
	Closed
	Discarded
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Closed:
		return "closed"
	case Discarded:
		return "discarded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
)

type Status int

const (
	None Status = iota
	TargetHit
	StopHit
)

func (s Status) String() string {
	switch s {
	case None:
		return "none"
	case TargetHit:
		return "target_hit"
	case StopHit:
		return "stop_hit"
	}
	return fmt.Sprintf("status(%d)", int(s))
}
