package models

import (
	"strings"

	"optionwatch/internal/errors"
)

// Leg is one option contract position within a strategy: a contract plus a
// signed quantity (positive long, negative short) and the entry price per
// underlying unit. Quantity is mutated only through explicit ledger
// adjustments, never by the analytics code.
type Leg struct {
	Contract   Contract
	Quantity   int
	EntryPrice float64
}

// CostBasis returns the signed premium paid (positive for debits).
func (l Leg) CostBasis() float64 {
	return l.EntryPrice * l.Contract.Multiplier * float64(l.Quantity)
}

// StrategyType tags a strategy with its template shape. The tag is
// descriptive; payoff and Greeks logic is uniform across all shapes.
type StrategyType string

const (
	StrategyCustom       StrategyType = "custom"
	StrategySingle       StrategyType = "single"
	StrategyCoveredCall  StrategyType = "covered_call"
	StrategyVertical     StrategyType = "vertical_spread"
	StrategyStraddle     StrategyType = "straddle"
	StrategyStrangle     StrategyType = "strangle"
	StrategyIronCondor   StrategyType = "iron_condor"
	StrategyCalendarRoll StrategyType = "calendar_spread"
)

// ParseStrategyType normalizes a user-supplied strategy tag. Empty input
// means custom; unknown tags are rejected rather than silently demoted.
func ParseStrategyType(s string) (StrategyType, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "", "custom":
		return StrategyCustom, nil
	case "single":
		return StrategySingle, nil
	case "covered_call", "coveredcall":
		return StrategyCoveredCall, nil
	case "vertical", "vertical_spread":
		return StrategyVertical, nil
	case "straddle":
		return StrategyStraddle, nil
	case "strangle":
		return StrategyStrangle, nil
	case "iron_condor", "ironcondor":
		return StrategyIronCondor, nil
	case "calendar", "calendar_spread":
		return StrategyCalendarRoll, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidInput, "unknown strategy type %q", s)
}

// Strategy is an ordered, non-empty collection of legs sharing one
// underlying. Construction and mutation go through the position ledger;
// everything else receives read-only copies.
type Strategy struct {
	ID   string
	Type StrategyType
	Legs []Leg
}

// Underlying returns the shared underlying symbol, or "" for an empty
// strategy.
func (s Strategy) Underlying() string {
	if len(s.Legs) == 0 {
		return ""
	}
	return s.Legs[0].Contract.Underlying
}

// Clone returns a deep copy that shares no leg storage with the receiver.
func (s Strategy) Clone() Strategy {
	out := s
	out.Legs = make([]Leg, len(s.Legs))
	copy(out.Legs, s.Legs)
	return out
}

// ValidateShape checks the legs against the template the Type tag claims.
// Custom strategies accept any non-empty leg set. Only the shape is
// checked; the ledger enforces underlying consistency separately.
func (s Strategy) ValidateShape() error {
	if len(s.Legs) == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "strategy %s has no legs", s.ID)
	}

	fail := func(msg string) error {
		return errors.Wrapf(errors.ErrInvalidInput, "strategy %s is not a valid %s: %s", s.ID, s.Type, msg)
	}

	switch s.Type {
	case StrategyCustom, "":
		return nil

	case StrategySingle:
		if len(s.Legs) != 1 {
			return fail("expected exactly one leg")
		}

	case StrategyCoveredCall:
		if len(s.Legs) != 1 {
			return fail("expected one short call (the stock side sits outside the book)")
		}
		l := s.Legs[0]
		if l.Contract.Type != Call || l.Quantity >= 0 {
			return fail("expected a short call")
		}

	case StrategyVertical:
		if len(s.Legs) != 2 {
			return fail("expected two legs")
		}
		a, b := s.Legs[0], s.Legs[1]
		switch {
		case a.Contract.Type != b.Contract.Type:
			return fail("legs must share an option type")
		case !a.Contract.Expiry.Equal(b.Contract.Expiry):
			return fail("legs must share an expiry")
		case a.Contract.Strike == b.Contract.Strike:
			return fail("legs must have different strikes")
		case sameSign(a.Quantity, b.Quantity):
			return fail("one leg must be long and one short")
		}

	case StrategyStraddle:
		if len(s.Legs) != 2 {
			return fail("expected two legs")
		}
		a, b := s.Legs[0], s.Legs[1]
		switch {
		case a.Contract.Type == b.Contract.Type:
			return fail("expected one call and one put")
		case !a.Contract.Expiry.Equal(b.Contract.Expiry):
			return fail("legs must share an expiry")
		case a.Contract.Strike != b.Contract.Strike:
			return fail("legs must share a strike")
		case !sameSign(a.Quantity, b.Quantity):
			return fail("both legs must be on the same side")
		}

	case StrategyStrangle:
		if len(s.Legs) != 2 {
			return fail("expected two legs")
		}
		a, b := s.Legs[0], s.Legs[1]
		switch {
		case a.Contract.Type == b.Contract.Type:
			return fail("expected one call and one put")
		case !a.Contract.Expiry.Equal(b.Contract.Expiry):
			return fail("legs must share an expiry")
		case a.Contract.Strike == b.Contract.Strike:
			return fail("legs must have different strikes")
		case !sameSign(a.Quantity, b.Quantity):
			return fail("both legs must be on the same side")
		}

	case StrategyIronCondor:
		if len(s.Legs) != 4 {
			return fail("expected four legs")
		}
		var calls, puts []Leg
		for _, l := range s.Legs {
			if !l.Contract.Expiry.Equal(s.Legs[0].Contract.Expiry) {
				return fail("legs must share an expiry")
			}
			if l.Contract.Type == Call {
				calls = append(calls, l)
			} else {
				puts = append(puts, l)
			}
		}
		if len(calls) != 2 || len(puts) != 2 {
			return fail("expected two calls and two puts")
		}
		for _, pair := range [][]Leg{calls, puts} {
			if pair[0].Contract.Strike == pair[1].Contract.Strike {
				return fail("each wing needs two strikes")
			}
			if sameSign(pair[0].Quantity, pair[1].Quantity) {
				return fail("each wing needs a long and a short leg")
			}
		}

	case StrategyCalendarRoll:
		if len(s.Legs) != 2 {
			return fail("expected two legs")
		}
		a, b := s.Legs[0], s.Legs[1]
		switch {
		case a.Contract.Type != b.Contract.Type:
			return fail("legs must share an option type")
		case a.Contract.Strike != b.Contract.Strike:
			return fail("legs must share a strike")
		case a.Contract.Expiry.Equal(b.Contract.Expiry):
			return fail("legs must have different expiries")
		case sameSign(a.Quantity, b.Quantity):
			return fail("one leg must be long and one short")
		}

	default:
		return errors.Wrapf(errors.ErrInvalidInput, "unknown strategy type %q", s.Type)
	}
	return nil
}

func sameSign(a, b int) bool {
	return (a > 0) == (b > 0)
}
