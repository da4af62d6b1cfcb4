package pricing

import (
	"math"

	"optionwatch/internal/errors"
	"optionwatch/internal/models"
)

const (
	ivMaxIterations = 100
	ivTolerance     = 1e-10
)

// ImpliedVol solves for the annualized volatility that reproduces the
// observed option price. Newton-Raphson seeded with the
// Brenner-Subrahmanyam approximation, falling back to bisection on the
// maintained bracket whenever a Newton step leaves it or vega collapses.
func ImpliedVol(c models.Contract, m models.MarketSnapshot, observed float64) (float64, error) {
	if observed <= 0 {
		return 0, errors.NewPricingError("price", observed, "must be positive")
	}
	t := m.YearFraction(c.Expiry)
	if t <= 0 {
		return 0, errors.NewPricingError("expiry", t, "contract already expired")
	}

	// No-arbitrage bounds. A European deep ITM put trades below raw K-S
	// when rates are positive, so the floor must be the discounted one.
	spotPV := m.Spot * math.Exp(-m.DividendYield*t)
	strikePV := c.Strike * math.Exp(-m.RiskFreeRate*t)
	lower := c.Type.Sign() * (spotPV - strikePV)
	if lower < 0 {
		lower = 0
	}
	upper := spotPV
	if c.Type == models.Put {
		upper = strikePV
	}
	if observed <= lower {
		return 0, errors.NewPricingError("price", observed, "at or below discounted intrinsic value")
	}
	if observed >= upper {
		return 0, errors.NewPricingError("price", observed, "at or above the no-arbitrage bound")
	}

	probe := m
	price := func(v float64) (Quote, error) {
		probe.Vol = v
		return Price(c, probe)
	}

	lo, hi := ivTolerance, 4.0
	for i := 0; i < 8; i++ {
		q, err := price(hi)
		if err != nil {
			return 0, err
		}
		if q.Price >= observed {
			break
		}
		hi *= 2
	}

	v := math.Sqrt(2*math.Pi/t) * observed / m.Spot
	if v <= lo || v >= hi {
		v = 0.5 * (lo + hi)
	}

	for i := 0; i < ivMaxIterations; i++ {
		q, err := price(v)
		if err != nil {
			return 0, err
		}
		diff := q.Price - observed
		if math.Abs(diff) < ivTolerance {
			return v, nil
		}
		if diff > 0 {
			hi = v
		} else {
			lo = v
		}

		next := v - diff/q.Greeks.Vega
		if q.Greeks.Vega < 1e-12 || math.IsNaN(next) || next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		if next == v {
			break
		}
		v = next
	}
	return 0, errors.Wrapf(errors.ErrInvalidInput, "implied vol did not converge for price %.6f", observed)
}
