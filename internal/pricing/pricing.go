// Package pricing implements closed-form Black-Scholes-Merton valuation of
// single option contracts with analytic Greeks, a binomial-tree fallback for
// American exercise, an implied-volatility solver, and pluggable volatility
// sources.
package pricing

import (
	gaussian "github.com/chobie/go-gaussian"

	"optionwatch/internal/errors"
	"optionwatch/internal/models"
)

var stdNormal = gaussian.NewGaussian(0, 1)

// Quote is the theoretical value of one contract per underlying unit,
// together with its per-contract Greeks. Position sign and multiplier are
// applied downstream by the aggregator, never here.
type Quote struct {
	Price  float64
	Greeks models.GreeksVector
}

// Price values a single contract under the supplied market snapshot.
//
// At or past expiry the price is intrinsic value, delta is ±1 in the money
// and 0 otherwise, and all remaining Greeks are zero. Non-positive spot,
// strike or volatility is rejected with ErrInvalidInput; unknown option
// types and exercise styles are rejected with ErrUnsupportedContract. No
// input is ever silently clamped.
func Price(c models.Contract, m models.MarketSnapshot) (Quote, error) {
	if err := validate(c, m); err != nil {
		return Quote{}, err
	}

	t := m.YearFraction(c.Expiry)
	if t <= 0 {
		return expiryQuote(c, m), nil
	}

	switch c.Style {
	case models.European, "":
		return blackScholes(c, m, t), nil
	case models.American:
		return binomial(c, m, t), nil
	default:
		return Quote{}, errors.Wrapf(errors.ErrUnsupportedContract, "exercise style %q", c.Style)
	}
}

func validate(c models.Contract, m models.MarketSnapshot) error {
	if !c.Type.Valid() {
		return errors.Wrapf(errors.ErrUnsupportedContract, "option type %q", c.Type)
	}
	if m.Spot <= 0 {
		return errors.NewPricingError("spot", m.Spot, "must be positive")
	}
	if c.Strike <= 0 {
		return errors.NewPricingError("strike", c.Strike, "must be positive")
	}
	if m.Vol <= 0 {
		return errors.NewPricingError("volatility", m.Vol, "must be positive")
	}
	if c.Multiplier <= 0 {
		return errors.NewPricingError("multiplier", c.Multiplier, "must be positive")
	}
	return nil
}

// expiryQuote prices an expired contract at intrinsic value.
func expiryQuote(c models.Contract, m models.MarketSnapshot) Quote {
	q := Quote{Price: intrinsic(c, m.Spot)}
	if q.Price > 0 {
		q.Greeks.Delta = c.Type.Sign()
	}
	return q
}

func intrinsic(c models.Contract, spot float64) float64 {
	v := c.Type.Sign() * (spot - c.Strike)
	if v < 0 {
		return 0
	}
	return v
}
