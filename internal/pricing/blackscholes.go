package pricing

import (
	"math"

	"optionwatch/internal/models"
)

// daysPerYear is the calendar day-count basis used across the engine.
const daysPerYear = 365

// blackScholes prices a European contract with the Black-Scholes-Merton
// closed forms, including a flat continuous dividend yield. Gamma and vega
// come from the model's second derivatives, not finite differences.
func blackScholes(c models.Contract, m models.MarketSnapshot, t float64) Quote {
	s, k := m.Spot, c.Strike
	r, q, sigma := m.RiskFreeRate, m.DividendYield, m.Vol

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r-q+sigma*sigma/2)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	dfR := math.Exp(-r * t) // discount on the strike
	dfQ := math.Exp(-q * t) // carry adjustment on the spot
	nd1 := stdNormal.Pdf(d1)

	var price, delta, theta, rho float64
	if c.Type == models.Call {
		price = s*dfQ*stdNormal.Cdf(d1) - k*dfR*stdNormal.Cdf(d2)
		delta = dfQ * stdNormal.Cdf(d1)
		theta = -s*dfQ*nd1*sigma/(2*sqrtT) - r*k*dfR*stdNormal.Cdf(d2) + q*s*dfQ*stdNormal.Cdf(d1)
		rho = k * t * dfR * stdNormal.Cdf(d2)
	} else {
		price = k*dfR*stdNormal.Cdf(-d2) - s*dfQ*stdNormal.Cdf(-d1)
		delta = dfQ * (stdNormal.Cdf(d1) - 1)
		theta = -s*dfQ*nd1*sigma/(2*sqrtT) + r*k*dfR*stdNormal.Cdf(-d2) - q*s*dfQ*stdNormal.Cdf(-d1)
		rho = -k * t * dfR * stdNormal.Cdf(-d2)
	}

	return Quote{
		Price: price,
		Greeks: models.GreeksVector{
			Delta: delta,
			Gamma: dfQ * nd1 / (s * sigma * sqrtT),
			Theta: theta / daysPerYear, // reported per calendar day
			Vega:  s * dfQ * nd1 * sqrtT,
			Rho:   rho,
		},
	}
}
