package pricing

import (
	"math"

	"optionwatch/internal/models"
)

// binomialSteps is the fixed tree depth. At 200 steps the CRR price
// converges to within roughly 0.01% of the continuous limit for typical
// equity inputs.
const binomialSteps = 200

// Finite-difference bump sizes for American Greeks. The tree has no closed
// forms, so Greeks use central differences; truncation error is O(h²),
// about 1e-4 relative at these steps.
const (
	bumpSpotFrac = 0.005  // ±0.5% of spot for delta and gamma
	bumpVol      = 0.005  // ±0.5 vol points for vega
	bumpRate     = 0.0005 // ±5bp for rho
)

// binomial prices an American contract on a Cox-Ross-Rubinstein tree with
// early exercise at every node.
func binomial(c models.Contract, m models.MarketSnapshot, t float64) Quote {
	price := crr(c, m, t)

	up, dn := m, m
	up.Spot = m.Spot * (1 + bumpSpotFrac)
	dn.Spot = m.Spot * (1 - bumpSpotFrac)
	pUp, pDn := crr(c, up, t), crr(c, dn, t)
	h := m.Spot * bumpSpotFrac
	delta := (pUp - pDn) / (2 * h)
	gamma := (pUp - 2*price + pDn) / (h * h)

	vUp, vDn := m, m
	vUp.Vol = m.Vol + bumpVol
	vDn.Vol = m.Vol - bumpVol
	vega := (crr(c, vUp, t) - crr(c, vDn, t)) / (2 * bumpVol)

	// One-day decay; at expiry the bumped value is intrinsic.
	tNext := t - 1.0/daysPerYear
	var pNext float64
	if tNext <= 0 {
		pNext = intrinsic(c, m.Spot)
	} else {
		pNext = crr(c, m, tNext)
	}
	theta := pNext - price

	rUp, rDn := m, m
	rUp.RiskFreeRate = m.RiskFreeRate + bumpRate
	rDn.RiskFreeRate = m.RiskFreeRate - bumpRate
	rho := (crr(c, rUp, t) - crr(c, rDn, t)) / (2 * bumpRate)

	return Quote{
		Price: price,
		Greeks: models.GreeksVector{
			Delta: delta,
			Gamma: gamma,
			Theta: theta,
			Vega:  vega,
			Rho:   rho,
		},
	}
}

// crr runs the backward induction and returns the tree price.
func crr(c models.Contract, m models.MarketSnapshot, t float64) float64 {
	dt := t / binomialSteps
	u := math.Exp(m.Vol * math.Sqrt(dt))
	d := 1 / u
	disc := math.Exp(-m.RiskFreeRate * dt)
	p := (math.Exp((m.RiskFreeRate-m.DividendYield)*dt) - d) / (u - d)
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}

	// Terminal payoffs.
	values := make([]float64, binomialSteps+1)
	for i := range values {
		spot := m.Spot * math.Pow(u, float64(binomialSteps-i)) * math.Pow(d, float64(i))
		values[i] = intrinsic(c, spot)
	}

	for step := binomialSteps - 1; step >= 0; step-- {
		for i := 0; i <= step; i++ {
			cont := disc * (p*values[i] + (1-p)*values[i+1])
			spot := m.Spot * math.Pow(u, float64(step-i)) * math.Pow(d, float64(i))
			if ex := intrinsic(c, spot); ex > cont {
				cont = ex
			}
			values[i] = cont
		}
	}
	return values[0]
}
