package models

// PayoffPoint is one sample of a payoff curve: strategy P&L at a
// hypothetical underlying price.
type PayoffPoint struct {
	Price float64
	PnL   float64
}

// PayoffCurve is a finite sequence of payoff samples over a caller-chosen
// price range. Curves carry no hidden state: recomputing from the same
// strategy and market inputs always yields the same samples.
type PayoffCurve struct {
	Low    float64
	High   float64
	Points []PayoffPoint
}

// MaxProfit returns the highest sampled P&L.
func (c PayoffCurve) MaxProfit() float64 {
	best := 0.0
	for i, p := range c.Points {
		if i == 0 || p.PnL > best {
			best = p.PnL
		}
	}
	return best
}

// MaxLoss returns the lowest sampled P&L.
func (c PayoffCurve) MaxLoss() float64 {
	worst := 0.0
	for i, p := range c.Points {
		if i == 0 || p.PnL < worst {
			worst = p.PnL
		}
	}
	return worst
}

// Breakevens returns the sampled prices where the curve crosses zero,
// linearly interpolated between adjacent samples.
func (c PayoffCurve) Breakevens() []float64 {
	var out []float64
	push := func(x float64) {
		if n := len(out); n == 0 || out[n-1] != x {
			out = append(out, x)
		}
	}
	for i, p := range c.Points {
		if p.PnL == 0 {
			push(p.Price)
			continue
		}
		if i == 0 {
			continue
		}
		a := c.Points[i-1]
		if a.PnL != 0 && (a.PnL < 0) != (p.PnL < 0) {
			t := a.PnL / (a.PnL - p.PnL)
			push(a.Price + t*(p.Price-a.Price))
		}
	}
	return out
}
