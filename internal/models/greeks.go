package models

// GreeksVector holds the first and second order sensitivities of an option
// price. Units: delta per 1.00 move in spot, gamma per 1.00² move, theta per
// calendar day, vega per 1.00 of volatility, rho per 1.00 of rate.
type GreeksVector struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// Scale returns the vector multiplied by a position factor
// (signed quantity × multiplier).
func (g GreeksVector) Scale(f float64) GreeksVector {
	return GreeksVector{
		Delta: g.Delta * f,
		Gamma: g.Gamma * f,
		Theta: g.Theta * f,
		Vega:  g.Vega * f,
		Rho:   g.Rho * f,
	}
}

// Add returns the element-wise sum of two vectors.
func (g GreeksVector) Add(o GreeksVector) GreeksVector {
	return GreeksVector{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}
