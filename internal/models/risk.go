package models

import "time"

// Scenario is a named hypothetical shock to market inputs.
type Scenario struct {
	Name     string
	SpotPct  float64 // percent change in spot, e.g. -10 for a 10% drop
	VolShift float64 // absolute change in implied volatility, e.g. 0.05
	Days     int     // calendar days of time decay to apply
}

// RiskLimits holds caller-supplied exposure limits. A zero limit disables
// the corresponding check.
type RiskLimits struct {
	MaxDelta        float64 // absolute portfolio delta
	MaxGamma        float64
	MaxTheta        float64 // absolute daily decay
	MaxVega         float64
	MaxScenarioLoss float64 // positive number; losses beyond it breach
}

// Breach records a single exceeded limit. Breaches are expected business
// outcomes, not errors.
type Breach struct {
	Limit    string  // "delta", "gamma", "theta", "vega", "scenario_loss"
	Scenario string  // set for scenario-loss breaches
	Value    float64
	Max      float64
}

// ScenarioPnL is the portfolio P&L under one scenario, in caller order.
type ScenarioPnL struct {
	Name string
	PnL  float64
}

// RiskReport is the on-demand output of a portfolio risk evaluation.
type RiskReport struct {
	AsOf          time.Time
	PortfolioMark float64 // current mark-to-market value of all legs
	Greeks        GreeksVector
	Scenarios     []ScenarioPnL
	Breaches      []Breach
}

// Breached reports whether any limit was exceeded.
func (r RiskReport) Breached() bool {
	return len(r.Breaches) > 0
}
