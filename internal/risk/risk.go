// Package risk reprices a ledger snapshot under named market shocks and
// checks the results against caller-supplied exposure limits. Threshold
// breaches come back as data in the report, never as errors; pricing
// failures fail fast. Given identical inputs the report is bit-for-bit
// reproducible.
package risk

import (
	"sync"
	"time"

	"optionwatch/internal/errors"
	"optionwatch/internal/greeks"
	"optionwatch/internal/ledger"
	"optionwatch/internal/models"
	"optionwatch/internal/pricing"
)

// Market bundles the market inputs for one evaluation: a snapshot per
// underlying present in the ledger, an optional per-contract volatility
// source, and the valuation timestamp stamped on the report. The per-quote
// AsOf drives time-to-expiry; nothing reads the wall clock.
type Market struct {
	AsOf   time.Time
	Quotes map[string]models.MarketSnapshot
	Vols   pricing.VolSource
}

// Evaluate prices every leg of the snapshot at the current market and under
// each scenario, aggregates Greeks, and flags limit breaches. Scenarios are
// evaluated concurrently but reported in caller order.
func Evaluate(snap ledger.Snapshot, mkt Market, scenarios []models.Scenario, limits models.RiskLimits) (models.RiskReport, error) {
	report := models.RiskReport{AsOf: mkt.AsOf}

	baseValue, portfolio, err := markPortfolio(snap, mkt, models.Scenario{})
	if err != nil {
		return models.RiskReport{}, err
	}
	report.PortfolioMark = baseValue
	report.Greeks = portfolio

	report.Scenarios = make([]models.ScenarioPnL, len(scenarios))
	errs := make([]error, len(scenarios))
	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func(i int, sc models.Scenario) {
			defer wg.Done()
			value, _, err := markPortfolio(snap, mkt, sc)
			if err != nil {
				errs[i] = errors.Wrapf(err, "scenario %s", sc.Name)
				return
			}
			report.Scenarios[i] = models.ScenarioPnL{Name: sc.Name, PnL: value - baseValue}
		}(i, sc)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return models.RiskReport{}, err
		}
	}

	report.Breaches = checkLimits(report, limits)
	return report, nil
}

// markPortfolio values every leg under the scenario shock and returns the
// total mark plus the portfolio GreeksVector. A zero scenario is the
// current mark.
func markPortfolio(snap ledger.Snapshot, mkt Market, sc models.Scenario) (float64, models.GreeksVector, error) {
	var total float64
	strategyVectors := make([]models.GreeksVector, 0, len(snap.Strategies))

	for _, s := range snap.Strategies {
		perLeg := make([]models.GreeksVector, len(s.Legs))
		for i, leg := range s.Legs {
			m, err := legSnapshot(leg, mkt, sc)
			if err != nil {
				return 0, models.GreeksVector{}, err
			}
			q, err := pricing.Price(leg.Contract, m)
			if err != nil {
				return 0, models.GreeksVector{}, errors.Wrapf(err, "leg %s", leg.Contract.Key())
			}
			perLeg[i] = q.Greeks
			total += q.Price * leg.Contract.Multiplier * float64(leg.Quantity)
		}
		agg, err := greeks.Aggregate(s, perLeg)
		if err != nil {
			return 0, models.GreeksVector{}, err
		}
		strategyVectors = append(strategyVectors, agg)
	}

	return total, greeks.Sum(strategyVectors...), nil
}

// legSnapshot resolves the market snapshot for one leg and applies the
// scenario shock: spot moves by SpotPct percent, the resolved volatility
// shifts by VolShift, and valuation advances Days calendar days.
func legSnapshot(leg models.Leg, mkt Market, sc models.Scenario) (models.MarketSnapshot, error) {
	m, ok := mkt.Quotes[leg.Contract.Underlying]
	if !ok {
		return m, errors.Wrapf(errors.ErrQuoteMissing, "underlying %s", leg.Contract.Underlying)
	}
	if mkt.Vols != nil {
		v, err := mkt.Vols.Vol(leg.Contract)
		if err != nil {
			return m, err
		}
		m.Vol = v
	}

	m.Spot *= 1 + sc.SpotPct/100
	m.Vol += sc.VolShift
	if sc.Days != 0 {
		m.AsOf = m.AsOf.AddDate(0, 0, sc.Days)
	}
	return m, nil
}

// checkLimits compares aggregated Greeks and scenario P&L against the
// limits. A zero limit disables its check; every breach is recorded, none
// dropped.
func checkLimits(r models.RiskReport, limits models.RiskLimits) []models.Breach {
	var breaches []models.Breach

	greek := func(name string, value, max float64) {
		if max > 0 && abs(value) > max {
			breaches = append(breaches, models.Breach{Limit: name, Value: value, Max: max})
		}
	}
	greek("delta", r.Greeks.Delta, limits.MaxDelta)
	greek("gamma", r.Greeks.Gamma, limits.MaxGamma)
	greek("theta", r.Greeks.Theta, limits.MaxTheta)
	greek("vega", r.Greeks.Vega, limits.MaxVega)

	if limits.MaxScenarioLoss > 0 {
		for _, sc := range r.Scenarios {
			if -sc.PnL > limits.MaxScenarioLoss {
				breaches = append(breaches, models.Breach{
					Limit:    "scenario_loss",
					Scenario: sc.Name,
					Value:    sc.PnL,
					Max:      limits.MaxScenarioLoss,
				})
			}
		}
	}
	return breaches
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
