// Package payoff evaluates strategy profit and loss as a function of the
// underlying price, either at expiration or marked to market at the
// snapshot's valuation date.
package payoff

import (
	"sort"

	"optionwatch/internal/errors"
	"optionwatch/internal/greeks"
	"optionwatch/internal/models"
	"optionwatch/internal/pricing"
)

// Mode selects how sampled prices are turned into leg values. The two modes
// are distinct by contract: expiration uses intrinsic value only, while
// mark-to-market reprices through the pricing model with the remaining time
// to expiry.
type Mode int

const (
	AtExpiration Mode = iota
	MarkToMarket
)

// Request describes the curve to build.
type Request struct {
	Low     float64
	High    float64
	Samples int
	Mode    Mode

	// DenseNearStrikes adds extra samples at and around each leg strike
	// inside the range, on top of the uniform grid.
	DenseNearStrikes bool

	// Vols optionally overrides the snapshot volatility per contract in
	// mark-to-market mode. Nil means the snapshot's flat vol.
	Vols pricing.VolSource
}

// Curve samples strategy P&L over [Low, High]. P&L is measured against each
// leg's entry price, signed quantity and multiplier included. The result is
// a pure function of the inputs.
func Curve(s models.Strategy, m models.MarketSnapshot, req Request) (models.PayoffCurve, error) {
	if len(s.Legs) == 0 {
		return models.PayoffCurve{}, errors.Wrapf(errors.ErrInvalidInput, "strategy %s has no legs", s.ID)
	}
	if req.Samples < 2 {
		return models.PayoffCurve{}, errors.Wrapf(errors.ErrInvalidInput, "sample count %d, need at least 2", req.Samples)
	}
	if req.Low >= req.High {
		return models.PayoffCurve{}, errors.Wrapf(errors.ErrInvalidInput, "price range [%.2f, %.2f] is empty", req.Low, req.High)
	}
	if req.Mode == MarkToMarket && req.Low <= 0 {
		return models.PayoffCurve{}, errors.Wrapf(errors.ErrInvalidInput, "mark-to-market range must start above zero, got %.2f", req.Low)
	}

	prices := sampleGrid(s, req)
	curve := models.PayoffCurve{Low: req.Low, High: req.High, Points: make([]models.PayoffPoint, 0, len(prices))}

	for _, spot := range prices {
		var pnl float64
		var err error
		switch req.Mode {
		case AtExpiration:
			pnl = expirationPnL(s, spot)
		case MarkToMarket:
			pnl, err = markPnL(s, m, req.Vols, spot)
			if err != nil {
				return models.PayoffCurve{}, err
			}
		default:
			return models.PayoffCurve{}, errors.Wrapf(errors.ErrInvalidInput, "unknown payoff mode %d", req.Mode)
		}
		curve.Points = append(curve.Points, models.PayoffPoint{Price: spot, PnL: pnl})
	}
	return curve, nil
}

// expirationPnL is Σ max(0, sign·(S−K))·mult·qty − entry·mult·qty over legs.
func expirationPnL(s models.Strategy, spot float64) float64 {
	var pnl float64
	for _, leg := range s.Legs {
		iv := leg.Contract.Type.Sign() * (spot - leg.Contract.Strike)
		if iv < 0 {
			iv = 0
		}
		size := leg.Contract.Multiplier * float64(leg.Quantity)
		pnl += iv*size - leg.EntryPrice*size
	}
	return pnl
}

func markPnL(s models.Strategy, m models.MarketSnapshot, vols pricing.VolSource, spot float64) (float64, error) {
	var pnl float64
	shocked := m
	shocked.Spot = spot
	for _, leg := range s.Legs {
		if vols != nil {
			v, err := vols.Vol(leg.Contract)
			if err != nil {
				return 0, err
			}
			shocked.Vol = v
		} else {
			shocked.Vol = m.Vol
		}
		q, err := pricing.Price(leg.Contract, shocked)
		if err != nil {
			return 0, err
		}
		size := leg.Contract.Multiplier * float64(leg.Quantity)
		pnl += (q.Price - leg.EntryPrice) * size
	}
	return pnl, nil
}

// sampleGrid builds the ascending list of sampled prices: a uniform grid,
// optionally thickened around each strike inside the range.
func sampleGrid(s models.Strategy, req Request) []float64 {
	step := (req.High - req.Low) / float64(req.Samples-1)
	prices := make([]float64, 0, req.Samples+3*len(s.Legs))
	for i := 0; i < req.Samples; i++ {
		prices = append(prices, req.Low+float64(i)*step)
	}

	if req.DenseNearStrikes {
		for _, leg := range s.Legs {
			k := leg.Contract.Strike
			for _, p := range []float64{k * 0.99, k, k * 1.01} {
				if p > req.Low && p < req.High {
					prices = append(prices, p)
				}
			}
		}
		sort.Float64s(prices)
		prices = dedupe(prices)
	}
	return prices
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// Summary condenses a curve and the matching strategy Greeks for reporting.
type Summary struct {
	Curve      models.PayoffCurve
	Greeks     models.GreeksVector
	MaxProfit  float64
	MaxLoss    float64
	Breakevens []float64
}

// Summarize builds a curve and aggregates the strategy's current Greeks in
// one pass, the shape the reporting layer consumes.
func Summarize(s models.Strategy, m models.MarketSnapshot, req Request) (Summary, error) {
	curve, err := Curve(s, m, req)
	if err != nil {
		return Summary{}, err
	}

	perLeg := make([]models.GreeksVector, len(s.Legs))
	snap := m
	for i, leg := range s.Legs {
		if req.Vols != nil {
			v, err := req.Vols.Vol(leg.Contract)
			if err != nil {
				return Summary{}, err
			}
			snap.Vol = v
		} else {
			snap.Vol = m.Vol
		}
		q, err := pricing.Price(leg.Contract, snap)
		if err != nil {
			return Summary{}, err
		}
		perLeg[i] = q.Greeks
	}
	agg, err := greeks.Aggregate(s, perLeg)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Curve:      curve,
		Greeks:     agg,
		MaxProfit:  curve.MaxProfit(),
		MaxLoss:    curve.MaxLoss(),
		Breakevens: curve.Breakevens(),
	}, nil
}
