// Package greeks combines per-leg option sensitivities into strategy and
// portfolio level vectors. Greeks are linear in position size under the
// pricing model, so aggregation is exact: every component is the sum of
// signed quantity × multiplier × per-contract value.
package greeks

import (
	"optionwatch/internal/errors"
	"optionwatch/internal/models"
)

// Aggregate returns the strategy-level GreeksVector for a strategy and its
// per-leg per-contract vectors, in leg order. Legs with mismatched contract
// multipliers are rejected with ErrInconsistentUnits rather than normalized.
func Aggregate(s models.Strategy, perLeg []models.GreeksVector) (models.GreeksVector, error) {
	if len(s.Legs) == 0 {
		return models.GreeksVector{}, errors.Wrapf(errors.ErrInvalidInput, "strategy %s has no legs", s.ID)
	}
	if len(perLeg) != len(s.Legs) {
		return models.GreeksVector{}, errors.Wrapf(errors.ErrInvalidInput,
			"strategy %s has %d legs but %d greeks vectors", s.ID, len(s.Legs), len(perLeg))
	}

	mult := s.Legs[0].Contract.Multiplier
	var out models.GreeksVector
	for i, leg := range s.Legs {
		if leg.Contract.Multiplier != mult {
			return models.GreeksVector{}, errors.Wrapf(errors.ErrInconsistentUnits,
				"leg %s multiplier %.0f differs from %.0f", leg.Contract.Key(), leg.Contract.Multiplier, mult)
		}
		out = out.Add(perLeg[i].Scale(float64(leg.Quantity) * leg.Contract.Multiplier))
	}
	return out, nil
}

// Sum adds already-aggregated strategy vectors into a portfolio vector.
// Strategies may carry different multipliers; each vector is already in
// position units so plain addition is exact here too.
func Sum(vectors ...models.GreeksVector) models.GreeksVector {
	var out models.GreeksVector
	for _, v := range vectors {
		out = out.Add(v)
	}
	return out
}
