package pricing

import (
	"sort"
	"time"

	"optionwatch/internal/errors"
	"optionwatch/internal/models"
)

// VolSource supplies an implied volatility for a contract. The engine never
// guesses a surface model; callers plug in whatever lookup they have.
type VolSource interface {
	Vol(c models.Contract) (float64, error)
}

// FlatVol is a VolSource that returns the same volatility for every
// contract.
type FlatVol float64

func (f FlatVol) Vol(models.Contract) (float64, error) {
	return float64(f), nil
}

// Surface is a VolSource interpolating bilinearly over a strike × expiry
// grid. Lookups outside the grid clamp to the nearest edge.
type Surface struct {
	strikes  []float64   // ascending
	expiries []time.Time // ascending
	vols     [][]float64 // vols[expiry][strike]
}

// NewSurface builds a surface from ascending strike and expiry axes and a
// vols grid with one row per expiry and one column per strike.
func NewSurface(strikes []float64, expiries []time.Time, vols [][]float64) (*Surface, error) {
	if len(strikes) == 0 || len(expiries) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "surface axes must be non-empty")
	}
	if !sort.Float64sAreSorted(strikes) {
		return nil, errors.Wrap(errors.ErrInvalidInput, "surface strikes must be ascending")
	}
	for i := 1; i < len(expiries); i++ {
		if expiries[i].Before(expiries[i-1]) {
			return nil, errors.Wrap(errors.ErrInvalidInput, "surface expiries must be ascending")
		}
	}
	if len(vols) != len(expiries) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "surface has %d vol rows for %d expiries", len(vols), len(expiries))
	}
	for _, row := range vols {
		if len(row) != len(strikes) {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "surface row has %d vols for %d strikes", len(row), len(strikes))
		}
		for _, v := range row {
			if v <= 0 {
				return nil, errors.NewPricingError("volatility", v, "surface vols must be positive")
			}
		}
	}
	return &Surface{strikes: strikes, expiries: expiries, vols: vols}, nil
}

func (s *Surface) Vol(c models.Contract) (float64, error) {
	ti, tw := locateTime(s.expiries, c.Expiry)
	ki, kw := locateFloat(s.strikes, c.Strike)

	v00 := s.vols[ti][ki]
	v01 := s.vols[ti][min(ki+1, len(s.strikes)-1)]
	v10 := s.vols[min(ti+1, len(s.expiries)-1)][ki]
	v11 := s.vols[min(ti+1, len(s.expiries)-1)][min(ki+1, len(s.strikes)-1)]

	low := v00 + kw*(v01-v00)
	high := v10 + kw*(v11-v10)
	return low + tw*(high-low), nil
}

// locateFloat returns the lower grid index and interpolation weight for x,
// clamped to the grid edges.
func locateFloat(axis []float64, x float64) (int, float64) {
	if x <= axis[0] {
		return 0, 0
	}
	last := len(axis) - 1
	if x >= axis[last] {
		return last, 0
	}
	i := sort.SearchFloat64s(axis, x)
	if axis[i] == x {
		return i, 0
	}
	i--
	return i, (x - axis[i]) / (axis[i+1] - axis[i])
}

func locateTime(axis []time.Time, x time.Time) (int, float64) {
	if !x.After(axis[0]) {
		return 0, 0
	}
	last := len(axis) - 1
	if !x.Before(axis[last]) {
		return last, 0
	}
	i := sort.Search(len(axis), func(j int) bool { return !axis[j].Before(x) })
	if axis[i].Equal(x) {
		return i, 0
	}
	i--
	span := axis[i+1].Sub(axis[i])
	return i, float64(x.Sub(axis[i])) / float64(span)
}
