// Package ledger owns the mutable set of open strategies and their legs.
// All mutations are serialized; readers take consistent point-in-time
// copies and never observe partial updates. Analytics components receive
// snapshots only and hold no reference back into the ledger.
package ledger

import (
	"sort"
	"sync"

	"optionwatch/internal/errors"
	"optionwatch/internal/models"
)

// Ledger maintains open strategies keyed by strategy ID.
type Ledger struct {
	mu         sync.RWMutex
	strategies map[string]*models.Strategy
	version    uint64
}

// New creates an empty ledger. Each portfolio gets its own instance; there
// is no process-wide position state.
func New() *Ledger {
	return &Ledger{strategies: make(map[string]*models.Strategy)}
}

// Snapshot is a deep, immutable copy of the ledger at one version.
type Snapshot struct {
	Version    uint64
	Strategies []models.Strategy // sorted by ID for deterministic iteration
}

// Underlyings returns the distinct underlying symbols in the snapshot,
// sorted.
func (s Snapshot) Underlyings() []string {
	seen := make(map[string]bool)
	var out []string
	for _, st := range s.Strategies {
		u := st.Underlying()
		if u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

// AddLeg adds a leg to the identified strategy, creating the strategy with
// the given type tag when absent. Adding a contract already present in the
// strategy merges quantities with a volume-weighted entry price; a merge
// that nets to zero removes the leg. Every validation failure leaves the
// ledger unchanged.
func (l *Ledger) AddLeg(strategyID string, typ models.StrategyType, leg models.Leg) error {
	if err := validateLeg(leg); err != nil {
		return errors.NewLedgerError("add", strategyID, leg.Contract.Key(), err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.strategies[strategyID]
	if !ok {
		if typ == "" {
			typ = models.StrategyCustom
		}
		l.strategies[strategyID] = &models.Strategy{
			ID:   strategyID,
			Type: typ,
			Legs: []models.Leg{leg},
		}
		l.version++
		return nil
	}

	if s.Underlying() != leg.Contract.Underlying {
		return errors.NewLedgerError("add", strategyID, leg.Contract.Key(),
			errors.Wrapf(errors.ErrInconsistentUnderlying, "strategy holds %s", s.Underlying()))
	}

	key := leg.Contract.Key()
	for i := range s.Legs {
		if s.Legs[i].Contract.Key() != key {
			continue
		}
		merged := s.Legs[i].Quantity + leg.Quantity
		if merged == 0 {
			l.removeLegAt(strategyID, s, i)
		} else {
			// Weighted average entry keeps the cost basis exact across
			// partial adds.
			oldQty := float64(s.Legs[i].Quantity)
			addQty := float64(leg.Quantity)
			s.Legs[i].EntryPrice = (s.Legs[i].EntryPrice*oldQty + leg.EntryPrice*addQty) / (oldQty + addQty)
			s.Legs[i].Quantity = merged
		}
		l.version++
		return nil
	}

	s.Legs = append(s.Legs, leg)
	l.version++
	return nil
}

// AdjustQuantity applies a signed quantity delta to an existing leg,
// addressed by its contract key. Adjusting to exactly zero removes the leg;
// removing the last leg removes the strategy.
func (l *Ledger) AdjustQuantity(strategyID, contractKey string, delta int) error {
	if delta == 0 {
		return errors.NewLedgerError("adjust", strategyID, contractKey,
			errors.Wrap(errors.ErrInvalidInput, "zero delta"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.strategies[strategyID]
	if !ok {
		return errors.NewLedgerError("adjust", strategyID, contractKey, errors.ErrNotFound)
	}
	for i := range s.Legs {
		if s.Legs[i].Contract.Key() != contractKey {
			continue
		}
		if s.Legs[i].Quantity+delta == 0 {
			l.removeLegAt(strategyID, s, i)
		} else {
			s.Legs[i].Quantity += delta
		}
		l.version++
		return nil
	}
	return errors.NewLedgerError("adjust", strategyID, contractKey, errors.ErrNotFound)
}

// CloseLeg removes a leg entirely regardless of quantity.
func (l *Ledger) CloseLeg(strategyID, contractKey string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.strategies[strategyID]
	if !ok {
		return errors.NewLedgerError("close", strategyID, contractKey, errors.ErrNotFound)
	}
	for i := range s.Legs {
		if s.Legs[i].Contract.Key() == contractKey {
			l.removeLegAt(strategyID, s, i)
			l.version++
			return nil
		}
	}
	return errors.NewLedgerError("close", strategyID, contractKey, errors.ErrNotFound)
}

// removeLegAt deletes leg i, and the whole strategy when it was the last
// leg. Callers hold the write lock.
func (l *Ledger) removeLegAt(strategyID string, s *models.Strategy, i int) {
	s.Legs = append(s.Legs[:i], s.Legs[i+1:]...)
	if len(s.Legs) == 0 {
		delete(l.strategies, strategyID)
	}
}

// Strategy returns a copy of one strategy.
func (l *Ledger) Strategy(id string) (models.Strategy, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.strategies[id]
	if !ok {
		return models.Strategy{}, errors.NewLedgerError("get", id, "", errors.ErrNotFound)
	}
	return s.Clone(), nil
}

// Snapshot returns a deep copy of the full ledger. Concurrent mutations
// after the copy do not affect it.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := Snapshot{
		Version:    l.version,
		Strategies: make([]models.Strategy, 0, len(l.strategies)),
	}
	for _, s := range l.strategies {
		snap.Strategies = append(snap.Strategies, s.Clone())
	}
	sort.Slice(snap.Strategies, func(i, j int) bool {
		return snap.Strategies[i].ID < snap.Strategies[j].ID
	})
	return snap
}

// Len returns the number of open strategies.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.strategies)
}

func validateLeg(leg models.Leg) error {
	switch {
	case leg.Contract.Underlying == "":
		return errors.Wrap(errors.ErrInvalidInput, "empty underlying")
	case !leg.Contract.Type.Valid():
		return errors.Wrapf(errors.ErrInvalidInput, "option type %q", leg.Contract.Type)
	case leg.Contract.Strike <= 0:
		return errors.Wrapf(errors.ErrInvalidInput, "strike %.2f", leg.Contract.Strike)
	case leg.Contract.Multiplier <= 0:
		return errors.Wrapf(errors.ErrInvalidInput, "multiplier %.2f", leg.Contract.Multiplier)
	case leg.Contract.Expiry.IsZero():
		return errors.Wrap(errors.ErrInvalidInput, "zero expiry")
	case leg.Quantity == 0:
		return errors.Wrap(errors.ErrInvalidInput, "zero quantity")
	case leg.EntryPrice < 0:
		return errors.Wrapf(errors.ErrInvalidInput, "entry price %.2f", leg.EntryPrice)
	}
	return nil
}
