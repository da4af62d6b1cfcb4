package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"optionwatch/internal/errors"
	"optionwatch/internal/models"
)

func testLeg(underlying string, strike float64, qty int) models.Leg {
	return models.Leg{
		Contract: models.Contract{
			Underlying: underlying,
			Type:       models.Call,
			Style:      models.European,
			Strike:     strike,
			Expiry:     time.Date(2026, 1, 16, 16, 0, 0, 0, time.UTC),
			Multiplier: 100,
		},
		Quantity:   qty,
		EntryPrice: 5,
	}
}

func TestAddLegCreatesAndMerges(t *testing.T) {
	l := New()

	leg := testLeg("SPY", 100, 2)
	leg.EntryPrice = 4
	if err := l.AddLeg("s1", models.StrategySingle, leg); err != nil {
		t.Fatalf("AddLeg: %v", err)
	}

	// Same contract again: quantities merge, entry price volume-weighted.
	more := testLeg("SPY", 100, 2)
	more.EntryPrice = 6
	if err := l.AddLeg("s1", "", more); err != nil {
		t.Fatalf("AddLeg merge: %v", err)
	}

	s, err := l.Strategy("s1")
	if err != nil {
		t.Fatalf("Strategy: %v", err)
	}
	if len(s.Legs) != 1 {
		t.Fatalf("legs = %d, want 1", len(s.Legs))
	}
	if s.Legs[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", s.Legs[0].Quantity)
	}
	if s.Legs[0].EntryPrice != 5 {
		t.Errorf("entry price = %.2f, want 5 (volume-weighted)", s.Legs[0].EntryPrice)
	}
	if s.Type != models.StrategySingle {
		t.Errorf("type = %s, want %s (tag set at creation)", s.Type, models.StrategySingle)
	}
}

func TestAddLegZeroMergeRemovesLeg(t *testing.T) {
	l := New()
	if err := l.AddLeg("s1", "", testLeg("SPY", 100, 3)); err != nil {
		t.Fatalf("AddLeg: %v", err)
	}
	if err := l.AddLeg("s1", "", testLeg("SPY", 100, -3)); err != nil {
		t.Fatalf("offsetting AddLeg: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("ledger holds %d strategies, want 0 after full offset", l.Len())
	}
}

func TestAddLegRejectsMixedUnderlying(t *testing.T) {
	l := New()
	if err := l.AddLeg("s1", "", testLeg("SPY", 100, 1)); err != nil {
		t.Fatalf("AddLeg: %v", err)
	}

	err := l.AddLeg("s1", "", testLeg("QQQ", 100, 1))
	if !errors.Is(err, errors.ErrInconsistentUnderlying) {
		t.Fatalf("err = %v, want ErrInconsistentUnderlying", err)
	}

	// The failed mutation must not have touched anything.
	s, _ := l.Strategy("s1")
	if len(s.Legs) != 1 || s.Legs[0].Contract.Underlying != "SPY" {
		t.Errorf("strategy mutated by rejected add: %+v", s)
	}
}

func TestAddLegValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Leg)
	}{
		{"empty underlying", func(leg *models.Leg) { leg.Contract.Underlying = "" }},
		{"bad type", func(leg *models.Leg) { leg.Contract.Type = "SWAP" }},
		{"zero strike", func(leg *models.Leg) { leg.Contract.Strike = 0 }},
		{"zero multiplier", func(leg *models.Leg) { leg.Contract.Multiplier = 0 }},
		{"zero expiry", func(leg *models.Leg) { leg.Contract.Expiry = time.Time{} }},
		{"zero quantity", func(leg *models.Leg) { leg.Quantity = 0 }},
		{"negative entry", func(leg *models.Leg) { leg.EntryPrice = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			leg := testLeg("SPY", 100, 1)
			tt.mutate(&leg)
			err := l.AddLeg("s1", "", leg)
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
			if l.Len() != 0 {
				t.Error("rejected add left state behind")
			}
		})
	}
}

func TestAdjustQuantity(t *testing.T) {
	l := New()
	leg := testLeg("SPY", 100, 5)
	if err := l.AddLeg("s1", "", leg); err != nil {
		t.Fatalf("AddLeg: %v", err)
	}
	key := leg.Contract.Key()

	if err := l.AdjustQuantity("s1", key, -2); err != nil {
		t.Fatalf("AdjustQuantity: %v", err)
	}
	s, _ := l.Strategy("s1")
	if s.Legs[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", s.Legs[0].Quantity)
	}

	if err := l.AdjustQuantity("s1", key, 0); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("zero delta: err = %v, want ErrInvalidInput", err)
	}
	if err := l.AdjustQuantity("missing", key, 1); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing strategy: err = %v, want ErrNotFound", err)
	}
	if err := l.AdjustQuantity("s1", "no-such-contract", 1); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing leg: err = %v, want ErrNotFound", err)
	}

	// Adjusting to exactly zero removes the leg, and with it the strategy.
	if err := l.AdjustQuantity("s1", key, -3); err != nil {
		t.Fatalf("AdjustQuantity to zero: %v", err)
	}
	if _, err := l.Strategy("s1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("strategy should be gone after last leg removed, err = %v", err)
	}
}

func TestCloseLeg(t *testing.T) {
	l := New()
	a := testLeg("SPY", 100, 1)
	b := testLeg("SPY", 110, -1)
	if err := l.AddLeg("vert", models.StrategyVertical, a); err != nil {
		t.Fatalf("AddLeg a: %v", err)
	}
	if err := l.AddLeg("vert", "", b); err != nil {
		t.Fatalf("AddLeg b: %v", err)
	}

	if err := l.CloseLeg("vert", a.Contract.Key()); err != nil {
		t.Fatalf("CloseLeg: %v", err)
	}
	s, err := l.Strategy("vert")
	if err != nil {
		t.Fatalf("Strategy: %v", err)
	}
	if len(s.Legs) != 1 || s.Legs[0].Contract.Strike != 110 {
		t.Errorf("remaining legs = %+v, want only the 110 strike", s.Legs)
	}

	if err := l.CloseLeg("vert", a.Contract.Key()); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("closing twice: err = %v, want ErrNotFound", err)
	}
}

func TestSnapshotIsDeepAndSorted(t *testing.T) {
	l := New()
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if err := l.AddLeg(id, "", testLeg("SPY", 100, 1)); err != nil {
			t.Fatalf("AddLeg %s: %v", id, err)
		}
	}

	snap := l.Snapshot()
	if len(snap.Strategies) != 3 {
		t.Fatalf("snapshot has %d strategies, want 3", len(snap.Strategies))
	}
	for i, want := range []string{"alpha", "bravo", "charlie"} {
		if snap.Strategies[i].ID != want {
			t.Errorf("strategies[%d] = %s, want %s", i, snap.Strategies[i].ID, want)
		}
	}

	// Mutating the snapshot must not leak into the ledger.
	snap.Strategies[0].Legs[0].Quantity = 999
	s, _ := l.Strategy("alpha")
	if s.Legs[0].Quantity != 1 {
		t.Error("snapshot mutation visible in ledger")
	}

	// And later ledger mutations must not show in the old snapshot.
	key := testLeg("SPY", 100, 1).Contract.Key()
	if err := l.AdjustQuantity("alpha", key, 5); err != nil {
		t.Fatalf("AdjustQuantity: %v", err)
	}
	if snap.Version == l.Snapshot().Version {
		t.Error("version did not advance on mutation")
	}
}

func TestSnapshotUnderlyings(t *testing.T) {
	l := New()
	l.AddLeg("a", "", testLeg("SPY", 100, 1))
	l.AddLeg("b", "", testLeg("QQQ", 300, 1))
	l.AddLeg("c", "", testLeg("SPY", 110, 1))

	got := l.Snapshot().Underlyings()
	want := []string{"QQQ", "SPY"}
	if len(got) != len(want) {
		t.Fatalf("underlyings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("underlyings = %v, want %v", got, want)
		}
	}
}

func TestConcurrentMutationAndSnapshot(t *testing.T) {
	l := New()
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("s%d", w)
				l.AddLeg(id, "", testLeg("SPY", float64(100+i%5), 1))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				snap := l.Snapshot()
				// Every observed strategy must be internally consistent.
				for _, s := range snap.Strategies {
					if len(s.Legs) == 0 {
						t.Error("snapshot contains empty strategy")
						return
					}
					for _, leg := range s.Legs {
						if leg.Quantity == 0 {
							t.Error("snapshot contains zero-quantity leg")
							return
						}
					}
				}
			}
		}()
	}
	wg.Wait()

	if l.Len() != 8 {
		t.Errorf("strategies = %d, want 8", l.Len())
	}
}
