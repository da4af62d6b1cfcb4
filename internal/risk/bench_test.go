package risk

import (
	"fmt"
	"testing"

	"optionwatch/internal/ledger"
	"optionwatch/internal/models"
)

func BenchmarkEvaluate(b *testing.B) {
	l := ledger.New()
	expiries := []int{14, 30, 60, 90}
	for i, days := range expiries {
		for j, strike := range []float64{90, 95, 100, 105, 110} {
			qty := 1
			if (i+j)%2 == 1 {
				qty = -1
			}
			leg := models.Leg{
				Contract: models.Contract{
					Underlying: "SPY", Type: models.Call, Style: models.European,
					Strike: strike, Expiry: testAsOf.AddDate(0, 0, days), Multiplier: 100,
				},
				Quantity: qty, EntryPrice: 2,
			}
			if err := l.AddLeg(fmt.Sprintf("s-%d-%d", i, j), "", leg); err != nil {
				b.Fatal(err)
			}
		}
	}
	snap := l.Snapshot()
	mkt := testMarketInputs()
	scenarios := testScenarios()
	limits := models.RiskLimits{MaxDelta: 500, MaxScenarioLoss: 10000}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Evaluate(snap, mkt, scenarios, limits); err != nil {
			b.Fatal(err)
		}
	}
}
