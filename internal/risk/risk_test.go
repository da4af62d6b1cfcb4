package risk

import (
	"reflect"
	"testing"
	"time"

	"optionwatch/internal/errors"
	"optionwatch/internal/ledger"
	"optionwatch/internal/models"
)

var testAsOf = time.Date(2025, 6, 2, 16, 0, 0, 0, time.UTC)

func testLedger(t *testing.T) ledger.Snapshot {
	t.Helper()
	l := ledger.New()
	legs := []models.Leg{
		{
			Contract: models.Contract{
				Underlying: "SPY", Type: models.Call, Style: models.European,
				Strike: 100, Expiry: testAsOf.AddDate(0, 0, 45), Multiplier: 100,
			},
			Quantity: 2, EntryPrice: 4,
		},
		{
			Contract: models.Contract{
				Underlying: "SPY", Type: models.Put, Style: models.European,
				Strike: 95, Expiry: testAsOf.AddDate(0, 0, 45), Multiplier: 100,
			},
			Quantity: -1, EntryPrice: 2,
		},
	}
	for _, leg := range legs {
		if err := l.AddLeg("combo", "", leg); err != nil {
			t.Fatalf("AddLeg: %v", err)
		}
	}
	return l.Snapshot()
}

func testMarketInputs() Market {
	return Market{
		AsOf: testAsOf,
		Quotes: map[string]models.MarketSnapshot{
			"SPY": {
				Spot: 102, RiskFreeRate: 0.05, Vol: 0.22, AsOf: testAsOf,
			},
		},
	}
}

func testScenarios() []models.Scenario {
	return []models.Scenario{
		{Name: "down_10", SpotPct: -10},
		{Name: "up_10", SpotPct: 10},
		{Name: "vol_spike", VolShift: 0.10},
		{Name: "week_decay", Days: 7},
		{Name: "crash", SpotPct: -20, VolShift: 0.15},
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	snap := testLedger(t)
	mkt := testMarketInputs()
	scenarios := testScenarios()
	limits := models.RiskLimits{MaxDelta: 500, MaxScenarioLoss: 10000}

	a, err := Evaluate(snap, mkt, scenarios, limits)
	if err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	b, err := Evaluate(snap, mkt, scenarios, limits)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs produced different reports:\n%+v\n%+v", a, b)
	}
}

func TestEvaluateScenarioOrder(t *testing.T) {
	snap := testLedger(t)
	scenarios := testScenarios()

	report, err := Evaluate(snap, testMarketInputs(), scenarios, models.RiskLimits{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(report.Scenarios) != len(scenarios) {
		t.Fatalf("scenarios = %d, want %d", len(report.Scenarios), len(scenarios))
	}
	for i, sc := range scenarios {
		if report.Scenarios[i].Name != sc.Name {
			t.Errorf("scenarios[%d] = %s, want %s (caller order)", i, report.Scenarios[i].Name, sc.Name)
		}
	}
}

func TestEvaluateScenarioDirections(t *testing.T) {
	snap := testLedger(t)
	report, err := Evaluate(snap, testMarketInputs(), testScenarios(), models.RiskLimits{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	byName := make(map[string]float64)
	for _, sc := range report.Scenarios {
		byName[sc.Name] = sc.PnL
	}

	// Net long calls and short a put: up moves gain, down moves lose.
	if byName["up_10"] <= 0 {
		t.Errorf("up_10 P&L = %.2f, want positive for a delta-long book", byName["up_10"])
	}
	if byName["down_10"] >= 0 {
		t.Errorf("down_10 P&L = %.2f, want negative", byName["down_10"])
	}
	if byName["crash"] >= byName["down_10"] {
		t.Errorf("crash P&L %.2f should be worse than down_10 %.2f", byName["crash"], byName["down_10"])
	}
}

func TestBreachesAreDataNotErrors(t *testing.T) {
	snap := testLedger(t)
	mkt := testMarketInputs()

	// A delta cap far below the book's exposure must breach, not error.
	report, err := Evaluate(snap, mkt, testScenarios(), models.RiskLimits{MaxDelta: 0.001})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !report.Breached() {
		t.Fatal("expected a delta breach")
	}
	found := false
	for _, br := range report.Breaches {
		if br.Limit == "delta" {
			found = true
			if br.Max != 0.001 {
				t.Errorf("breach max = %v, want 0.001", br.Max)
			}
		}
	}
	if !found {
		t.Errorf("breaches = %+v, want a delta entry", report.Breaches)
	}
}

func TestZeroLimitsDisableChecks(t *testing.T) {
	snap := testLedger(t)
	report, err := Evaluate(snap, testMarketInputs(), testScenarios(), models.RiskLimits{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Breached() {
		t.Errorf("zero limits produced breaches: %+v", report.Breaches)
	}
}

func TestScenarioLossBreach(t *testing.T) {
	snap := testLedger(t)
	report, err := Evaluate(snap, testMarketInputs(), testScenarios(), models.RiskLimits{MaxScenarioLoss: 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	var names []string
	for _, br := range report.Breaches {
		if br.Limit == "scenario_loss" {
			names = append(names, br.Scenario)
		}
	}
	if len(names) == 0 {
		t.Fatal("expected scenario_loss breaches with a $1 cap")
	}
	// Every recorded breach names its scenario.
	for _, n := range names {
		if n == "" {
			t.Error("scenario_loss breach without scenario name")
		}
	}
}

func TestMissingQuoteFails(t *testing.T) {
	snap := testLedger(t)
	mkt := Market{AsOf: testAsOf, Quotes: map[string]models.MarketSnapshot{}}

	_, err := Evaluate(snap, mkt, nil, models.RiskLimits{})
	if !errors.Is(err, errors.ErrQuoteMissing) {
		t.Errorf("err = %v, want ErrQuoteMissing", err)
	}
}

func TestEmptySnapshotEvaluates(t *testing.T) {
	report, err := Evaluate(ledger.Snapshot{}, testMarketInputs(), testScenarios(), models.RiskLimits{MaxDelta: 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.PortfolioMark != 0 || report.Breached() {
		t.Errorf("empty book should mark to zero with no breaches, got %+v", report)
	}
}
