// Package integration holds end-to-end tests wiring the ledger, risk
// engine, watcher, journal and notifier together.
package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"optionwatch/internal/config"
	"optionwatch/internal/ledger"
	"optionwatch/internal/models"
	"optionwatch/internal/notify"
	"optionwatch/internal/store"
	"optionwatch/internal/watcher"
)

var asOf = time.Date(2025, 6, 2, 16, 0, 0, 0, time.UTC)

type fixedQuotes map[string]models.MarketSnapshot

func (f fixedQuotes) Snapshot(_ context.Context, symbol string) (models.MarketSnapshot, error) {
	return f[symbol], nil
}

func buildLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.New()

	// Short put vertical: short the 95 put, long the 90 put.
	legs := []models.Leg{
		{
			Contract: models.Contract{
				Underlying: "SPY", Type: models.Put, Style: models.European,
				Strike: 95, Expiry: asOf.AddDate(0, 0, 30), Multiplier: 100,
			},
			Quantity: -1, EntryPrice: 2.50,
		},
		{
			Contract: models.Contract{
				Underlying: "SPY", Type: models.Put, Style: models.European,
				Strike: 90, Expiry: asOf.AddDate(0, 0, 30), Multiplier: 100,
			},
			Quantity: 1, EntryPrice: 1.20,
		},
	}
	for _, leg := range legs {
		if err := l.AddLeg("put-vertical", models.StrategyVertical, leg); err != nil {
			t.Fatalf("AddLeg: %v", err)
		}
	}
	return l
}

// One full cycle: evaluate the book, persist the report, surface the
// breach through the notifier, and read it back from the journal.
func TestEvaluationCycleEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := &config.Config{
		Watcher: config.WatcherConfig{
			UpdateIntervalSeconds: 1,
			OffHoursEvaluation:    true,
		},
		// A crash scenario guaranteed to breach the tiny loss cap below.
		Risk: config.RiskConfig{MaxScenarioLoss: 1},
		Symbols: []config.SymbolConfig{
			{Symbol: "SPY", Venue: "US", Enabled: true},
		},
		Scenarios: []config.ScenarioConfig{
			{Name: "crash", SpotPct: -20, VolShift: 0.15},
		},
	}

	journal, err := store.NewSQLiteJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteJournal: %v", err)
	}
	defer journal.Close()

	var buf bytes.Buffer
	terminal := notify.NewTerminal(&buf)

	quotes := fixedQuotes{
		"SPY": {Spot: 100, RiskFreeRate: 0.05, Vol: 0.2, AsOf: asOf},
	}

	w := watcher.New(cfg, buildLedger(t), quotes, zerolog.Nop(),
		watcher.WithJournal(journal),
		watcher.WithNotifier(terminal),
		watcher.WithClock(func() time.Time { return asOf }),
	)

	results, err := w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	report := results[0].Report
	if !report.Breached() {
		t.Fatal("crash scenario should breach the $1 loss cap")
	}

	// The notifier saw the breach.
	if !strings.Contains(buf.String(), "SPY") {
		t.Errorf("notification output missing symbol: %q", buf.String())
	}

	// The journal can serve it back.
	records, err := journal.GetReports(ctx, store.ReportFilter{Symbol: "SPY", BreachedOnly: true})
	if err != nil {
		t.Fatalf("GetReports: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("journaled breached reports = %d, want 1", len(records))
	}
	if records[0].Report.PortfolioMark != report.PortfolioMark {
		t.Errorf("journaled mark %.4f differs from live report %.4f",
			records[0].Report.PortfolioMark, report.PortfolioMark)
	}

	breaches, err := journal.GetBreaches(ctx, "SPY", asOf.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetBreaches: %v", err)
	}
	if len(breaches) == 0 {
		t.Fatal("no breach rows journaled")
	}
	if breaches[0].Limit != "scenario_loss" || breaches[0].Scenario != "crash" {
		t.Errorf("breach = %+v, want scenario_loss/crash", breaches[0])
	}
}

// Two cycles over an unchanged book and market journal identical marks.
func TestRepeatedCyclesAreStable(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{
		Watcher: config.WatcherConfig{UpdateIntervalSeconds: 1, OffHoursEvaluation: true},
		Symbols: []config.SymbolConfig{{Symbol: "SPY", Venue: "US", Enabled: true}},
	}
	quotes := fixedQuotes{
		"SPY": {Spot: 100, RiskFreeRate: 0.05, Vol: 0.2, AsOf: asOf},
	}

	w := watcher.New(cfg, buildLedger(t), quotes, zerolog.Nop(),
		watcher.WithClock(func() time.Time { return asOf }))

	first, err := w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
	second, err := w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if first[0].Report.PortfolioMark != second[0].Report.PortfolioMark {
		t.Errorf("marks differ across unchanged cycles: %.6f vs %.6f",
			first[0].Report.PortfolioMark, second[0].Report.PortfolioMark)
	}
}
