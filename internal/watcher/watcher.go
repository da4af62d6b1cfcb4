// Package watcher drives the periodic evaluation cycle over a set of
// watched underlyings: ledger snapshot in, risk reports out. It owns the
// scheduling, logging, journaling and notification around the engine; the
// engine packages themselves stay pure.
package watcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"optionwatch/internal/config"
	"optionwatch/internal/errors"
	"optionwatch/internal/ledger"
	"optionwatch/internal/logging"
	"optionwatch/internal/market"
	"optionwatch/internal/models"
	"optionwatch/internal/notify"
	"optionwatch/internal/pricing"
	"optionwatch/internal/resilience"
	"optionwatch/internal/risk"
	"optionwatch/internal/store"
	"optionwatch/pkg/utils"
)

// QuoteSource supplies a market snapshot per underlying. The watcher never
// fetches market data itself; implementations belong to the data layer.
type QuoteSource interface {
	Snapshot(ctx context.Context, symbol string) (models.MarketSnapshot, error)
}

// Watcher evaluates the ledger on a fixed interval.
type Watcher struct {
	cfg      *config.Config
	ledger   *ledger.Ledger
	quotes   QuoteSource
	vols     pricing.VolSource
	journal  store.ReportJournal
	notifier notify.Notifier
	logger   zerolog.Logger
	breaker  *resilience.Breaker

	// clock is injectable so session checks are testable.
	clock func() time.Time
}

// Option customizes a watcher.
type Option func(*Watcher)

// WithVolSource plugs in a per-contract volatility lookup.
func WithVolSource(v pricing.VolSource) Option {
	return func(w *Watcher) { w.vols = v }
}

// WithJournal persists every report to the given journal.
func WithJournal(j store.ReportJournal) Option {
	return func(w *Watcher) { w.journal = j }
}

// WithNotifier forwards summaries and breaches to the given notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(w *Watcher) { w.notifier = n }
}

// WithClock overrides the session-check clock.
func WithClock(clock func() time.Time) Option {
	return func(w *Watcher) { w.clock = clock }
}

// New creates a watcher over the given ledger and quote source.
func New(cfg *config.Config, lg *ledger.Ledger, quotes QuoteSource, logger zerolog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		cfg:     cfg,
		ledger:  lg,
		quotes:  quotes,
		logger:  logger,
		breaker: resilience.NewBreaker("quotes", resilience.DefaultConfig()),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CycleResult is the outcome of one evaluation cycle for one symbol.
type CycleResult struct {
	Symbol  string
	State   market.State
	Skipped bool
	Report  models.RiskReport
}

// RunOnce evaluates every enabled symbol once against a single consistent
// ledger snapshot. Symbols whose venue is out of session are skipped unless
// off-hours evaluation is configured. Results come back in config order.
func (w *Watcher) RunOnce(ctx context.Context) ([]CycleResult, error) {
	snap := w.ledger.Snapshot()
	now := w.clock()

	var results []CycleResult
	for _, sym := range w.cfg.EnabledSymbols() {
		state, err := market.StateAt(now, sym.Venue, sym.Hours())
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %s", sym.Symbol)
		}

		res := CycleResult{Symbol: sym.Symbol, State: state}
		inSession := state == market.StateRegular || state == market.StateOpen
		if !inSession && !w.cfg.Watcher.OffHoursEvaluation {
			res.Skipped = true
			results = append(results, res)
			continue
		}

		report, version, err := w.evaluateSymbol(ctx, snap, sym.Symbol)
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %s", sym.Symbol)
		}
		res.Report = report
		results = append(results, res)

		w.emit(ctx, sym.Symbol, report, version)
	}
	return results, nil
}

// evaluateSymbol prices the slice of the snapshot belonging to one
// underlying.
func (w *Watcher) evaluateSymbol(ctx context.Context, snap ledger.Snapshot, symbol string) (models.RiskReport, uint64, error) {
	quote, err := resilience.ExecuteWithResult(w.breaker, func() (models.MarketSnapshot, error) {
		return utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() (models.MarketSnapshot, error) {
			return w.quotes.Snapshot(ctx, symbol)
		})
	})
	if err != nil {
		return models.RiskReport{}, 0, err
	}

	sub := filterSnapshot(snap, symbol)
	mkt := risk.Market{
		AsOf:   quote.AsOf,
		Quotes: map[string]models.MarketSnapshot{symbol: quote},
		Vols:   w.vols,
	}
	report, err := risk.Evaluate(sub, mkt, w.cfg.ScenarioSet(), w.cfg.Limits())
	if err != nil {
		return models.RiskReport{}, 0, err
	}
	return report, snap.Version, nil
}

// emit logs, journals and notifies for one finished report. Emission
// failures are logged and swallowed; they must not abort the cycle.
func (w *Watcher) emit(ctx context.Context, symbol string, report models.RiskReport, version uint64) {
	logger := logging.WithSymbol(w.logger, symbol)
	logging.LogEvaluation(logger, symbol, report, version)
	for _, br := range report.Breaches {
		logging.LogBreach(logger, symbol, br)
	}

	if w.journal != nil {
		if err := w.journal.SaveReport(ctx, symbol, report); err != nil {
			logger.Error().Err(err).Msg("Failed to journal report")
		}
	}
	if w.notifier != nil {
		if err := w.notifier.Send(ctx, notify.FromReport(symbol, report)); err != nil {
			logger.Error().Err(err).Msg("Failed to send notification")
		}
	}
}

// Run evaluates on the configured interval until the context is cancelled
// or the configured iteration cap is reached.
func (w *Watcher) Run(ctx context.Context) error {
	interval := time.Duration(w.cfg.Watcher.UpdateIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	iteration := 0
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			// A transient pricing or quote failure should not kill the
			// loop; the next tick retries with fresh inputs.
			w.logger.Error().Err(err).Msg("Evaluation cycle failed")
		}

		iteration++
		if max := w.cfg.Watcher.MaxIterations; max > 0 && iteration >= max {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// filterSnapshot narrows a ledger snapshot to strategies on one underlying.
func filterSnapshot(snap ledger.Snapshot, symbol string) ledger.Snapshot {
	out := ledger.Snapshot{Version: snap.Version}
	for _, s := range snap.Strategies {
		if s.Underlying() == symbol {
			out.Strategies = append(out.Strategies, s)
		}
	}
	return out
}
