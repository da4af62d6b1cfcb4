package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"optionwatch/internal/errors"
	"optionwatch/internal/ledger"
	"optionwatch/internal/models"
)

// legEntry mirrors one [[legs]] row in a positions file.
type legEntry struct {
	Strategy   string  `mapstructure:"strategy"`
	Type       string  `mapstructure:"type"` // strategy shape tag, e.g. "VERTICAL"
	Underlying string  `mapstructure:"underlying"`
	Option     string  `mapstructure:"option"` // "CALL" or "PUT"
	Style      string  `mapstructure:"style"`  // "EUROPEAN" or "AMERICAN"
	Strike     float64 `mapstructure:"strike"`
	Expiry     string  `mapstructure:"expiry"` // YYYY-MM-DD
	Quantity   int     `mapstructure:"quantity"`
	EntryPrice float64 `mapstructure:"entry_price"`
	Multiplier float64 `mapstructure:"multiplier"`
}

// quoteEntry mirrors one [[quotes]] row in a quotes file.
type quoteEntry struct {
	Symbol        string  `mapstructure:"symbol"`
	Spot          float64 `mapstructure:"spot"`
	Vol           float64 `mapstructure:"vol"`
	RiskFreeRate  float64 `mapstructure:"risk_free_rate"`
	DividendYield float64 `mapstructure:"dividend_yield"`
}

type positionsFile struct {
	Legs []legEntry `mapstructure:"legs"`
}

type quotesFile struct {
	Quotes []quoteEntry `mapstructure:"quotes"`
}

// loadPositions reads a TOML positions file into a fresh ledger.
func loadPositions(path string) (*ledger.Ledger, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	var f positionsFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	lg := ledger.New()
	for i, e := range f.Legs {
		leg, err := e.toLeg()
		if err != nil {
			return nil, fmt.Errorf("legs[%d]: %w", i, err)
		}
		typ, err := models.ParseStrategyType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("legs[%d]: %w", i, err)
		}
		id := e.Strategy
		if id == "" {
			id = fmt.Sprintf("%s-%d", e.Underlying, i)
		}
		if err := lg.AddLeg(id, typ, leg); err != nil {
			return nil, fmt.Errorf("legs[%d]: %w", i, err)
		}
	}

	// Legs arrive one row at a time; template shapes only hold once the
	// whole file is in.
	for _, s := range lg.Snapshot().Strategies {
		if err := s.ValidateShape(); err != nil {
			return nil, err
		}
	}
	return lg, nil
}

func (e legEntry) toLeg() (models.Leg, error) {
	expiry, err := time.Parse("2006-01-02", e.Expiry)
	if err != nil {
		return models.Leg{}, errors.Wrapf(errors.ErrInvalidInput, "bad expiry %q", e.Expiry)
	}
	mult := e.Multiplier
	if mult == 0 {
		mult = 100
	}
	style := models.ExerciseStyle(strings.ToUpper(e.Style))
	if e.Style == "" {
		style = models.European
	}
	return models.Leg{
		Contract: models.Contract{
			Underlying: e.Underlying,
			Type:       models.OptionType(strings.ToUpper(e.Option)),
			Style:      style,
			Strike:     e.Strike,
			Expiry:     expiry.UTC(),
			Multiplier: mult,
		},
		Quantity:   e.Quantity,
		EntryPrice: e.EntryPrice,
	}, nil
}

// loadQuotes reads a TOML quotes file into a static quote source.
func loadQuotes(path string, asOf time.Time) (*staticQuotes, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	var f quotesFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	q := &staticQuotes{quotes: make(map[string]models.MarketSnapshot, len(f.Quotes))}
	for i, e := range f.Quotes {
		if e.Symbol == "" {
			return nil, fmt.Errorf("quotes[%d]: missing symbol", i)
		}
		q.quotes[e.Symbol] = models.MarketSnapshot{
			Spot:          e.Spot,
			RiskFreeRate:  e.RiskFreeRate,
			DividendYield: e.DividendYield,
			Vol:           e.Vol,
			AsOf:          asOf,
		}
	}
	return q, nil
}

// staticQuotes serves snapshots from a fixed in-memory table. It stands in
// for a live market-data client during offline evaluation.
type staticQuotes struct {
	quotes map[string]models.MarketSnapshot
}

func (s *staticQuotes) Snapshot(_ context.Context, symbol string) (models.MarketSnapshot, error) {
	q, ok := s.quotes[symbol]
	if !ok {
		return models.MarketSnapshot{}, errors.Wrapf(errors.ErrQuoteMissing, "symbol %s", symbol)
	}
	return q, nil
}
