// Package models defines the core data structures shared across the engine.
package models

import (
	"fmt"
	"time"
)

// OptionType represents the option contract type.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// Sign returns +1 for calls and -1 for puts.
func (t OptionType) Sign() float64 {
	if t == Put {
		return -1
	}
	return 1
}

// Valid reports whether the option type is a known value.
func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

// ExerciseStyle represents the exercise style of a contract.
type ExerciseStyle string

const (
	European ExerciseStyle = "EUROPEAN"
	American ExerciseStyle = "AMERICAN"
)

// Contract is an immutable description of a single option contract.
// It is created when a leg is added and never mutated afterwards.
type Contract struct {
	Underlying string
	Type       OptionType
	Style      ExerciseStyle
	Strike     float64
	Expiry     time.Time
	Multiplier float64 // underlying units per contract, commonly 100
}

// Key returns a stable identity for the contract, used by the ledger
// to address legs within a strategy.
func (c Contract) Key() string {
	return fmt.Sprintf("%s|%s|%s|%.2f",
		c.Underlying, c.Type, c.Expiry.UTC().Format("2006-01-02"), c.Strike)
}

// MarketSnapshot carries the market inputs for a single evaluation.
// It is supplied fresh on every call and never persisted by the engine.
type MarketSnapshot struct {
	Spot          float64
	RiskFreeRate  float64 // annualized, continuously compounded
	DividendYield float64 // annualized continuous yield
	Vol           float64 // annualized implied volatility for the contract under evaluation
	AsOf          time.Time
}

// YearFraction returns the time to expiry in years using the engine's
// calendar-days/365 day-count convention. Results at or past expiry are
// zero or negative.
func (m MarketSnapshot) YearFraction(expiry time.Time) float64 {
	return expiry.Sub(m.AsOf).Hours() / 24 / 365
}
