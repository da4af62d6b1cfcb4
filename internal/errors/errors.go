// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrInvalidInput signals malformed numeric parameters such as
	// non-positive volatility or spot, or a degenerate sampling range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedContract signals a payoff shape the pricing model
	// cannot price.
	ErrUnsupportedContract = errors.New("unsupported contract")

	// ErrInconsistentUnits signals mixed contract multipliers within a
	// strategy.
	ErrInconsistentUnits = errors.New("inconsistent contract units")

	// ErrInconsistentUnderlying signals a leg whose underlying does not
	// match its strategy.
	ErrInconsistentUnderlying = errors.New("inconsistent underlying")

	// ErrNotFound signals a ledger mutation referencing an absent
	// strategy or leg.
	ErrNotFound = errors.New("not found")

	// ErrQuoteMissing signals that no market snapshot was supplied for an
	// underlying present in the ledger.
	ErrQuoteMissing = errors.New("quote missing")

	ErrConfigInvalid = errors.New("invalid configuration")
	ErrDatabaseError = errors.New("database error")
)

// PricingError represents a pricing failure for a specific contract input.
type PricingError struct {
	Field   string
	Value   float64
	Message string
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("pricing error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap maps every pricing error onto the InvalidInput sentinel so callers
// can classify with errors.Is.
func (e *PricingError) Unwrap() error {
	return ErrInvalidInput
}

// NewPricingError creates a new PricingError.
func NewPricingError(field string, value float64, message string) *PricingError {
	return &PricingError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// LedgerError represents a failed ledger mutation. The ledger state is
// unchanged whenever one is returned.
type LedgerError struct {
	Op       string
	Strategy string
	Leg      string
	Err      error
}

func (e *LedgerError) Error() string {
	if e.Leg != "" {
		return fmt.Sprintf("ledger %s [%s/%s]: %v", e.Op, e.Strategy, e.Leg, e.Err)
	}
	return fmt.Sprintf("ledger %s [%s]: %v", e.Op, e.Strategy, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError.
func NewLedgerError(op, strategy, leg string, err error) *LedgerError {
	return &LedgerError{
		Op:       op,
		Strategy: strategy,
		Leg:      leg,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
