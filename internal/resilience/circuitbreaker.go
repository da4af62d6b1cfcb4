// Package resilience guards flaky external dependencies, primarily the
// quote source feeding the watcher. A tripped breaker turns a stream of
// slow failures into an immediate error the cycle can log and skip.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is the breaker's current mode.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// ErrOpen is returned while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker is open")

// Config tunes a breaker.
type Config struct {
	// FailureThreshold is the run of consecutive failures that opens the
	// breaker.
	FailureThreshold int
	// SuccessThreshold is the run of half-open successes that closes it.
	SuccessThreshold int
	// CoolDown is how long an open breaker waits before probing again.
	CoolDown time.Duration
}

// DefaultConfig returns the defaults used for quote sources.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		CoolDown:         30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	name string
	cfg  Config

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time

	// now is injectable for tests.
	now func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultConfig().SuccessThreshold
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = DefaultConfig().CoolDown
	}
	return &Breaker{name: name, cfg: cfg, state: StateClosed, now: time.Now}
}

// State returns the breaker's current state, advancing open to half-open
// when the cool-down has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeProbe()
	return b.state
}

// Execute runs fn under the breaker.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// ExecuteWithResult runs a result-returning fn under the breaker.
func ExecuteWithResult[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	v, err := fn()
	if err != nil {
		b.recordFailure()
		return zero, err
	}
	b.recordSuccess()
	return v, nil
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeProbe()
	if b.state == StateOpen {
		return ErrOpen
	}
	return nil
}

// maybeProbe transitions open to half-open after the cool-down. Callers
// hold the lock.
func (b *Breaker) maybeProbe() {
	if b.state == StateOpen && b.now().Sub(b.lastFailure) > b.cfg.CoolDown {
		b.state = StateHalfOpen
		b.successes = 0
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFailure = b.now()
	b.successes = 0
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.state = StateOpen
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	if b.state == StateClosed {
		return
	}
	b.successes++
	if b.successes >= b.cfg.SuccessThreshold {
		b.state = StateClosed
	}
}
