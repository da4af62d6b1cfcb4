package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func testBreaker(cfg Config) (*Breaker, *time.Time) {
	b := NewBreaker("test", cfg)
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := testBreaker(Config{FailureThreshold: 3, SuccessThreshold: 1, CoolDown: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want OPEN after 3 failures", b.State())
	}

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("open breaker: err = %v, want ErrOpen", err)
	}
}

func TestBreakerProbesAfterCoolDown(t *testing.T) {
	b, now := testBreaker(Config{FailureThreshold: 1, SuccessThreshold: 2, CoolDown: time.Minute})

	b.Execute(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want OPEN", b.State())
	}

	*now = now.Add(2 * time.Minute)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN after cool-down", b.State())
	}

	// One success is not enough to close with SuccessThreshold 2.
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open probe: %v", err)
	}
	if b.State() != StateHalfOpen {
		t.Errorf("state = %s, want HALF_OPEN after one success", b.State())
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("second probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s, want CLOSED after two successes", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b, now := testBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, CoolDown: time.Minute})

	b.Execute(func() error { return errBoom })
	*now = now.Add(2 * time.Minute)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN", b.State())
	}

	b.Execute(func() error { return errBoom })
	if b.State() != StateOpen {
		t.Errorf("state = %s, want OPEN after half-open failure", b.State())
	}
}

func TestExecuteWithResult(t *testing.T) {
	b, _ := testBreaker(Config{FailureThreshold: 2, SuccessThreshold: 1, CoolDown: time.Minute})

	v, err := ExecuteWithResult(b, func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Fatalf("result = %d, %v; want 42, nil", v, err)
	}

	for i := 0; i < 2; i++ {
		ExecuteWithResult(b, func() (int, error) { return 0, errBoom })
	}
	if _, err := ExecuteWithResult(b, func() (int, error) { return 42, nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
}

func TestSuccessResetsFailureRun(t *testing.T) {
	b, _ := testBreaker(Config{FailureThreshold: 3, SuccessThreshold: 1, CoolDown: time.Minute})

	b.Execute(func() error { return errBoom })
	b.Execute(func() error { return errBoom })
	b.Execute(func() error { return nil })
	b.Execute(func() error { return errBoom })
	b.Execute(func() error { return errBoom })

	if b.State() != StateClosed {
		t.Errorf("state = %s, want CLOSED; non-consecutive failures must not trip", b.State())
	}
}
