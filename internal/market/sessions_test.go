package market

import (
	"testing"
	"time"

	"optionwatch/internal/errors"
)

// 2025-06-02 is a Monday.
func clock(hh, mm int) time.Time {
	return time.Date(2025, 6, 2, hh, mm, 0, 0, time.UTC)
}

func TestStateAtUSVenue(t *testing.T) {
	h := DefaultHours()
	tests := []struct {
		name string
		at   time.Time
		want State
	}{
		{"overnight", clock(2, 0), StateClosed},
		{"pre-market start", clock(4, 0), StatePreMarket},
		{"late pre-market", clock(9, 29), StatePreMarket},
		{"open bell", clock(9, 30), StateRegular},
		{"midday", clock(12, 30), StateRegular},
		{"closing bell", clock(16, 0), StateRegular},
		{"after hours", clock(16, 1), StateAfterHours},
		{"after hours end", clock(20, 0), StateAfterHours},
		{"evening", clock(21, 0), StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StateAt(tt.at, "US", h)
			if err != nil {
				t.Fatalf("StateAt: %v", err)
			}
			if got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWeekendsAreClosed(t *testing.T) {
	saturday := time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{saturday, sunday} {
		got, err := StateAt(at, "US", DefaultHours())
		if err != nil {
			t.Fatalf("StateAt: %v", err)
		}
		if got != StateClosed {
			t.Errorf("%s: state = %s, want CLOSED", at.Weekday(), got)
		}
	}
}

func TestCryptoIsAlwaysOpen(t *testing.T) {
	times := []time.Time{
		clock(3, 0),
		time.Date(2025, 6, 7, 23, 59, 0, 0, time.UTC), // Saturday night
	}
	for _, at := range times {
		got, err := StateAt(at, "CRYPTO", DefaultHours())
		if err != nil {
			t.Fatalf("StateAt: %v", err)
		}
		if got != StateOpen {
			t.Errorf("crypto at %v: state = %s, want OPEN", at, got)
		}
	}

	in, err := InSession(clock(3, 0), "CRYPTO", DefaultHours())
	if err != nil || !in {
		t.Errorf("InSession = %v, %v; crypto should always be in session", in, err)
	}
}

func TestInSession(t *testing.T) {
	in, err := InSession(clock(10, 0), "US", DefaultHours())
	if err != nil || !in {
		t.Errorf("10:00 Monday: in = %v, err = %v, want in session", in, err)
	}
	in, err = InSession(clock(8, 0), "US", DefaultHours())
	if err != nil || in {
		t.Errorf("08:00 Monday: in = %v, err = %v, want out of session", in, err)
	}
}

func TestHoursValidation(t *testing.T) {
	good := DefaultHours()
	if err := good.Validate(); err != nil {
		t.Errorf("default hours invalid: %v", err)
	}

	tests := []struct {
		name string
		h    Hours
	}{
		{"garbage", Hours{Open: "open", Close: "16:00", PreMarketStart: "04:00", AfterHoursEnd: "20:00"}},
		{"hour out of range", Hours{Open: "25:00", Close: "16:00", PreMarketStart: "04:00", AfterHoursEnd: "20:00"}},
		{"minute out of range", Hours{Open: "09:75", Close: "16:00", PreMarketStart: "04:00", AfterHoursEnd: "20:00"}},
		{"empty", Hours{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.h.Validate(); !errors.Is(err, errors.ErrConfigInvalid) {
				t.Errorf("err = %v, want ErrConfigInvalid", err)
			}
		})
	}
}
