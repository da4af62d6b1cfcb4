// Package market classifies wall-clock time into trading sessions for the
// watcher. Everything is a pure function of the supplied time; the analytics
// engine itself never consults these.
package market

import (
	"fmt"
	"time"

	"optionwatch/internal/errors"
)

// State is the session classification for one venue.
type State string

const (
	StateClosed     State = "CLOSED"
	StatePreMarket  State = "PRE_MARKET"
	StateRegular    State = "REGULAR_HOURS"
	StateAfterHours State = "AFTER_HOURS"
	StateOpen       State = "OPEN" // continuous venues
)

// Hours describes one venue's daily schedule as "HH:MM" local clock times.
type Hours struct {
	Open           string
	Close          string
	PreMarketStart string
	AfterHoursEnd  string
}

// DefaultHours is the US equity session.
func DefaultHours() Hours {
	return Hours{
		Open:           "09:30",
		Close:          "16:00",
		PreMarketStart: "04:00",
		AfterHoursEnd:  "20:00",
	}
}

// Validate checks that every field parses as a clock time.
func (h Hours) Validate() error {
	for _, v := range []string{h.Open, h.Close, h.PreMarketStart, h.AfterHoursEnd} {
		if _, err := parseClock(v); err != nil {
			return err
		}
	}
	return nil
}

// Continuous reports whether the venue never closes. Crypto venues trade
// around the clock.
func Continuous(venue string) bool {
	return venue == "CRYPTO"
}

// StateAt classifies the supplied time for a venue. Weekends are closed for
// non-continuous venues.
func StateAt(now time.Time, venue string, h Hours) (State, error) {
	if Continuous(venue) {
		return StateOpen, nil
	}
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return StateClosed, nil
	}

	open, err := parseClock(h.Open)
	if err != nil {
		return StateClosed, err
	}
	close, err := parseClock(h.Close)
	if err != nil {
		return StateClosed, err
	}
	pre, err := parseClock(h.PreMarketStart)
	if err != nil {
		return StateClosed, err
	}
	after, err := parseClock(h.AfterHoursEnd)
	if err != nil {
		return StateClosed, err
	}

	minute := now.Hour()*60 + now.Minute()
	switch {
	case minute < pre || minute > after:
		return StateClosed, nil
	case minute < open:
		return StatePreMarket, nil
	case minute > close:
		return StateAfterHours, nil
	default:
		return StateRegular, nil
	}
}

// InSession reports whether the venue is in its regular session (or always
// open for continuous venues).
func InSession(now time.Time, venue string, h Hours) (bool, error) {
	state, err := StateAt(now, venue, h)
	if err != nil {
		return false, err
	}
	return state == StateRegular || state == StateOpen, nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, errors.Wrapf(errors.ErrConfigInvalid, "clock time %q", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, errors.Wrapf(errors.ErrConfigInvalid, "clock time %q out of range", s)
	}
	return hh*60 + mm, nil
}
