// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"
)

// FormatUSD formats a dollar amount with thousands separators.
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	result := s[n-3:]
	s = s[:n-3]
	for len(s) > 3 {
		result = s[len(s)-3:] + "," + result
		s = s[:len(s)-3]
	}
	return s + "," + result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats P&L with a leading sign.
func FormatPnL(pnl float64) string {
	formatted := FormatUSD(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatGreek formats a greek value to four decimals, trimming noise on
// large aggregates.
func FormatGreek(value float64) string {
	if value >= 1000 || value <= -1000 {
		return fmt.Sprintf("%.1f", value)
	}
	return fmt.Sprintf("%.4f", value)
}

// FormatQuantity formats a signed quantity with thousands separators.
func FormatQuantity(qty int64) string {
	if qty < 0 {
		return "-" + groupThousands(fmt.Sprintf("%d", -qty))
	}
	return groupThousands(fmt.Sprintf("%d", qty))
}

// FormatVol formats a volatility as a percentage.
func FormatVol(vol float64) string {
	return fmt.Sprintf("%.2f%%", vol*100)
}
