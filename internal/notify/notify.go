// Package notify carries structured engine output to the reporting layer.
// The engine returns breach data as values; how those values reach a human
// (terminal, webhook, queue) is a collaborator concern behind the Notifier
// interface.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"optionwatch/internal/models"
)

// Notifier delivers notifications to one destination.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Notification is one message to the reporting layer.
type Notification struct {
	Type      NotificationType
	Symbol    string
	Title     string
	Message   string
	Timestamp time.Time
}

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationBreach  NotificationType = "breach"
	NotificationSummary NotificationType = "summary"
	NotificationError   NotificationType = "error"
)

// FromReport formats a risk report into a notification: a summary when the
// report is clean, a breach message otherwise.
func FromReport(symbol string, r models.RiskReport) Notification {
	n := Notification{
		Type:      NotificationSummary,
		Symbol:    symbol,
		Title:     fmt.Sprintf("Risk summary: %s", symbol),
		Timestamp: r.AsOf,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "mark %.2f | delta %.2f gamma %.4f theta %.2f vega %.2f\n",
		r.PortfolioMark, r.Greeks.Delta, r.Greeks.Gamma, r.Greeks.Theta, r.Greeks.Vega)
	for _, sc := range r.Scenarios {
		fmt.Fprintf(&b, "  %-20s %+.2f\n", sc.Name, sc.PnL)
	}

	if r.Breached() {
		n.Type = NotificationBreach
		n.Title = fmt.Sprintf("Risk limits breached: %s", symbol)
		for _, br := range r.Breaches {
			if br.Scenario != "" {
				fmt.Fprintf(&b, "  BREACH %s [%s]: %.2f exceeds %.2f\n", br.Limit, br.Scenario, br.Value, br.Max)
			} else {
				fmt.Fprintf(&b, "  BREACH %s: %.2f exceeds %.2f\n", br.Limit, br.Value, br.Max)
			}
		}
	}

	n.Message = b.String()
	return n
}

// Multi fans a notification out to several notifiers, returning the first
// error after attempting all of them.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, n Notification) error {
	var first error
	for _, nt := range m {
		if err := nt.Send(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
