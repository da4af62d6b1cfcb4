// Package store persists generated risk reports and breach events on behalf
// of the reporting layer. The engine core owns no persistence; this journal
// is the collaborator-side sink the watcher writes into.
package store

import (
	"context"
	"time"

	"optionwatch/internal/models"
)

// ReportJournal records risk reports and serves them back for review.
type ReportJournal interface {
	SaveReport(ctx context.Context, symbol string, report models.RiskReport) error
	GetReports(ctx context.Context, filter ReportFilter) ([]ReportRecord, error)
	GetBreaches(ctx context.Context, symbol string, since time.Time) ([]models.Breach, error)
	Close() error
}

// ReportFilter restricts a report query.
type ReportFilter struct {
	Symbol       string
	Start        time.Time
	End          time.Time
	BreachedOnly bool
	Limit        int
}

// ReportRecord is a stored report with its journal metadata.
type ReportRecord struct {
	ID       int64
	Symbol   string
	SavedAt  time.Time
	Report   models.RiskReport
	Breached bool
}
