package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"optionwatch/internal/errors"
	"optionwatch/internal/models"
)

// SQLiteJournal implements ReportJournal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the journal database.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

func (j *SQLiteJournal) initSchema() error {
	schema := `
	-- Risk reports, one row per evaluation
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		as_of DATETIME NOT NULL,
		mark REAL NOT NULL,
		delta REAL NOT NULL,
		gamma REAL NOT NULL,
		theta REAL NOT NULL,
		vega REAL NOT NULL,
		rho REAL NOT NULL,
		scenarios TEXT NOT NULL,
		breached INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_reports_symbol_asof ON reports(symbol, as_of);

	-- Breach events, denormalized for quick review queries
	CREATE TABLE IF NOT EXISTS breaches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id INTEGER NOT NULL REFERENCES reports(id),
		symbol TEXT NOT NULL,
		as_of DATETIME NOT NULL,
		limit_name TEXT NOT NULL,
		scenario TEXT,
		value REAL NOT NULL,
		max_allowed REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_breaches_symbol_asof ON breaches(symbol, as_of);
	`
	_, err := j.db.Exec(schema)
	return err
}

// SaveReport stores the report and its breaches in one transaction.
func (j *SQLiteJournal) SaveReport(ctx context.Context, symbol string, report models.RiskReport) error {
	scenarios, err := json.Marshal(report.Scenarios)
	if err != nil {
		return errors.Wrap(err, "encoding scenarios")
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrDatabaseError, err.Error())
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO reports (symbol, as_of, mark, delta, gamma, theta, vega, rho, scenarios, breached)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		symbol, report.AsOf, report.PortfolioMark,
		report.Greeks.Delta, report.Greeks.Gamma, report.Greeks.Theta,
		report.Greeks.Vega, report.Greeks.Rho,
		string(scenarios), report.Breached())
	if err != nil {
		return errors.Wrap(errors.ErrDatabaseError, err.Error())
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(errors.ErrDatabaseError, err.Error())
	}

	for _, br := range report.Breaches {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO breaches (report_id, symbol, as_of, limit_name, scenario, value, max_allowed)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			reportID, symbol, report.AsOf, br.Limit, br.Scenario, br.Value, br.Max); err != nil {
			return errors.Wrap(errors.ErrDatabaseError, err.Error())
		}
	}
	return tx.Commit()
}

// GetReports returns stored reports matching the filter, newest first.
func (j *SQLiteJournal) GetReports(ctx context.Context, filter ReportFilter) ([]ReportRecord, error) {
	query := `SELECT id, symbol, as_of, mark, delta, gamma, theta, vega, rho, scenarios, breached, created_at
		FROM reports WHERE 1=1`
	var args []interface{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if !filter.Start.IsZero() {
		query += " AND as_of >= ?"
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		query += " AND as_of <= ?"
		args = append(args, filter.End)
	}
	if filter.BreachedOnly {
		query += " AND breached = 1"
	}
	query += " ORDER BY as_of DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError, err.Error())
	}
	defer rows.Close()

	var out []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		var scenarios string
		var breached int
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Report.AsOf, &rec.Report.PortfolioMark,
			&rec.Report.Greeks.Delta, &rec.Report.Greeks.Gamma, &rec.Report.Greeks.Theta,
			&rec.Report.Greeks.Vega, &rec.Report.Greeks.Rho,
			&scenarios, &breached, &rec.SavedAt); err != nil {
			return nil, errors.Wrap(errors.ErrDatabaseError, err.Error())
		}
		if err := json.Unmarshal([]byte(scenarios), &rec.Report.Scenarios); err != nil {
			return nil, errors.Wrap(err, "decoding scenarios")
		}
		rec.Breached = breached == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetBreaches returns breach events for a symbol since the given time.
func (j *SQLiteJournal) GetBreaches(ctx context.Context, symbol string, since time.Time) ([]models.Breach, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT limit_name, scenario, value, max_allowed
		FROM breaches WHERE symbol = ? AND as_of >= ? ORDER BY as_of DESC`,
		symbol, since)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError, err.Error())
	}
	defer rows.Close()

	var out []models.Breach
	for rows.Next() {
		var br models.Breach
		var scenario sql.NullString
		if err := rows.Scan(&br.Limit, &scenario, &br.Value, &br.Max); err != nil {
			return nil, errors.Wrap(errors.ErrDatabaseError, err.Error())
		}
		br.Scenario = scenario.String
		out = append(out, br)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
