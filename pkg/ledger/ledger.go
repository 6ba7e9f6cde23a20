// Package ledger is the durable, append-only store of routing outcomes.
//
// Every aggregation query runs against the current database state; there is
// no caching layer between callers and the store. SQLite serializes
// concurrent appends and reads so no record is lost or observed
// half-written.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tierline-ai/tierline/pkg/models"
)

// ErrInvalidRecord is returned when a malformed usage record is rejected.
var ErrInvalidRecord = errors.New("invalid usage record")

// Filter narrows aggregation queries. Zero-valued fields are ignored.
type Filter struct {
	Department string
	Project    string
	Model      string
	Since      time.Time
	Until      time.Time
}

// Ledger records and queries usage.
type Ledger interface {
	// Log validates and appends a usage record, returning its ID.
	Log(ctx context.Context, rec models.UsageRecord) (int64, error)
	// LogBatch appends multiple records in one transaction.
	LogBatch(ctx context.Context, recs []models.UsageRecord) error
	// TotalCost returns the summed cost of matching records.
	TotalCost(ctx context.Context, f Filter) (float64, error)
	// CostsByDepartment, CostsByProject, and CostsByModel return grouped
	// summaries ordered by total cost descending, entity key ascending.
	CostsByDepartment(ctx context.Context, f Filter) ([]models.CostSummary, error)
	CostsByProject(ctx context.Context, f Filter) ([]models.CostSummary, error)
	CostsByModel(ctx context.Context, f Filter) ([]models.CostSummary, error)
	// DailyCosts returns per-day totals for the past days, oldest first.
	DailyCosts(ctx context.Context, days int, department string) ([]models.DailyCost, error)
	// TopDepartments returns the n highest-spending departments.
	TopDepartments(ctx context.Context, n int) ([]models.CostSummary, error)
	// EntitySpend returns total spend for a department since a given time.
	EntitySpend(ctx context.Context, entity string, since time.Time) (float64, error)
	// RecordCount returns the number of logged records.
	RecordCount(ctx context.Context) (int64, error)
	// Close releases resources.
	Close() error
}

// SQLiteLedger implements Ledger with a SQLite database.
type SQLiteLedger struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS usage_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	model TEXT NOT NULL,
	department TEXT NOT NULL DEFAULT 'default',
	project TEXT NOT NULL DEFAULT 'default',
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cost REAL NOT NULL DEFAULT 0,
	latency_ms REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_department ON usage_records(department, created_at);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model);
CREATE INDEX IF NOT EXISTS idx_usage_created ON usage_records(created_at);
`

// dsnParams applies WAL and a busy timeout per connection, and stores
// time.Time values in a format SQLite's date functions can parse.
const dsnParams = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// New opens (or creates) the ledger database and runs auto-migration.
func New(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	// A single connection serializes writers so concurrent appends queue
	// instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

func validate(rec models.UsageRecord) error {
	switch {
	case rec.Model == "":
		return fmt.Errorf("%w: empty model", ErrInvalidRecord)
	case rec.InputTokens < 0 || rec.OutputTokens < 0:
		return fmt.Errorf("%w: negative token count", ErrInvalidRecord)
	case rec.Cost < 0:
		return fmt.Errorf("%w: negative cost", ErrInvalidRecord)
	case rec.LatencyMs < 0:
		return fmt.Errorf("%w: negative latency", ErrInvalidRecord)
	}
	return nil
}

// normalize fills defaulted accounting dimensions and the timestamp.
func normalize(rec models.UsageRecord) models.UsageRecord {
	if rec.Department == "" {
		rec.Department = "default"
	}
	if rec.Project == "" {
		rec.Project = "default"
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

// Log validates and appends a usage record.
func (l *SQLiteLedger) Log(ctx context.Context, rec models.UsageRecord) (int64, error) {
	if err := validate(rec); err != nil {
		return 0, err
	}
	rec = normalize(rec)

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO usage_records (model, department, project, input_tokens, output_tokens, cost, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Model, rec.Department, rec.Project, rec.InputTokens, rec.OutputTokens,
		rec.Cost, rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("log usage: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("log usage: %w", err)
	}
	return id, nil
}

// LogBatch appends records in one transaction; either all are stored or
// none are.
func (l *SQLiteLedger) LogBatch(ctx context.Context, recs []models.UsageRecord) error {
	for _, rec := range recs {
		if err := validate(rec); err != nil {
			return err
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("log batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO usage_records (model, department, project, input_tokens, output_tokens, cost, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("log batch: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		rec = normalize(rec)
		if _, err := stmt.ExecContext(ctx,
			rec.Model, rec.Department, rec.Project, rec.InputTokens, rec.OutputTokens,
			rec.Cost, rec.LatencyMs, rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("log batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("log batch: %w", err)
	}
	return nil
}

// where builds the WHERE clause for a filter.
func (f Filter) where() (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	if f.Department != "" {
		clause += " AND department = ?"
		args = append(args, f.Department)
	}
	if f.Project != "" {
		clause += " AND project = ?"
		args = append(args, f.Project)
	}
	if f.Model != "" {
		clause += " AND model = ?"
		args = append(args, f.Model)
	}
	if !f.Since.IsZero() {
		clause += " AND created_at >= ?"
		args = append(args, f.Since)
	}
	if !f.Until.IsZero() {
		clause += " AND created_at <= ?"
		args = append(args, f.Until)
	}
	return clause, args
}

// TotalCost returns the summed cost of matching records; zero for an empty
// match set.
func (l *SQLiteLedger) TotalCost(ctx context.Context, f Filter) (float64, error) {
	where, args := f.where()
	var total float64
	err := l.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cost), 0) FROM usage_records`+where, args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total cost: %w", err)
	}
	return total, nil
}

func (l *SQLiteLedger) costsBy(ctx context.Context, column string, f Filter, limit int) ([]models.CostSummary, error) {
	where, args := f.where()
	query := `SELECT ` + column + `, SUM(cost), COUNT(*), SUM(input_tokens), SUM(output_tokens), SUM(latency_ms)
		 FROM usage_records` + where +
		` GROUP BY ` + column + ` ORDER BY SUM(cost) DESC, ` + column + ` ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("costs by %s: %w", column, err)
	}
	defer rows.Close()

	var out []models.CostSummary
	for rows.Next() {
		var s models.CostSummary
		var totalLatency float64
		if err := rows.Scan(&s.Entity, &s.TotalCost, &s.RequestCount,
			&s.TotalInputTokens, &s.TotalOutputTokens, &totalLatency); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if s.RequestCount > 0 {
			s.AvgCostPerRequest = s.TotalCost / float64(s.RequestCount)
			s.AvgLatencyMs = totalLatency / float64(s.RequestCount)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CostsByDepartment returns grouped summaries per department.
func (l *SQLiteLedger) CostsByDepartment(ctx context.Context, f Filter) ([]models.CostSummary, error) {
	return l.costsBy(ctx, "department", f, 0)
}

// CostsByProject returns grouped summaries per project.
func (l *SQLiteLedger) CostsByProject(ctx context.Context, f Filter) ([]models.CostSummary, error) {
	return l.costsBy(ctx, "project", f, 0)
}

// CostsByModel returns grouped summaries per model.
func (l *SQLiteLedger) CostsByModel(ctx context.Context, f Filter) ([]models.CostSummary, error) {
	return l.costsBy(ctx, "model", f, 0)
}

// TopDepartments returns the n highest-spending departments, ties broken
// by department name.
func (l *SQLiteLedger) TopDepartments(ctx context.Context, n int) ([]models.CostSummary, error) {
	if n <= 0 {
		return nil, nil
	}
	return l.costsBy(ctx, "department", Filter{}, n)
}

// DailyCosts returns per-day totals for the past days, oldest first.
func (l *SQLiteLedger) DailyCosts(ctx context.Context, days int, department string) ([]models.DailyCost, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	query := `SELECT DATE(created_at), SUM(cost), COUNT(*) FROM usage_records WHERE created_at >= ?`
	args := []any{since}
	if department != "" {
		query += ` AND department = ?`
		args = append(args, department)
	}
	query += ` GROUP BY DATE(created_at) ORDER BY DATE(created_at) ASC`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("daily costs: %w", err)
	}
	defer rows.Close()

	var out []models.DailyCost
	for rows.Next() {
		var d models.DailyCost
		if err := rows.Scan(&d.Date, &d.TotalCost, &d.RequestCount); err != nil {
			return nil, fmt.Errorf("scan daily cost: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// EntitySpend returns total spend for a department since a given time.
func (l *SQLiteLedger) EntitySpend(ctx context.Context, entity string, since time.Time) (float64, error) {
	var total float64
	err := l.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cost), 0) FROM usage_records WHERE department = ? AND created_at >= ?`,
		entity, since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("entity spend: %w", err)
	}
	return total, nil
}

// RecordCount returns the number of logged records.
func (l *SQLiteLedger) RecordCount(ctx context.Context) (int64, error) {
	var n int64
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_records`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("record count: %w", err)
	}
	return n, nil
}

// Close releases the database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
