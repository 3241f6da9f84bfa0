// Package store implements the embedded relational persistence layer:
// a single SQLite file holding check results and alert history, with
// single-writer discipline and path-allow-list enforcement per
// spec.md §4.3.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veris-memory/sentinel/internal/result"
)

const schema = `
CREATE TABLE IF NOT EXISTS check_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	check_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	status TEXT NOT NULL,
	latency_ms REAL NOT NULL,
	message TEXT,
	details TEXT,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_check_results_timestamp ON check_results(timestamp);
CREATE INDEX IF NOT EXISTS idx_check_results_check_id ON check_results(check_id);

CREATE TABLE IF NOT EXISTS alert_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	check_id TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	message TEXT,
	timestamp TEXT NOT NULL,
	resolved_at TEXT,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_alert_history_timestamp ON alert_history(timestamp);
`

// Store wraps the embedded SQLite file. All writes funnel through a
// single connection (SetMaxOpenConns(1)) to satisfy the single-writer
// discipline spec.md §5 requires; modernc.org/sqlite is pure Go, so no
// cgo is pulled in.
type Store struct {
	db *sql.DB
}

// Open validates path against the allow-list, creates its parent
// directory if needed, and opens (creating if absent) the SQLite file,
// applying the schema.
func Open(path string) (*Store, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// StoreResult inserts one row. The timestamp is canonicalized to
// ISO-8601 UTC; details are JSON-encoded. Only the closed status set is
// accepted — anything else is rejected rather than silently normalized,
// per spec.md §3.
func (s *Store) StoreResult(ctx context.Context, r result.Result) error {
	if !r.Status.Valid() {
		return fmt.Errorf("store: invalid status %q for check %q", r.Status, r.CheckID)
	}

	detailsJSON, err := json.Marshal(r.Details)
	if err != nil {
		return fmt.Errorf("store: encoding details: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO check_results (check_id, timestamp, status, latency_ms, message, details) VALUES (?, ?, ?, ?, ?, ?)`,
		r.CheckID, r.Timestamp.UTC().Format(time.RFC3339Nano), string(r.Status), r.LatencyMS, r.Message, string(detailsJSON),
	)
	if err != nil {
		return fmt.Errorf("store: inserting result: %w", err)
	}
	return nil
}

// CountRecentFailures returns the number of fail rows for checkID newer
// than now-window.
func (s *Store) CountRecentFailures(ctx context.Context, checkID string, window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window).UTC().Format(time.RFC3339Nano)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM check_results WHERE check_id = ? AND status = 'fail' AND timestamp >= ?`,
		checkID, cutoff,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: counting recent failures: %w", err)
	}
	return count, nil
}

// QueryHistory returns the limit most recent results for checkID,
// newest first.
func (s *Store) QueryHistory(ctx context.Context, checkID string, limit int) ([]result.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT check_id, timestamp, status, latency_ms, message, details FROM check_results WHERE check_id = ? ORDER BY timestamp DESC LIMIT ?`,
		checkID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: querying history: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// QueryWindow returns every result newer than since, oldest first, used
// by the periodic summary generator.
func (s *Store) QueryWindow(ctx context.Context, since time.Time) ([]result.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT check_id, timestamp, status, latency_ms, message, details FROM check_results WHERE timestamp >= ? ORDER BY timestamp ASC`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("store: querying window: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]result.Result, error) {
	var out []result.Result
	for rows.Next() {
		var (
			r             result.Result
			status        string
			ts            string
			detailsJSON   sql.NullString
			message       sql.NullString
		)
		if err := rows.Scan(&r.CheckID, &ts, &status, &r.LatencyMS, &message, &detailsJSON); err != nil {
			return nil, fmt.Errorf("store: scanning result row: %w", err)
		}
		r.Status = result.Status(status)
		r.Message = message.String
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("store: parsing timestamp %q: %w", ts, err)
		}
		r.Timestamp = parsed

		if detailsJSON.Valid && detailsJSON.String != "" && detailsJSON.String != "null" {
			var details map[string]interface{}
			if err := json.Unmarshal([]byte(detailsJSON.String), &details); err == nil {
				r.Details = details
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AlertRecord is a row of alert_history as read back from persistence.
type AlertRecord struct {
	ID         int64
	CheckID    string
	AlertType  string
	Message    string
	Timestamp  time.Time
	ResolvedAt *time.Time
}

// StoreAlertEvent inserts an alert_history row and returns its ID.
func (s *Store) StoreAlertEvent(ctx context.Context, checkID, alertType, message string, ts time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_history (check_id, alert_type, message, timestamp) VALUES (?, ?, ?, ?)`,
		checkID, alertType, message, ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("store: inserting alert event: %w", err)
	}
	return res.LastInsertId()
}

// LatestOpenAlert returns the most recent alert_history row for checkID
// that has not been resolved, or nil if none is open.
func (s *Store) LatestOpenAlert(ctx context.Context, checkID string) (*AlertRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, check_id, alert_type, message, timestamp, resolved_at FROM alert_history WHERE check_id = ? AND resolved_at IS NULL ORDER BY timestamp DESC LIMIT 1`,
		checkID,
	)

	var (
		rec         AlertRecord
		ts          string
		resolvedAt  sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.CheckID, &rec.AlertType, &rec.Message, &ts, &resolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: querying latest open alert: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("store: parsing alert timestamp %q: %w", ts, err)
	}
	rec.Timestamp = parsed
	return &rec, nil
}

// ResolveAlert stamps resolved_at on the given alert_history row.
func (s *Store) ResolveAlert(ctx context.Context, id int64, resolvedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE alert_history SET resolved_at = ? WHERE id = ?`,
		resolvedAt.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("store: resolving alert %d: %w", id, err)
	}
	return nil
}
