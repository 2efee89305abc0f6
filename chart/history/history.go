// Package history records the terminal outcome of every chart load request
// in the load_history table. The queue writes one entry per completed load;
// the CLI reads recent entries back for diagnostics.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/frye/navtool-sub009/chart/loader"
	"github.com/frye/navtool-sub009/errors"
)

// Load statuses as stored in the status column
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Entry is one recorded load outcome
type Entry struct {
	RequestID   string        `json:"request_id"`
	ChartID     string        `json:"chart_id"`
	ArchivePath string        `json:"archive_path"`
	Status      string        `json:"status"`
	ErrorKind   string        `json:"error_kind,omitempty"`
	RetryCount  int           `json:"retry_count"`
	Duration    time.Duration `json:"duration"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// Store handles persistence of load outcomes in the load_history table
type Store struct {
	db *sql.DB
}

// NewStore creates a load history store backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record writes the terminal outcome of one load request
func (s *Store) Record(ctx context.Context, result *loader.Result) error {
	if result == nil || result.Request == nil {
		return errors.New("cannot record a nil load result")
	}

	status := StatusSucceeded
	var errorKind *string
	if !result.Succeeded() {
		status = StatusFailed
		kind := string(result.Err.Kind)
		errorKind = &kind
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO load_history (request_id, chart_id, archive_path, status, error_kind, retry_count, duration_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Request.RequestID,
		result.Request.ChartID,
		result.Request.ArchivePath,
		status,
		errorKind,
		result.RetryCount,
		result.Duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to record load outcome for %s", result.Request.ChartID)
	}
	return nil
}

// List returns the most recent load outcomes, newest first, up to limit
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, chart_id, archive_path, status, error_kind, retry_count, duration_ms, finished_at
		FROM load_history ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list load history")
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var errorKind sql.NullString
		var durationMS int64
		var finishedAt string

		if err := rows.Scan(&e.RequestID, &e.ChartID, &e.ArchivePath, &e.Status, &errorKind, &e.RetryCount, &durationMS, &finishedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan load history entry")
		}
		if errorKind.Valid {
			e.ErrorKind = errorKind.String
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond

		e.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid finished_at timestamp for %s: %s", e.RequestID, finishedAt)
		}

		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ListForChart returns the most recent load outcomes for one chart, newest first
func (s *Store) ListForChart(ctx context.Context, chartID string, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, chart_id, archive_path, status, error_kind, retry_count, duration_ms, finished_at
		FROM load_history WHERE chart_id = ? ORDER BY finished_at DESC LIMIT ?`, chartID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list load history for %s", chartID)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var errorKind sql.NullString
		var durationMS int64
		var finishedAt string

		if err := rows.Scan(&e.RequestID, &e.ChartID, &e.ArchivePath, &e.Status, &errorKind, &e.RetryCount, &durationMS, &finishedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan load history entry")
		}
		if errorKind.Valid {
			e.ErrorKind = errorKind.String
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond

		e.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid finished_at timestamp for %s: %s", e.RequestID, finishedAt)
		}

		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
