package integrity

import (
	"context"
	"database/sql"
	"time"

	"github.com/frye/navtool-sub009/errors"
)

// Store handles persistence of integrity records in the chart_integrity table
type Store struct {
	db *sql.DB
}

// NewStore creates an integrity record store backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get retrieves the record for a chart, or nil when none exists
func (s *Store) Get(ctx context.Context, chartID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chart_id, content_hash, first_observed_at, last_verified_at
		FROM chart_integrity WHERE chart_id = ?`, chartID)

	var r Record
	var firstObserved string
	var lastVerified sql.NullString

	err := row.Scan(&r.ChartID, &r.ContentHash, &firstObserved, &lastVerified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read integrity record for %s", chartID)
	}

	r.FirstObservedAt, err = time.Parse(time.RFC3339Nano, firstObserved)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid first_observed_at timestamp for %s: %s", chartID, firstObserved)
	}
	if lastVerified.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastVerified.String)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid last_verified_at timestamp for %s: %s", chartID, lastVerified.String)
		}
		r.LastVerifiedAt = &t
	}

	return &r, nil
}

// Insert writes a brand-new record. Write-through: the row is durable when
// Insert returns.
func (s *Store) Insert(ctx context.Context, r *Record) error {
	if r.ChartID == "" {
		return errors.New("chart ID cannot be empty")
	}
	if !ValidHash(r.ContentHash) {
		return errors.Newf("malformed content hash for %s: %q", r.ChartID, r.ContentHash)
	}

	var lastVerified *string
	if r.LastVerifiedAt != nil {
		v := r.LastVerifiedAt.Format(time.RFC3339Nano)
		lastVerified = &v
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chart_integrity (chart_id, content_hash, first_observed_at, last_verified_at)
		VALUES (?, ?, ?, ?)`,
		r.ChartID, r.ContentHash, r.FirstObservedAt.Format(time.RFC3339Nano), lastVerified,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert integrity record for %s", r.ChartID)
	}
	return nil
}

// TouchVerified bumps last_verified_at for an existing record
func (s *Store) TouchVerified(ctx context.Context, chartID string, verifiedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE chart_integrity SET last_verified_at = ? WHERE chart_id = ?`,
		verifiedAt.Format(time.RFC3339Nano), chartID,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to record verification for %s", chartID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Newf("no integrity record for %s", chartID)
	}
	return nil
}

// List returns all integrity records ordered by chart ID
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chart_id, content_hash, first_observed_at, last_verified_at
		FROM chart_integrity ORDER BY chart_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list integrity records")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var r Record
		var firstObserved string
		var lastVerified sql.NullString

		if err := rows.Scan(&r.ChartID, &r.ContentHash, &firstObserved, &lastVerified); err != nil {
			return nil, errors.Wrap(err, "failed to scan integrity record")
		}

		r.FirstObservedAt, err = time.Parse(time.RFC3339Nano, firstObserved)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid first_observed_at timestamp for %s: %s", r.ChartID, firstObserved)
		}
		if lastVerified.Valid {
			t, err := time.Parse(time.RFC3339Nano, lastVerified.String)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid last_verified_at timestamp for %s: %s", r.ChartID, lastVerified.String)
			}
			r.LastVerifiedAt = &t
		}

		records = append(records, &r)
	}
	return records, rows.Err()
}
