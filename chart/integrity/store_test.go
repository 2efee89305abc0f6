package integrity

import (
	"context"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Store error paths are exercised against sqlmock so database failures can
// be simulated without touching a real file.

func TestStoreGetPropagatesQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT chart_id").WillReturnError(assert.AnError)

	store := NewStore(db)
	_, err = store.Get(context.Background(), "US5WA50M")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetRejectsBadTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hash := strings.Repeat("ab", 32)
	rows := sqlmock.NewRows([]string{"chart_id", "content_hash", "first_observed_at", "last_verified_at"}).
		AddRow("US5WA50M", hash, "not-a-timestamp", nil)
	mock.ExpectQuery("SELECT chart_id").WillReturnRows(rows)

	store := NewStore(db)
	_, err = store.Get(context.Background(), "US5WA50M")
	assert.Error(t, err)
}

func TestStoreInsertValidatesHash(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	err = store.Insert(context.Background(), &Record{
		ChartID:         "US5WA50M",
		ContentHash:     "short",
		FirstObservedAt: time.Now(),
	})
	assert.Error(t, err, "malformed hash must be rejected before hitting the database")
}

func TestStoreTouchVerifiedMissingRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE chart_integrity").WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewStore(db)
	err = store.TouchVerified(context.Background(), "US5WA50M", time.Now())
	assert.Error(t, err, "touching a nonexistent record must fail")
}
