package integrity

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frye/navtool-sub009/errors"
)

// Registry classifies freshly computed dataset hashes against trusted
// records. Reads are served from an in-memory cache loaded at open; every
// mutation is written through to the store before the cache is updated, so a
// crash loses at most the record not yet written.
//
// The load queue already serializes loader invocations, but the registry does
// not rely on that: per-chart mutual exclusion makes concurrent
// Classify+Commit pairs for the same chart safe when the registry is used
// directly (tests, tooling).
type Registry struct {
	store  *Store
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	cache    map[string]*Record
	keyLocks map[string]*sync.Mutex
}

// OpenRegistry creates a registry over the given database and warms the
// cache from durable storage.
func OpenRegistry(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) (*Registry, error) {
	r := &Registry{
		store:    NewStore(db),
		logger:   logger,
		cache:    make(map[string]*Record),
		keyLocks: make(map[string]*sync.Mutex),
	}

	records, err := r.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to warm integrity cache")
	}
	for _, rec := range records {
		r.cache[rec.ChartID] = rec
	}

	if logger != nil {
		logger.Debugw("Integrity registry opened", "records", len(records))
	}
	return r, nil
}

// Lookup returns a copy of the trusted record for a chart, or nil when the
// chart has never been observed.
func (r *Registry) Lookup(chartID string) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.cache[chartID]
	if !ok {
		return nil
	}
	copied := *rec
	if rec.LastVerifiedAt != nil {
		t := *rec.LastVerifiedAt
		copied.LastVerifiedAt = &t
	}
	return &copied
}

// Classify compares a computed hash against the trusted record for chartID.
//
//   - No record: FirstObservation. The caller must Commit the hash to
//     capture trust.
//   - Equal hashes: Match; last_verified_at is bumped as a side effect.
//   - Different hashes: Mismatch; the stored record is left untouched.
func (r *Registry) Classify(ctx context.Context, chartID, computedHash string) (Classification, error) {
	if !ValidHash(computedHash) {
		return "", errors.Newf("malformed content hash for %s: %q", chartID, computedHash)
	}

	lock := r.keyLock(chartID)
	lock.Lock()
	defer lock.Unlock()

	rec := r.Lookup(chartID)
	if rec == nil {
		return FirstObservation, nil
	}

	if rec.ContentHash != computedHash {
		if r.logger != nil {
			r.logger.Warnw("Integrity mismatch",
				"chart_id", chartID,
				"expected_hash", rec.ContentHash,
				"computed_hash", computedHash,
			)
		}
		return Mismatch, nil
	}

	now := time.Now()
	if err := r.store.TouchVerified(ctx, chartID, now); err != nil {
		return "", err
	}

	r.mu.Lock()
	if cached, ok := r.cache[chartID]; ok {
		cached.LastVerifiedAt = &now
	}
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debugw("Integrity verified", "chart_id", chartID)
	}
	return Match, nil
}

// Commit captures first-use trust for a chart. Idempotent: committing the
// hash already on record is a no-op. Committing a different hash over an
// existing record is refused - a mismatch must surface as an error, never
// silently replace the trusted hash.
func (r *Registry) Commit(ctx context.Context, chartID, computedHash string) error {
	if !ValidHash(computedHash) {
		return errors.Newf("malformed content hash for %s: %q", chartID, computedHash)
	}

	lock := r.keyLock(chartID)
	lock.Lock()
	defer lock.Unlock()

	if existing := r.Lookup(chartID); existing != nil {
		if existing.ContentHash == computedHash {
			return nil
		}
		err := errors.Wrapf(errors.ErrIntegrityMismatch,
			"refusing to replace trusted hash for %s", chartID)
		return errors.WithHint(err, "remove the record explicitly if the chart was legitimately re-issued")
	}

	rec := &Record{
		ChartID:         chartID,
		ContentHash:     computedHash,
		FirstObservedAt: time.Now(),
	}
	if err := r.store.Insert(ctx, rec); err != nil {
		return err
	}

	r.mu.Lock()
	r.cache[chartID] = rec
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Infow("Captured first-use trust",
			"chart_id", chartID,
			"content_hash", computedHash,
		)
	}
	return nil
}

// List returns copies of all trusted records ordered by chart ID
func (r *Registry) List() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*Record, 0, len(r.cache))
	for _, rec := range r.cache {
		copied := *rec
		if rec.LastVerifiedAt != nil {
			t := *rec.LastVerifiedAt
			copied.LastVerifiedAt = &t
		}
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ChartID < records[j].ChartID })
	return records
}

// keyLock returns the mutex guarding a single chart ID
func (r *Registry) keyLock(chartID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.keyLocks[chartID]
	if !ok {
		lock = &sync.Mutex{}
		r.keyLocks[chartID] = lock
	}
	return lock
}
