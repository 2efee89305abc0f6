package integrity_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frye/navtool-sub009/chart/integrity"
	navtest "github.com/frye/navtool-sub009/internal/testing"
)

func openRegistry(t *testing.T) *integrity.Registry {
	t.Helper()
	db := navtest.CreateTestDB(t)
	reg, err := integrity.OpenRegistry(context.Background(), db, nil)
	require.NoError(t, err)
	return reg
}

func TestHashDataset(t *testing.T) {
	hash := integrity.HashDataset([]byte("chart bytes"))
	assert.Len(t, hash, 64)
	assert.Equal(t, strings.ToLower(hash), hash, "hash must be lowercase hex")
	assert.True(t, integrity.ValidHash(hash))

	// Deterministic
	assert.Equal(t, hash, integrity.HashDataset([]byte("chart bytes")))
	assert.NotEqual(t, hash, integrity.HashDataset([]byte("other bytes")))
}

func TestValidHash(t *testing.T) {
	assert.True(t, integrity.ValidHash(strings.Repeat("a0", 32)))
	assert.False(t, integrity.ValidHash(""))
	assert.False(t, integrity.ValidHash(strings.Repeat("a", 63)))
	assert.False(t, integrity.ValidHash(strings.Repeat("A", 64)), "uppercase hex is rejected")
	assert.False(t, integrity.ValidHash(strings.Repeat("g", 64)), "non-hex is rejected")
}

func TestFirstObservationThenMatch(t *testing.T) {
	reg := openRegistry(t)
	ctx := context.Background()
	hash := integrity.HashDataset([]byte("dataset B"))

	cls, err := reg.Classify(ctx, "US5WA50M", hash)
	require.NoError(t, err)
	assert.Equal(t, integrity.FirstObservation, cls)

	require.NoError(t, reg.Commit(ctx, "US5WA50M", hash))

	rec := reg.Lookup("US5WA50M")
	require.NotNil(t, rec)
	assert.Equal(t, hash, rec.ContentHash)
	assert.False(t, rec.FirstObservedAt.IsZero())
	assert.Nil(t, rec.LastVerifiedAt, "last_verified_at absent after first observation")

	cls, err = reg.Classify(ctx, "US5WA50M", hash)
	require.NoError(t, err)
	assert.Equal(t, integrity.Match, cls)

	rec = reg.Lookup("US5WA50M")
	require.NotNil(t, rec)
	require.NotNil(t, rec.LastVerifiedAt, "match must bump last_verified_at")
	assert.False(t, rec.LastVerifiedAt.Before(rec.FirstObservedAt))
}

func TestCommitIsIdempotent(t *testing.T) {
	reg := openRegistry(t)
	ctx := context.Background()
	hash := integrity.HashDataset([]byte("dataset"))

	require.NoError(t, reg.Commit(ctx, "US5WA50M", hash))
	require.NoError(t, reg.Commit(ctx, "US5WA50M", hash), "same-hash commit is a no-op")

	rec := reg.Lookup("US5WA50M")
	require.NotNil(t, rec)
	assert.Equal(t, hash, rec.ContentHash)
}

func TestCommitRefusesDifferentHash(t *testing.T) {
	reg := openRegistry(t)
	ctx := context.Background()
	h1 := integrity.HashDataset([]byte("original"))
	h2 := integrity.HashDataset([]byte("tampered"))

	require.NoError(t, reg.Commit(ctx, "US5WA50M", h1))
	err := reg.Commit(ctx, "US5WA50M", h2)
	require.Error(t, err, "trusted hash must never be silently replaced")

	rec := reg.Lookup("US5WA50M")
	require.NotNil(t, rec)
	assert.Equal(t, h1, rec.ContentHash)
}

func TestMismatchNeverMutates(t *testing.T) {
	reg := openRegistry(t)
	ctx := context.Background()
	h1 := integrity.HashDataset([]byte("original"))
	h2 := integrity.HashDataset([]byte("tampered"))

	require.NoError(t, reg.Commit(ctx, "US5WA50M", h1))

	cls, err := reg.Classify(ctx, "US5WA50M", h2)
	require.NoError(t, err)
	assert.Equal(t, integrity.Mismatch, cls)

	rec := reg.Lookup("US5WA50M")
	require.NotNil(t, rec)
	assert.Equal(t, h1, rec.ContentHash, "stored hash unchanged after mismatch")
	assert.Nil(t, rec.LastVerifiedAt, "mismatch must not bump last_verified_at")
}

func TestMalformedHashRejected(t *testing.T) {
	reg := openRegistry(t)
	ctx := context.Background()

	_, err := reg.Classify(ctx, "US5WA50M", "not-a-hash")
	assert.Error(t, err)

	err = reg.Commit(ctx, "US5WA50M", "not-a-hash")
	assert.Error(t, err)
}

func TestRegistryPersistsAcrossOpens(t *testing.T) {
	db := navtest.CreateTestDB(t)
	ctx := context.Background()
	hash := integrity.HashDataset([]byte("dataset"))

	reg1, err := integrity.OpenRegistry(ctx, db, nil)
	require.NoError(t, err)
	require.NoError(t, reg1.Commit(ctx, "US5WA50M", hash))

	// Fresh registry over the same database must see the committed record
	reg2, err := integrity.OpenRegistry(ctx, db, nil)
	require.NoError(t, err)

	rec := reg2.Lookup("US5WA50M")
	require.NotNil(t, rec)
	assert.Equal(t, hash, rec.ContentHash)

	cls, err := reg2.Classify(ctx, "US5WA50M", hash)
	require.NoError(t, err)
	assert.Equal(t, integrity.Match, cls)
}

func TestConcurrentClassifyCommitSameChart(t *testing.T) {
	reg := openRegistry(t)
	ctx := context.Background()
	hash := integrity.HashDataset([]byte("dataset"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cls, err := reg.Classify(ctx, "US5WA50M", hash)
			if err != nil {
				t.Errorf("Classify failed: %v", err)
				return
			}
			if cls == integrity.FirstObservation {
				if err := reg.Commit(ctx, "US5WA50M", hash); err != nil {
					t.Errorf("Commit failed: %v", err)
				}
			}
			if cls == integrity.Mismatch {
				t.Error("identical hash must never classify as mismatch")
			}
		}()
	}
	wg.Wait()

	rec := reg.Lookup("US5WA50M")
	require.NotNil(t, rec)
	assert.Equal(t, hash, rec.ContentHash)
}

func TestList(t *testing.T) {
	reg := openRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Commit(ctx, "US5WA50M", integrity.HashDataset([]byte("a"))))
	require.NoError(t, reg.Commit(ctx, "US4AK4P0", integrity.HashDataset([]byte("b"))))

	records := reg.List()
	require.Len(t, records, 2)
	assert.Equal(t, "US4AK4P0", records[0].ChartID, "records sorted by chart ID")
	assert.Equal(t, "US5WA50M", records[1].ChartID)
}
