package discovery

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/chart/loader"
)

type recordingQueue struct {
	mu       sync.Mutex
	requests []*chart.LoadRequest
}

func (q *recordingQueue) Enqueue(req *chart.LoadRequest) (<-chan *loader.Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requests = append(q.requests, req)
	ch := make(chan *loader.Result, 1)
	ch <- &loader.Result{Request: req, Chart: &loader.DecodedChart{ChartID: req.ChartID}}
	close(ch)
	return ch, nil
}

func (q *recordingQueue) enqueued() []*chart.LoadRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*chart.LoadRequest, len(q.requests))
	copy(out, q.requests)
	return out
}

func writeArchive(t *testing.T, path string, cells ...string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, cell := range cells {
		f, err := w.Create("ENC_ROOT/" + cell + "/" + cell + ".000")
		require.NoError(t, err)
		_, err = f.Write([]byte("dataset for " + cell))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestWatcherEnqueuesSettledArchive(t *testing.T) {
	dir := t.TempDir()
	q := &recordingQueue{}
	w := New(dir, q, nil, WithSettle(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- w.Run(ctx) }()

	// Give the watcher a moment to register before dropping the file
	time.Sleep(100 * time.Millisecond)
	writeArchive(t, filepath.Join(dir, "wk35.zip"), "US5WA50M", "US4AK4P0")

	require.Eventually(t, func() bool {
		return len(q.enqueued()) == 2
	}, 5*time.Second, 20*time.Millisecond)

	requests := q.enqueued()
	ids := []string{requests[0].ChartID, requests[1].ChartID}
	assert.ElementsMatch(t, []string{"US5WA50M", "US4AK4P0"}, ids)
	for _, req := range requests {
		assert.Equal(t, filepath.Join(dir, "wk35.zip"), req.ArchivePath)
	}

	cancel()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestWatcherIgnoresNonArchives(t *testing.T) {
	dir := t.TempDir()
	q := &recordingQueue{}
	w := New(dir, q, nil, WithSettle(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a chart"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, q.enqueued())
}

func TestWatcherSkipsEmptyArchives(t *testing.T) {
	dir := t.TempDir()
	q := &recordingQueue{}
	w := New(dir, q, nil, WithSettle(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	writeArchive(t, filepath.Join(dir, "empty.zip"))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, q.enqueued())
}

func TestWatcherFailsOnMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "does-not-exist"), &recordingQueue{}, nil)
	err := w.Run(context.Background())
	require.Error(t, err)
}
