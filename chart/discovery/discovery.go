// Package discovery watches a drop directory for chart archives and feeds
// the load queue.
//
// A new .zip is enqueued only after it has settled: no further writes for a
// quiet period, so half-copied archives are not picked up mid-transfer. One
// load request is enqueued per dataset cell found in the archive.
package discovery

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/chart/extract"
	"github.com/frye/navtool-sub009/chart/loader"
	"github.com/frye/navtool-sub009/errors"
)

// DefaultSettle is the quiet period before a new archive is considered
// complete
const DefaultSettle = 500 * time.Millisecond

// Enqueuer accepts load requests; satisfied by queue.Queue
type Enqueuer interface {
	Enqueue(req *chart.LoadRequest) (<-chan *loader.Result, error)
}

// Watcher enqueues every settled chart archive dropped into a directory
type Watcher struct {
	dir    string
	settle time.Duration
	queue  Enqueuer
	logger *zap.SugaredLogger

	readArchive func(path string) ([]byte, error)
}

// Option configures a Watcher
type Option func(*Watcher)

// WithSettle overrides the quiet period before an archive is enqueued
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithArchiveReader substitutes archive file reading (tests)
func WithArchiveReader(fn func(path string) ([]byte, error)) Option {
	return func(w *Watcher) { w.readArchive = fn }
}

// New creates a watcher over the given drop directory
func New(dir string, queue Enqueuer, logger *zap.SugaredLogger, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         dir,
		settle:      DefaultSettle,
		queue:       queue,
		logger:      logger,
		readArchive: os.ReadFile,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the drop directory until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create filesystem watcher")
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", w.dir)
	}
	if w.logger != nil {
		w.logger.Infow("Watching for chart archives", "dir", w.dir, "settle", w.settle)
	}

	settled := make(chan string, 16)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !isArchive(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if t, exists := timers[event.Name]; exists {
						t.Stop()
						delete(timers, event.Name)
					}
				}
				continue
			}

			// Writes restart the quiet period
			if t, exists := timers[event.Name]; exists {
				t.Reset(w.settle)
				continue
			}
			path := event.Name
			timers[path] = time.AfterFunc(w.settle, func() {
				select {
				case settled <- path:
				case <-ctx.Done():
				}
			})

		case path := <-settled:
			delete(timers, path)
			w.enqueueArchive(path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if w.logger != nil {
				w.logger.Errorw("Filesystem watcher error", "dir", w.dir, "error", err)
			}
		}
	}
}

// enqueueArchive enumerates the dataset cells of a settled archive and
// enqueues one load request per cell
func (w *Watcher) enqueueArchive(path string) {
	data, err := w.readArchive(path)
	if err != nil {
		if w.logger != nil {
			w.logger.Errorw("Failed to read discovered archive", "path", path, "error", err)
		}
		return
	}

	cells, err := extract.ListDatasets(data)
	if err != nil {
		if w.logger != nil {
			w.logger.Warnw("Discovered archive is not readable", "path", path, "error", err)
		}
		return
	}
	if len(cells) == 0 {
		if w.logger != nil {
			w.logger.Infow("Discovered archive holds no datasets", "path", path)
		}
		return
	}

	for _, cell := range cells {
		req, err := chart.NewLoadRequest(cell, path)
		if err != nil {
			if w.logger != nil {
				w.logger.Errorw("Failed to build load request", "chart_id", cell, "path", path, "error", err)
			}
			continue
		}
		if _, err := w.queue.Enqueue(req); err != nil {
			if w.logger != nil {
				w.logger.Errorw("Failed to enqueue discovered chart", "chart_id", cell, "path", path, "error", err)
			}
			return
		}
		if w.logger != nil {
			w.logger.Infow("Discovered chart enqueued", "chart_id", cell, "path", path)
		}
	}
}

func isArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}
