// Package loader drives a single chart load from archive bytes to verified,
// decoded chart data.
//
// The load is a fixed state machine: Extracting -> Hashing -> Verifying ->
// Decoding -> terminal. Absent datasets, unreadable archives, and integrity
// mismatches are terminal immediately - retrying cannot fix any of them.
// Only transient decode failures are retried, with bounded exponential
// backoff.
package loader

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/chart/extract"
	"github.com/frye/navtool-sub009/chart/integrity"
	"github.com/frye/navtool-sub009/errors"
)

const (
	// MaxDecodeRetries bounds transient decode retries: 1 initial attempt
	// plus up to 4 retries
	MaxDecodeRetries = 4
	// BackoffBase is the delay before the first retry; each further retry
	// doubles it (100, 200, 400, 800 ms), no jitter
	BackoffBase = 100 * time.Millisecond
	// SlowLoadThreshold is how long a load may run before the slow-load
	// progress signal fires. A timing contract, not a preference - there is
	// deliberately no configuration knob for it.
	SlowLoadThreshold = 500 * time.Millisecond
)

// Loader performs single-shot chart loads. A Loader is safe for sequential
// reuse; the queue guarantees one Load is in flight at a time, and each call
// re-attempts independently.
type Loader struct {
	registry *integrity.Registry
	decoder  Decoder
	logger   *zap.SugaredLogger

	clock              Clock
	progress           ProgressEmitter
	verboseDiagnostics bool
	readArchive        func(path string) ([]byte, error)
}

// Option configures a Loader
type Option func(*Loader)

// WithClock substitutes the time source (tests)
func WithClock(c Clock) Option {
	return func(l *Loader) { l.clock = c }
}

// WithProgressEmitter wires the slow-load signal receiver
func WithProgressEmitter(p ProgressEmitter) Option {
	return func(l *Loader) { l.progress = p }
}

// WithVerboseDiagnostics enables technical detail on load errors
func WithVerboseDiagnostics(enabled bool) Option {
	return func(l *Loader) { l.verboseDiagnostics = enabled }
}

// WithArchiveReader substitutes archive file reading (tests)
func WithArchiveReader(fn func(path string) ([]byte, error)) Option {
	return func(l *Loader) { l.readArchive = fn }
}

// New creates a loader over the given integrity registry and decoder
func New(registry *integrity.Registry, decoder Decoder, logger *zap.SugaredLogger, opts ...Option) *Loader {
	l := &Loader{
		registry:    registry,
		decoder:     decoder,
		logger:      logger,
		clock:       SystemClock(),
		readArchive: os.ReadFile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs the full pipeline for one request and returns its terminal
// result. Expected failures come back inside the Result, never as a Go
// error - the error taxonomy is the contract with the presentation layer.
func (l *Loader) Load(ctx context.Context, req *chart.LoadRequest) *Result {
	start := l.clock.Now()
	stopSignal := l.watchSlowLoad(req.ChartID)
	defer stopSignal()

	// Extracting
	archiveBytes, err := l.readArchive(req.ArchivePath)
	if err != nil {
		return l.fail(req, start, KindExtractionFailed, 0,
			"The chart archive could not be opened.",
			"read "+req.ArchivePath+": "+err.Error())
	}

	data, err := extract.ExtractDataset(archiveBytes, req.ChartID)
	if err != nil {
		return l.fail(req, start, KindExtractionFailed, 0,
			"The chart archive is damaged and could not be read.",
			"extract "+req.ChartID+" from "+req.ArchivePath+": "+err.Error())
	}
	if len(data) == 0 {
		return l.fail(req, start, KindDatasetNotFound, 0,
			"Chart "+req.ChartID+" was not found in the archive.",
			"no dataset entry for "+req.ChartID+" in "+req.ArchivePath)
	}

	// Hashing
	hash := integrity.HashDataset(data)
	if l.logger != nil {
		l.logger.Debugw("Dataset extracted",
			"chart_id", req.ChartID,
			"bytes", len(data),
			"content_hash", hash,
		)
	}

	// Verifying
	classification, err := l.registry.Classify(ctx, req.ChartID, hash)
	if err != nil {
		// Registry storage faults sit outside the four-kind taxonomy;
		// they surface as the terminal non-retryable extraction category
		// with the real cause in the technical detail
		return l.fail(req, start, KindExtractionFailed, 0,
			"Chart integrity could not be verified.",
			"classify "+req.ChartID+": "+err.Error())
	}

	switch classification {
	case integrity.Mismatch:
		expected := ""
		if rec := l.registry.Lookup(req.ChartID); rec != nil {
			expected = rec.ContentHash
		}
		return l.fail(req, start, KindIntegrityMismatch, 0,
			"Chart "+req.ChartID+" failed integrity verification.",
			"expected "+expected+", computed "+hash)
	case integrity.FirstObservation:
		if err := l.registry.Commit(ctx, req.ChartID, hash); err != nil {
			return l.fail(req, start, KindExtractionFailed, 0,
				"Chart integrity could not be recorded.",
				"commit "+req.ChartID+": "+err.Error())
		}
	}

	// Decoding, with bounded exponential backoff on transient failures
	for attempt := 0; ; attempt++ {
		decoded, err := l.decoder.Decode(ctx, req.ChartID, data)
		if err == nil {
			if l.logger != nil {
				l.logger.Infow("Chart loaded",
					"chart_id", req.ChartID,
					"classification", classification,
					"retries", attempt,
				)
			}
			return &Result{
				Request:    req,
				Chart:      decoded,
				RetryCount: attempt,
				Duration:   l.clock.Now().Sub(start),
			}
		}

		if !errors.IsTransient(err) {
			return l.fail(req, start, KindDecodeFailed, attempt,
				"Chart "+req.ChartID+" could not be decoded.",
				"permanent decode failure: "+err.Error())
		}

		if attempt == MaxDecodeRetries {
			return l.fail(req, start, KindDecodeFailed, attempt,
				"Chart "+req.ChartID+" could not be decoded after repeated attempts.",
				"transient decode failure persisted: "+err.Error())
		}

		delay := BackoffBase << attempt
		if l.logger != nil {
			l.logger.Warnw("Transient decode failure, backing off",
				"chart_id", req.ChartID,
				"attempt", attempt+1,
				"backoff", delay,
				"error", err,
			)
		}
		if err := l.clock.Sleep(ctx, delay); err != nil {
			return l.fail(req, start, KindDecodeFailed, attempt,
				"Chart load was interrupted.",
				"backoff interrupted: "+err.Error())
		}
	}
}

// fail constructs the terminal failure result for a request
func (l *Loader) fail(req *chart.LoadRequest, start time.Time, kind ErrorKind, retries int, message, detail string) *Result {
	loadErr := &LoadError{
		Kind:       kind,
		ChartID:    req.ChartID,
		Message:    truncateMessage(message),
		Guidance:   kind.Guidance(),
		RetryCount: retries,
		OccurredAt: l.clock.Now(),
	}
	if l.verboseDiagnostics {
		loadErr.TechnicalDetail = detail
	}

	if l.logger != nil {
		l.logger.Errorw("Chart load failed",
			"chart_id", req.ChartID,
			"kind", kind,
			"retries", retries,
			"detail", detail,
		)
	}

	return &Result{
		Request:    req,
		Err:        loadErr,
		RetryCount: retries,
		Duration:   l.clock.Now().Sub(start),
	}
}
