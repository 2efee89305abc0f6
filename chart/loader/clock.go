package loader

import (
	"context"
	"time"
)

// Clock abstracts time for the loader so retry backoff and the slow-load
// threshold can be driven deterministically in tests. This replaces the
// global test-hook flags the pipeline grew out of: fault injection happens
// through the constructor, never through shared mutable state.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, returning ctx.Err()
	// in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
	// After behaves like time.After
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

// SystemClock returns the wall-clock implementation used in production
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
