package loader

// ProgressEmitter receives the slow-load signal for loads that run past the
// 500ms threshold. SlowLoadStarted fires at most once per load; when it has
// fired, SlowLoadCleared fires the moment the load terminates, success or
// failure. After Load returns, no further events are emitted for that
// request - the watcher is joined on every exit path.
type ProgressEmitter interface {
	SlowLoadStarted(chartID string)
	SlowLoadCleared(chartID string)
}

// watchSlowLoad arms the slow-load signal for one load. The returned stop
// function must be called on every exit path; it cancels a pending signal,
// emits the cleared event when the started event was emitted, and joins the
// watcher goroutine so no event can fire after Load has returned.
func (l *Loader) watchSlowLoad(chartID string) (stop func()) {
	if l.progress == nil {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		select {
		case <-l.clock.After(SlowLoadThreshold):
			l.progress.SlowLoadStarted(chartID)
			<-done
			l.progress.SlowLoadCleared(chartID)
		case <-done:
			// Load finished under the threshold; nothing was signalled,
			// nothing to clear
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
