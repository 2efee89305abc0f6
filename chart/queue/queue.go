// Package queue serializes chart load requests through a single in-flight
// loader.
//
// Requests are processed in strict arrival order, one at a time. The queue
// never drops or reorders a request and has no priority lanes and no
// cancellation of pending work. Each Enqueue returns a completion handle the
// caller can wait on; observers subscribe for queue and progress events.
package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/chart/history"
	"github.com/frye/navtool-sub009/chart/loader"
	"github.com/frye/navtool-sub009/errors"
)

// DefaultSubscriberBuffer is the event channel capacity per subscriber
const DefaultSubscriberBuffer = 100

// ChartLoader performs one chart load to its terminal result
type ChartLoader interface {
	Load(ctx context.Context, req *chart.LoadRequest) *loader.Result
}

// EventType identifies a queue or progress event
type EventType string

const (
	// EventEnqueued - a request joined the queue
	EventEnqueued EventType = "enqueued"
	// EventLoadStarted - a request left the queue and is processing
	EventLoadStarted EventType = "load_started"
	// EventSlowLoad - the in-flight load crossed the slow-load threshold
	EventSlowLoad EventType = "slow_load"
	// EventSlowLoadCleared - the slow load terminated
	EventSlowLoadCleared EventType = "slow_load_cleared"
	// EventLoadCompleted - a request reached its terminal result
	EventLoadCompleted EventType = "load_completed"
)

// Event is a queue state change delivered to subscribers
type Event struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	ChartID   string    `json:"chart_id"`
	// Position is the 1-based queue position, set on enqueued events
	Position int `json:"position,omitempty"`
	// Succeeded and ErrorKind are set on load_completed events
	Succeeded bool      `json:"succeeded,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	At        time.Time `json:"at"`
}

// Status is a point-in-time snapshot of the queue
type Status struct {
	IsProcessing   bool           `json:"is_processing"`
	CurrentChartID string         `json:"current_chart_id,omitempty"`
	PendingCount   int            `json:"pending_count"`
	// Positions maps pending request IDs to their 1-based queue position
	Positions map[string]int `json:"positions"`
}

type pendingItem struct {
	req      *chart.LoadRequest
	resultCh chan *loader.Result
}

// Queue is the FIFO single-flight load queue
type Queue struct {
	loader  ChartLoader
	history *history.Store
	logger  *zap.SugaredLogger

	subscriberBuffer int

	mu          sync.Mutex
	pending     []*pendingItem
	processing  *chart.LoadRequest
	subscribers map[int]chan Event
	nextSubID   int
	closed      bool

	wake      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
}

// Option configures a Queue
type Option func(*Queue)

// WithHistory records every terminal result in the given store
func WithHistory(store *history.Store) Option {
	return func(q *Queue) { q.history = store }
}

// WithSubscriberBuffer sets the event channel capacity per subscriber
func WithSubscriberBuffer(size int) Option {
	return func(q *Queue) {
		if size > 0 {
			q.subscriberBuffer = size
		}
	}
}

// New creates a load queue over the given loader. Call Start before
// enqueueing.
func New(ldr ChartLoader, logger *zap.SugaredLogger, opts ...Option) *Queue {
	q := &Queue{
		loader:           ldr,
		logger:           logger,
		subscriberBuffer: DefaultSubscriberBuffer,
		subscribers:      make(map[int]chan Event),
		wake:             make(chan struct{}, 1),
		stopped:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the dispatch loop. It runs until ctx is cancelled; Wait
// blocks until the loop has exited.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		go q.dispatch(ctx)
	})
}

// Wait blocks until the dispatch loop has exited
func (q *Queue) Wait() {
	<-q.stopped
}

// Enqueue appends a request and returns its completion handle. The channel
// is buffered so the dispatcher never blocks delivering the result; it
// receives exactly one result and is then closed.
func (q *Queue) Enqueue(req *chart.LoadRequest) (<-chan *loader.Result, error) {
	if req == nil {
		return nil, errors.New("cannot enqueue a nil request")
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, errors.New("load queue is shut down")
	}
	item := &pendingItem{
		req:      req,
		resultCh: make(chan *loader.Result, 1),
	}
	q.pending = append(q.pending, item)
	position := len(q.pending)
	q.mu.Unlock()

	q.publish(Event{
		Type:      EventEnqueued,
		RequestID: req.RequestID,
		ChartID:   req.ChartID,
		Position:  position,
		At:        time.Now(),
	})
	if q.logger != nil {
		q.logger.Debugw("Load request enqueued",
			"request_id", req.RequestID,
			"chart_id", req.ChartID,
			"position", position,
		)
	}

	// Nudge the dispatcher; a pending nudge already covers us
	select {
	case q.wake <- struct{}{}:
	default:
	}

	return item.resultCh, nil
}

// Status reports the current queue state
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	st := Status{
		PendingCount: len(q.pending),
		Positions:    make(map[string]int, len(q.pending)),
	}
	if q.processing != nil {
		st.IsProcessing = true
		st.CurrentChartID = q.processing.ChartID
	}
	for i, item := range q.pending {
		st.Positions[item.req.RequestID] = i + 1
	}
	return st
}

// Subscribe registers an event observer. Events are delivered best-effort:
// a subscriber that falls behind its buffer misses events rather than
// stalling the queue. The returned function unsubscribes and closes the
// channel.
func (q *Queue) Subscribe() (<-chan Event, func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextSubID
	q.nextSubID++
	ch := make(chan Event, q.subscriberBuffer)
	q.subscribers[id] = ch

	return ch, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if existing, ok := q.subscribers[id]; ok {
			delete(q.subscribers, id)
			close(existing)
		}
	}
}

// SlowLoadStarted implements loader.ProgressEmitter, rebroadcasting the
// slow-load signal as a queue event
func (q *Queue) SlowLoadStarted(chartID string) {
	q.publish(Event{Type: EventSlowLoad, ChartID: chartID, At: time.Now()})
	if q.logger != nil {
		q.logger.Infow("Chart load is taking longer than expected", "chart_id", chartID)
	}
}

// SlowLoadCleared implements loader.ProgressEmitter
func (q *Queue) SlowLoadCleared(chartID string) {
	q.publish(Event{Type: EventSlowLoadCleared, ChartID: chartID, At: time.Now()})
}

func (q *Queue) publish(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ch := range q.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; dropping beats stalling the dispatcher
		}
	}
}

// dispatch is the single worker loop: pop the head, load it, deliver the
// result, repeat while work remains. Work-conserving by construction - the
// loop re-checks the pending list before ever blocking on the wake signal.
func (q *Queue) dispatch(ctx context.Context) {
	defer close(q.stopped)
	defer q.shutdown()

	for {
		item := q.next(ctx)
		if item == nil {
			return
		}

		q.publish(Event{
			Type:      EventLoadStarted,
			RequestID: item.req.RequestID,
			ChartID:   item.req.ChartID,
			At:        time.Now(),
		})

		result := q.loader.Load(ctx, item.req)

		if q.history != nil {
			if err := q.history.Record(ctx, result); err != nil && q.logger != nil {
				q.logger.Errorw("Failed to record load history",
					"request_id", item.req.RequestID,
					"error", err,
				)
			}
		}

		q.mu.Lock()
		q.processing = nil
		q.mu.Unlock()

		item.resultCh <- result
		close(item.resultCh)

		ev := Event{
			Type:      EventLoadCompleted,
			RequestID: item.req.RequestID,
			ChartID:   item.req.ChartID,
			Succeeded: result.Succeeded(),
			At:        time.Now(),
		}
		if !result.Succeeded() {
			ev.ErrorKind = string(result.Err.Kind)
		}
		q.publish(ev)
	}
}

// next blocks until a request is available or ctx is cancelled. nil means
// shut down.
func (q *Queue) next(ctx context.Context) *pendingItem {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		q.mu.Lock()
		if len(q.pending) > 0 {
			item := q.pending[0]
			q.pending = q.pending[1:]
			q.processing = item.req
			q.mu.Unlock()
			return item
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil
		case <-q.wake:
		}
	}
}

// shutdown rejects further enqueues and fails every still-pending request
func (q *Queue) shutdown() {
	q.mu.Lock()
	q.closed = true
	pending := q.pending
	q.pending = nil
	subscribers := q.subscribers
	q.subscribers = make(map[int]chan Event)
	q.mu.Unlock()

	for _, item := range pending {
		item.resultCh <- &loader.Result{
			Request: item.req,
			Err: &loader.LoadError{
				Kind:       loader.KindExtractionFailed,
				ChartID:    item.req.ChartID,
				Message:    "Chart load was cancelled during shutdown.",
				Guidance:   loader.KindExtractionFailed.Guidance(),
				OccurredAt: time.Now(),
			},
		}
		close(item.resultCh)
	}
	for _, ch := range subscribers {
		close(ch)
	}
}
