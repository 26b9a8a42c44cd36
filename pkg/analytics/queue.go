package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/gamefold/gamefold-go/pkg/log"
)

const (
	DefaultMaxBatchSize  = 100
	DefaultFlushInterval = 10 * time.Second

	flushTimeout = 15 * time.Second
)

// Sender transmits one batch of events.
type Sender interface {
	SendBatch(ctx context.Context, events []*Event) error
}

// Queue decouples event production from event transmission. Events
// accumulate in order and are flushed as one batch on a timer, when the
// queue reaches its maximum size, or on demand. A failed batch is
// requeued ahead of newer events so end-to-end ordering is preserved.
type Queue struct {
	sender        Sender
	maxBatchSize  int
	flushInterval time.Duration

	lock     sync.Mutex
	events   []*Event
	flushing bool
}

type NewQueueOptions struct {
	Sender Sender
	// MaxBatchSize triggers an immediate flush when reached. Zero means
	// DefaultMaxBatchSize.
	MaxBatchSize int
	// FlushInterval is the period of the background flush. Zero means
	// DefaultFlushInterval.
	FlushInterval time.Duration
}

// NewQueue creates a new event batching queue. Call Start on its own
// goroutine to run the periodic flush.
func NewQueue(opts NewQueueOptions) *Queue {
	maxBatchSize := opts.MaxBatchSize
	if maxBatchSize == 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = DefaultFlushInterval
	}
	return &Queue{
		sender:        opts.Sender,
		maxBatchSize:  maxBatchSize,
		flushInterval: flushInterval,
	}
}

// Enqueue appends an event. Reaching the maximum batch size triggers an
// immediate flush.
func (q *Queue) Enqueue(event *Event) {
	q.lock.Lock()
	q.events = append(q.events, event)
	size := len(q.events)
	q.lock.Unlock()

	if size >= q.maxBatchSize {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := q.Flush(ctx, false); err != nil {
			log.Warn("Failed to flush full event queue: %v", err)
		}
	}
}

// Flush transmits the queued events as one batch. An empty queue is a
// no-op, as is a non-synchronous flush while another flush is in
// progress. The live queue is snapshotted and emptied before the send, so
// events enqueued during the network call start a fresh batch. On failure
// the snapshot is requeued ahead of whatever accumulated since.
func (q *Queue) Flush(ctx context.Context, synchronous bool) error {
	q.lock.Lock()
	if len(q.events) == 0 {
		q.lock.Unlock()
		return nil
	}
	if q.flushing && !synchronous {
		q.lock.Unlock()
		return nil
	}
	snapshot := q.events
	q.events = nil
	q.flushing = true
	q.lock.Unlock()

	err := q.sender.SendBatch(ctx, snapshot)

	q.lock.Lock()
	q.flushing = false
	if err != nil {
		requeued := make([]*Event, 0, len(snapshot)+len(q.events))
		requeued = append(requeued, snapshot...)
		requeued = append(requeued, q.events...)
		q.events = requeued
		q.lock.Unlock()
		return err
	}
	q.lock.Unlock()

	log.Debug("Flushed %d analytics events", len(snapshot))
	return nil
}

// Size returns the number of queued events.
func (q *Queue) Size() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.events)
}

// Start runs the periodic flush until ctx is canceled.
func (q *Queue) Start(ctx context.Context) {
	ticker := time.NewTicker(q.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			if err := q.Flush(flushCtx, false); err != nil {
				log.Warn("Failed to flush event queue: %v", err)
			}
			cancel()
		}
	}
}

// Close performs a best-effort synchronous flush so buffered events are
// not lost on teardown.
func (q *Queue) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return q.Flush(ctx, true)
}
