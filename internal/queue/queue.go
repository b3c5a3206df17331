// Package queue holds the in-process delivery queue and its single consumer.
package queue

import (
	"context"
	"sync"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/metrics"
	"assignment-notifier/internal/common/observability"
	"assignment-notifier/internal/models"
)

// ErrClosed is returned by Enqueue and Dequeue once the queue is closed.
var ErrClosed = apperrors.NewQueueClosedError()

// Enqueuer is the producer side of the queue.
type Enqueuer interface {
	Enqueue(job models.DeliveryJob) error
}

// Queue is an unbounded multi-producer, single-consumer FIFO. Enqueue never
// blocks.
type Queue struct {
	mu     sync.Mutex
	items  []models.DeliveryJob
	closed bool
	ready  chan struct{}
	done   chan struct{}
	obs    *observability.Observability
}

type Option func(*Queue)

// WithObservability mirrors queue depth into the OTel meter.
func WithObservability(o *observability.Observability) Option {
	return func(q *Queue) { q.obs = o }
}

func New(opts ...Option) *Queue {
	q := &Queue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) Enqueue(job models.DeliveryJob) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, job)
	depth := len(q.items)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	q.obs.RecordQueueDelta(context.Background(), 1)

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue blocks until a job is available, ctx is done or the queue is closed.
func (q *Queue) Dequeue(ctx context.Context) (models.DeliveryJob, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return models.DeliveryJob{}, ErrClosed
		}
		if len(q.items) > 0 {
			job := q.items[0]
			q.items[0] = models.DeliveryJob{}
			q.items = q.items[1:]
			depth := len(q.items)
			q.mu.Unlock()

			metrics.QueueDepth.Set(float64(depth))
			q.obs.RecordQueueDelta(ctx, -1)
			return job, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return models.DeliveryJob{}, ctx.Err()
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further jobs and drops the ones still waiting. It returns the
// number of dropped jobs. Closing twice is a no-op.
func (q *Queue) Close() int {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	q.closed = true
	dropped := len(q.items)
	q.items = nil
	close(q.done)
	q.mu.Unlock()

	metrics.QueueDepth.Set(0)
	if dropped > 0 {
		metrics.QueueJobs.WithLabelValues("dropped").Add(float64(dropped))
		q.obs.RecordQueueDelta(context.Background(), -int64(dropped))
	}
	return dropped
}
