package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/metrics"
	"assignment-notifier/internal/common/observability"
	"assignment-notifier/internal/dispatcher"
	"assignment-notifier/internal/models"
)

// Dispatcher processes one job.
type Dispatcher interface {
	Dispatch(ctx context.Context, job models.DeliveryJob) (*dispatcher.Result, error)
}

// State of the consumer loop.
type State int32

const (
	StateStopped State = iota
	StateIdle
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	default:
		return "stopped"
	}
}

// Worker is the single consumer of a Queue.
type Worker struct {
	queue      *Queue
	dispatcher Dispatcher
	logger     logger.Logger
	obs        *observability.Observability
	jobTimeout time.Duration

	state  atomic.Int32
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type WorkerOption func(*Worker)

// WithJobTimeout bounds a single dispatch.
func WithJobTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) { w.jobTimeout = d }
}

func WithWorkerObservability(o *observability.Observability) WorkerOption {
	return func(w *Worker) { w.obs = o }
}

func NewWorker(q *Queue, d Dispatcher, log logger.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:      q,
		dispatcher: d,
		logger:     log.WithFields(map[string]interface{}{"component": "delivery-worker"}),
		jobTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run consumes jobs until ctx is done or the queue is closed. Dispatch errors
// are logged and never stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.state.Store(int32(StateIdle))
	defer w.state.Store(int32(StateStopped))

	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		w.state.Store(int32(StateProcessing))
		w.process(ctx, job)
		w.state.Store(int32(StateIdle))
	}
}

// process runs one job detached from ctx cancellation so a job that started
// before shutdown finishes.
func (w *Worker) process(ctx context.Context, job models.DeliveryJob) {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.jobTimeout)
	defer cancel()

	start := time.Now()
	status := "processed"

	defer func() {
		if r := recover(); r != nil {
			status = "failed"
			w.logger.Error("dispatch panicked", map[string]interface{}{
				"category":     job.Event.Category(),
				"assignmentId": job.Event.AssignmentID(),
				"panic":        fmt.Sprint(r),
			})
		}
		metrics.QueueJobs.WithLabelValues(status).Inc()
		w.obs.RecordJobProcessed(jobCtx, status)
		w.obs.RecordJobDuration(jobCtx, time.Since(start), status)
	}()

	res, err := w.dispatcher.Dispatch(jobCtx, job)
	if err != nil {
		status = "failed"
		w.logger.Error("delivery job failed", map[string]interface{}{
			"category":     job.Event.Category(),
			"assignmentId": job.Event.AssignmentID(),
			"error":        err,
		})
		return
	}

	w.logger.Debug("delivery job processed", map[string]interface{}{
		"category":     job.Event.Category(),
		"assignmentId": job.Event.AssignmentID(),
		"channels":     res.Attempted(),
		"queuedFor":    start.Sub(job.EnqueuedAt).String(),
	})
}

// Start runs the consumer in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return fmt.Errorf("delivery worker already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		if err := w.Run(runCtx); err != nil {
			w.logger.Error("delivery worker stopped", map[string]interface{}{"error": err})
		}
	}()

	w.logger.Info("delivery worker started", nil)
	return nil
}

// Stop closes the queue, dropping waiting jobs, and waits for the in-flight
// job until ctx expires.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return fmt.Errorf("delivery worker not started")
	}
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	dropped := w.queue.Close()
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight job: %w", ctx.Err())
	}

	w.logger.Info("delivery worker stopped", map[string]interface{}{"droppedJobs": dropped})
	return nil
}
