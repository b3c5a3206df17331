// Package scheduler runs the periodic batch scans in the configured timezone.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/metrics"

	"github.com/sourcegraph/conc"
)

var (
	ErrTaskAlreadyRegistered = errors.New("task already registered")
	ErrTaskNotFound          = errors.New("task not found")
	ErrNoTasks               = errors.New("no tasks registered")
	ErrAlreadyStarted        = errors.New("scheduler already started")
)

// TaskFunc is one run of a periodic task.
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	schedule Schedule
	fn       TaskFunc
}

// Scheduler fires registered tasks according to their schedules. Each task
// has its own goroutine; a task never overlaps with itself.
type Scheduler struct {
	loc     *time.Location
	locker  Locker
	lockTTL time.Duration
	logger  logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	tasks   map[string]*task
	order   []string
	cancel  context.CancelFunc
	wg      conc.WaitGroup
	started bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocker enables cross-instance run locks.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = l
		s.lockTTL = ttl
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(loc *time.Location, log logger.Logger, opts ...Option) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		loc:     loc,
		lockTTL: 10 * time.Minute,
		logger:  log.WithFields(map[string]interface{}{"component": "scheduler"}),
		now:     time.Now,
		tasks:   make(map[string]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTask registers fn under name. Tasks must be added before Start.
func (s *Scheduler) AddTask(name string, schedule Schedule, fn TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[name]; exists {
		return ErrTaskAlreadyRegistered
	}
	s.tasks[name] = &task{name: name, schedule: schedule, fn: fn}
	s.order = append(s.order, name)

	s.logger.Info("registered periodic task", map[string]interface{}{
		"task":     name,
		"schedule": schedule.String(),
	})
	return nil
}

// Start launches one loop per task and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if len(s.tasks) == 0 {
		return ErrNoTasks
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true

	for _, name := range s.order {
		t := s.tasks[name]
		s.wg.Go(func() { s.loop(ctx, t) })
	}
	return nil
}

// Stop cancels all loops and waits for running tasks to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped", nil)
}

// RunNow runs a task once, honoring the run lock.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return ErrTaskNotFound
	}
	return s.run(ctx, t)
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	for {
		now := s.now().In(s.loc)
		next := t.schedule.Next(now)
		s.logger.Debug("next run scheduled", map[string]interface{}{
			"task":    t.name,
			"nextRun": next.Format(time.RFC3339),
		})

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.run(ctx, t); err != nil {
			s.logger.Error("periodic task failed", map[string]interface{}{
				"task":  t.name,
				"error": err,
			})
		}
	}
}

func (s *Scheduler) run(ctx context.Context, t *task) error {
	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, t.name, s.lockTTL)
		if err != nil {
			metrics.ScheduledRuns.WithLabelValues(t.name, "lock_error").Inc()
			return err
		}
		if !ok {
			metrics.ScheduledRuns.WithLabelValues(t.name, "skipped").Inc()
			s.logger.Info("periodic task held by another instance", map[string]interface{}{"task": t.name})
			return nil
		}
		defer release(context.WithoutCancel(ctx))
	}

	start := time.Now()
	err := t.fn(ctx)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ScheduledRuns.WithLabelValues(t.name, status).Inc()
	s.logger.Info("periodic task finished", map[string]interface{}{
		"task":       t.name,
		"status":     status,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return err
}
