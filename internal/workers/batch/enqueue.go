// Package batch holds helpers shared by the scheduled producers.
package batch

import (
	"fmt"

	"assignment-notifier/internal/common/metrics"
	"assignment-notifier/internal/models"
	"assignment-notifier/internal/queue"
)

// Enqueue places a lazily resolved job on the queue and counts it.
func Enqueue(q queue.Enqueuer, producer string, event models.NotificationEvent) error {
	if err := q.Enqueue(models.NewJob(event)); err != nil {
		return fmt.Errorf("enqueue %s for %s: %w", event.Category(), event.AssignmentID(), err)
	}
	metrics.EventsEnqueued.WithLabelValues(producer, string(event.Category())).Inc()
	return nil
}
