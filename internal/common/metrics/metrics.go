// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Gateway attempts by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	NotificationsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_skipped_total",
			Help: "Channels skipped because no recipient resolved or lookup failed",
		},
		[]string{"channel", "reason"},
	)

	AuditWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_audit_writes_total",
			Help: "Audit records written by channel and status",
		},
		[]string{"channel", "status"},
	)

	TokensSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_tokens_suppressed_total",
			Help: "Device tokens suppressed after a provider rejection",
		},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_dispatch_duration_seconds",
			Help:    "Time to dispatch one delivery job",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Jobs waiting in the delivery queue",
		},
	)

	QueueJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_queue_jobs_total",
			Help: "Delivery jobs by terminal status (processed, failed, dropped)",
		},
		[]string{"status"},
	)

	EventsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_events_enqueued_total",
			Help: "Events enqueued by producer and category",
		},
		[]string{"producer", "category"},
	)

	ScheduledRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_task_runs_total",
			Help: "Scheduled task runs by task and status",
		},
		[]string{"task", "status"},
	)

	MaintenanceRowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_rows_deleted_total",
			Help: "Rows removed by maintenance scans",
		},
		[]string{"step"},
	)
)
