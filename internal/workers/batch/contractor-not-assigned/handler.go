package contractornotassigned

import (
	"context"
	"database/sql"
	"time"

	apperrors "assignment-notifier/internal/common/errors"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/models"
	"assignment-notifier/internal/queue"
	"assignment-notifier/internal/workers/batch"
)

const (
	TaskType = "contractor-not-assigned"
)

const unassignedQuery = `
	SELECT a.id, a.assignment_number, COALESCE(a.reservation_id, ''), a.service_code, a.reservation_date
	FROM assignments a
	WHERE a.contractor_id IS NULL
	  AND a.status = 'open'
	  AND a.reservation_date >= $1
	  AND a.reservation_date < $2
	ORDER BY a.reservation_date`

// Handler raises an urgent-attention event for every open assignment inside
// the look-ahead window that still has no contractor.
type Handler struct {
	config *Config
	db     *sql.DB
	queue  queue.Enqueuer
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, q queue.Enqueuer, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		queue:  q,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

// Run is the scheduler entry point.
func (h *Handler) Run(ctx context.Context) error {
	out, err := h.Execute(ctx)
	if err != nil {
		return apperrors.NewScanFailedError(TaskType, err)
	}
	h.logger.Info("scan finished", map[string]interface{}{
		"scanned":  out.Scanned,
		"enqueued": out.Enqueued,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	now := h.now()
	rows, err := h.scan(ctx, now)
	if err != nil {
		return nil, err
	}

	out := &Output{Scanned: len(rows), RanAt: now}
	for _, r := range rows {
		event := models.NewEvent(models.CategoryContractorNotAssigned, r.ID,
			models.WithAssignmentNumber(r.Number),
			models.WithReservationID(r.ReservationID),
			models.WithServiceCode(models.ServiceCode(r.ServiceCode)),
			models.WithScheduledAt(r.ReservationDate),
			models.WithOccurredAt(now),
		)
		if err := batch.Enqueue(h.queue, TaskType, event); err != nil {
			return out, err
		}
		out.Enqueued++
	}
	return out, nil
}

func (h *Handler) scan(ctx context.Context, now time.Time) ([]assignmentRow, error) {
	rows, err := h.db.QueryContext(ctx, unassignedQuery, now, now.Add(h.config.Lookahead))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewQueryTimeoutError(TaskType)
		}
		return nil, apperrors.NewQueryExecutionFailedError(TaskType, err)
	}
	defer rows.Close()

	var out []assignmentRow
	for rows.Next() {
		var r assignmentRow
		if err := rows.Scan(&r.ID, &r.Number, &r.ReservationID, &r.ServiceCode, &r.ReservationDate); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(TaskType, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(TaskType, err)
	}
	return out, nil
}
