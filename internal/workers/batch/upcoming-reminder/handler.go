package upcomingreminder

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
	TaskType = "upcoming-reminder"
)

const upcomingQuery = `
	SELECT a.id, a.assignment_number, COALESCE(a.reservation_id, ''), a.service_code, a.contractor_id, a.reservation_date
	FROM assignments a
	WHERE a.contractor_id IS NOT NULL
	  AND a.status IN ('accepted', 'confirmed')
	  AND a.reservation_date >= $1
	  AND a.reservation_date < $2
	ORDER BY a.reservation_date`

// Handler reminds contractors of assignments scheduled today or tomorrow.
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

func (h *Handler) Run(ctx context.Context) error {
	out, err := h.Execute(ctx)
	if err != nil {
		return apperrors.NewScanFailedError(TaskType, err)
	}
	h.logger.Info("scan finished", map[string]interface{}{
		"scanned":  out.Scanned,
		"today":    out.Today,
		"tomorrow": out.Tomorrow,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	now := h.now().In(h.config.Location)
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	end := today.AddDate(0, 0, 2)

	// Reservations that already started today are not worth a reminder.
	rows, err := h.scan(ctx, now, end)
	if err != nil {
		return nil, err
	}

	out := &Output{Scanned: len(rows), RanAt: now}
	for _, r := range rows {
		if r.ReservationDate.Before(now) {
			continue
		}
		status := models.ButtonToday
		if !r.ReservationDate.In(h.config.Location).Before(tomorrow) {
			status = models.ButtonTomorrow
		}

		event := models.NewEvent(models.CategoryUpcomingAssignmentReminder, r.ID,
			models.WithAssignmentNumber(r.Number),
			models.WithReservationID(r.ReservationID),
			models.WithServiceCode(models.ServiceCode(r.ServiceCode)),
			models.WithSubjectID(r.ContractorID),
			models.WithButtonStatus(status),
			models.WithScheduledAt(r.ReservationDate),
			models.WithOccurredAt(now),
		)
		if err := batch.Enqueue(h.queue, TaskType, event); err != nil {
			return out, err
		}
		if status == models.ButtonToday {
			out.Today++
		} else {
			out.Tomorrow++
		}
	}
	return out, nil
}

// startOfDay is local midnight. Calendar arithmetic keeps DST days correct.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (h *Handler) scan(ctx context.Context, from, to time.Time) ([]assignmentRow, error) {
	rows, err := h.db.QueryContext(ctx, upcomingQuery, from, to)
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
		if err := rows.Scan(&r.ID, &r.Number, &r.ReservationID, &r.ServiceCode, &r.ContractorID, &r.ReservationDate); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError(TaskType, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError(TaskType, err)
	}
	return out, nil
}
